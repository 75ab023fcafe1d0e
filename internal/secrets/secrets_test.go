package secrets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/secrets"
)

const secretsYaml = `
- id: vertex
  username: vpuser
  password: hunter2
- id: kubra
  username: kuser
  private_key: |
    not-a-real-key
`

func writeSecrets(t *testing.T, perm os.FileMode) string {
	t.Helper()
	fpath := filepath.Join(t.TempDir(), "secrets.yml")
	require.NoError(t, os.WriteFile(fpath, []byte(secretsYaml), perm))
	require.NoError(t, os.Chmod(fpath, perm))
	return fpath
}

func TestFileProviderResolvesEntries(t *testing.T) {
	fp, err := secrets.LoadFile(writeSecrets(t, 0600))
	require.NoError(t, err)

	creds, err := fp.Credential("vertex")
	require.NoError(t, err)
	require.Equal(t, "vpuser", creds.Username)
	require.Equal(t, "hunter2", creds.Password)

	creds, err = fp.Credential("kubra")
	require.NoError(t, err)
	require.Equal(t, "not-a-real-key\n", creds.PrivateKey)
}

func TestFileProviderUnknownId(t *testing.T) {
	fp, err := secrets.LoadFile(writeSecrets(t, 0600))
	require.NoError(t, err)

	_, err = fp.Credential("missing")
	var nosecret *secrets.ErrNoSuchSecret
	require.ErrorAs(t, err, &nosecret)
}

func TestFileProviderRejectsOpenPermissions(t *testing.T) {
	_, err := secrets.LoadFile(writeSecrets(t, 0644))
	var tooopen *secrets.ErrPermissionsTooOpen
	require.ErrorAs(t, err, &tooopen)
}

func TestEnvProvider(t *testing.T) {
	env := map[string]string{
		"FILERELAY_SRC_SFTP_USERNAME": "alice",
		"FILERELAY_SRC_SFTP_PASSWORD": "secret",
	}
	ep := &secrets.EnvProvider{
		Prefix: "FILERELAY_",
		Lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}

	creds, err := ep.Credential("src-sftp")
	require.NoError(t, err)
	require.Equal(t, "alice", creds.Username)
	require.Equal(t, "secret", creds.Password)

	_, err = ep.Credential("dest")
	var nosecret *secrets.ErrNoSuchSecret
	require.ErrorAs(t, err, &nosecret)
}

func TestChainFallsThrough(t *testing.T) {
	fp, err := secrets.LoadFile(writeSecrets(t, 0600))
	require.NoError(t, err)

	ep := &secrets.EnvProvider{
		Prefix: "X_",
		Lookup: func(k string) (string, bool) {
			if k == "X_OTHER_PASSWORD" {
				return "pw", true
			}
			return "", false
		},
	}

	chain := secrets.Chain{ep, fp}

	creds, err := chain.Credential("vertex")
	require.NoError(t, err)
	require.Equal(t, "vpuser", creds.Username)

	creds, err = chain.Credential("other")
	require.NoError(t, err)
	require.Equal(t, "pw", creds.Password)

	_, err = chain.Credential("nobody")
	var nosecret *secrets.ErrNoSuchSecret
	require.ErrorAs(t, err, &nosecret)
}
