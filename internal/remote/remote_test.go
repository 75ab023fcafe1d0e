package remote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/remote"
)

func TestForProtocol(t *testing.T) {
	for _, name := range []string{"sftp", "ftp", "ftps", "webdav", "webdavs", "s3", "file"} {
		store, err := remote.ForProtocol(name)
		require.NoError(t, err, name)
		require.NotNil(t, store, name)
	}

	_, err := remote.ForProtocol("gopher")
	var unknown *remote.ErrUnknownProtocol
	require.ErrorAs(t, err, &unknown)
}

func TestAddressUsesDefaultPort(t *testing.T) {
	require.Equal(t, "files.example.com:22", remote.Endpoint{Protocol: "sftp", Host: "files.example.com"}.Address())
	require.Equal(t, "files.example.com:21", remote.Endpoint{Protocol: "ftp", Host: "files.example.com"}.Address())
	require.Equal(t, "files.example.com:2222", remote.Endpoint{Protocol: "sftp", Host: "files.example.com", Port: 2222}.Address())
}
