package crypt_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
	"filippo.io/age/armor"
	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/crypt"
)

func decrypt(t *testing.T, data []byte, secret string, armored bool) []byte {
	t.Helper()

	identity, err := age.ParseX25519Identity(secret)
	require.NoError(t, err)

	var in io.Reader = bytes.NewReader(data)
	if armored {
		in = armor.NewReader(in)
	}

	r, err := age.Decrypt(in, identity)
	require.NoError(t, err)

	plain, err := io.ReadAll(r)
	require.NoError(t, err)
	return plain
}

func TestEncryptProducesSibling(t *testing.T) {
	secret, recipient, err := crypt.GenerateIdentity()
	require.NoError(t, err)

	plainPath := filepath.Join(t.TempDir(), "VP_B_20240501_101500_abcd1234.zip")
	require.NoError(t, os.WriteFile(plainPath, []byte("letter file"), 0644))

	enc := &crypt.Age{}
	encPath, err := enc.Encrypt(plainPath, recipient)
	require.NoError(t, err)
	require.Equal(t, plainPath+crypt.Suffix, encPath)

	// plaintext untouched
	plain, err := os.ReadFile(plainPath)
	require.NoError(t, err)
	require.Equal(t, "letter file", string(plain))

	data, err := os.ReadFile(encPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "letter file")
	require.Equal(t, "letter file", string(decrypt(t, data, secret, false)))
}

func TestEncryptArmored(t *testing.T) {
	secret, recipient, err := crypt.GenerateIdentity()
	require.NoError(t, err)

	plainPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(plainPath, []byte("armored"), 0644))

	encPath, err := (&crypt.Age{Armor: true}).Encrypt(plainPath, recipient)
	require.NoError(t, err)

	data, err := os.ReadFile(encPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "-----BEGIN AGE ENCRYPTED FILE-----"))
	require.Equal(t, "armored", string(decrypt(t, data, secret, true)))
}

func TestEncryptWithRecipientsFile(t *testing.T) {
	secret, recipient, err := crypt.GenerateIdentity()
	require.NoError(t, err)

	dir := t.TempDir()
	rfile := filepath.Join(dir, "recipients.txt")
	require.NoError(t, os.WriteFile(rfile, []byte("# kubra\n"+recipient+"\n"), 0644))

	plainPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(plainPath, []byte("a,b,c"), 0644))

	encPath, err := (&crypt.Age{}).Encrypt(plainPath, rfile)
	require.NoError(t, err)

	data, err := os.ReadFile(encPath)
	require.NoError(t, err)
	require.Equal(t, "a,b,c", string(decrypt(t, data, secret, false)))
}

func TestEncryptFailures(t *testing.T) {
	dir := t.TempDir()
	plainPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(plainPath, []byte("x"), 0644))

	_, recipient, err := crypt.GenerateIdentity()
	require.NoError(t, err)

	enc := &crypt.Age{}
	var eerr *crypt.EncryptionError

	_, err = enc.Encrypt(plainPath, "age1notavalidrecipient")
	require.ErrorAs(t, err, &eerr)

	_, err = enc.Encrypt(filepath.Join(dir, "missing.csv"), recipient)
	require.ErrorAs(t, err, &eerr)

	// nothing but the plaintext remains
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
