package remote_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/remote"
	"github.com/studio1767/filerelay/internal/secrets"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()
	staging := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(src, "VP_A.zip"), []byte("payload"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "subdir"), 0755))

	store := &remote.LocalStore{}
	session, err := store.Connect(ctx, remote.Endpoint{Protocol: "file", Directory: src}, secrets.Credentials{})
	require.NoError(t, err)
	defer session.Close()

	entries, err := session.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "VP_A.zip", entries[0].Name)
	require.Equal(t, int64(7), entries[0].Size)

	local := filepath.Join(staging, "VP_A_1.zip")
	require.NoError(t, session.Fetch(ctx, "VP_A.zip", local))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))

	target := filepath.Join(dst, "VP_A.zip")
	require.NoError(t, session.Put(ctx, local, target))

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestLocalStoreFetchMissingLeavesNothing(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	staging := t.TempDir()

	store := &remote.LocalStore{}
	session, err := store.Connect(ctx, remote.Endpoint{Protocol: "file", Directory: src}, secrets.Credentials{})
	require.NoError(t, err)
	defer session.Close()

	err = session.Fetch(ctx, "nope.zip", filepath.Join(staging, "nope.zip"))
	var terr *remote.TransferError
	require.ErrorAs(t, err, &terr)
	require.True(t, errors.Is(err, os.ErrNotExist))

	left, err := os.ReadDir(staging)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestLocalStoreConnectMissingDirectory(t *testing.T) {
	store := &remote.LocalStore{}
	_, err := store.Connect(context.Background(), remote.Endpoint{Directory: filepath.Join(t.TempDir(), "absent")}, secrets.Credentials{})

	var cerr *remote.ConnectionError
	require.ErrorAs(t, err, &cerr)
}
