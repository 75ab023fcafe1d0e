package remote_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/remote"
	"github.com/studio1767/filerelay/internal/secrets"
)

func TestMemoryStoreListsOnlyDirectory(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	store.AddFile("/out/VP_B.zip", []byte("bb"), t0.Add(time.Hour))
	store.AddFile("/out/VP_A.zip", []byte("a"), t0)
	store.AddFile("/elsewhere/VP_C.zip", []byte("c"), t0)

	session, err := store.Connect(ctx, remote.Endpoint{Directory: "/out"}, secrets.Credentials{})
	require.NoError(t, err)
	require.Equal(t, 1, store.OpenSessions())

	entries, err := session.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "VP_A.zip", entries[0].Name)
	require.Equal(t, t0, entries[0].ModTime)
	require.Equal(t, int64(2), entries[1].Size)

	require.NoError(t, session.Close())
	require.Equal(t, 0, store.OpenSessions())
	require.Error(t, session.Close())
}

func TestMemoryStoreFetchAndPut(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	store.AddFile("/out/VP_A.zip", []byte("alpha"), time.Now())

	session, err := store.Connect(ctx, remote.Endpoint{Directory: "/out"}, secrets.Credentials{})
	require.NoError(t, err)
	defer session.Close()

	local := filepath.Join(t.TempDir(), "VP_A.zip")
	require.NoError(t, session.Fetch(ctx, "VP_A.zip", local))

	require.NoError(t, session.Put(ctx, local, "/in/VP_A.zip"))
	data, ok := store.File("/in/VP_A.zip")
	require.True(t, ok)
	require.Equal(t, "alpha", string(data))
	require.Equal(t, []string{"/in/VP_A.zip"}, store.Puts())
}

func TestMemoryStoreInjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryStore()
	store.AddFile("/out/VP_A.zip", []byte("alpha"), time.Now())

	boom := errors.New("boom")
	store.FetchErrs["VP_A.zip"] = boom
	store.PutErrs["VP_A.zip"] = boom

	session, err := store.Connect(ctx, remote.Endpoint{Directory: "/out"}, secrets.Credentials{})
	require.NoError(t, err)
	defer session.Close()

	staged := filepath.Join(t.TempDir(), "VP_A.zip")
	err = session.Fetch(ctx, "VP_A.zip", staged)
	require.ErrorIs(t, err, boom)
	_, err = os.Stat(staged)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(staged, []byte("x"), 0644))
	err = session.Put(ctx, staged, "/in/VP_A.zip")
	var terr *remote.TransferError
	require.ErrorAs(t, err, &terr)
	require.Empty(t, store.Puts())

	store.ConnectErr = boom
	_, err = store.Connect(ctx, remote.Endpoint{}, secrets.Credentials{})
	var cerr *remote.ConnectionError
	require.ErrorAs(t, err, &cerr)
}
