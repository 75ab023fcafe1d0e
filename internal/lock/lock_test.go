package lock_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/lock"
)

func TestSecondAcquireFails(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "last_run.txt.lock")

	first, err := lock.Acquire(fpath)
	require.NoError(t, err)

	_, err = lock.Acquire(fpath)
	var locked *lock.ErrLocked
	require.ErrorAs(t, err, &locked)

	require.NoError(t, first.Release())

	again, err := lock.Acquire(fpath)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}
