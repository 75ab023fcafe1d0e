package remote

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersTallyBytes(t *testing.T) {
	data := make([]byte, 5*1024+17)
	_, err := rand.Read(data)
	require.NoError(t, err)

	out := bytes.NewBuffer(nil)
	cw := &countingWriter{out: out}
	cr := &countingReader{in: bytes.NewReader(data)}

	_, err = io.Copy(cw, cr)
	require.NoError(t, err)

	require.Equal(t, int64(len(data)), cr.bytes)
	require.Equal(t, int64(len(data)), cw.bytes)
	require.Equal(t, data, out.Bytes())
}

func TestCheckSize(t *testing.T) {
	require.NoError(t, checkSize(-1, 10))
	require.NoError(t, checkSize(10, 10))

	var short *ErrShortTransfer
	require.True(t, errors.As(checkSize(10, 7), &short))
	require.Equal(t, "transferred 7 bytes, expected 10", short.Error())
}

func TestSaveFileRejectsShortTransfer(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "VP_A.zip")

	_, err := saveFile(local, bytes.NewReader([]byte("trunc")), 100)
	var short *ErrShortTransfer
	require.ErrorAs(t, err, &short)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, left)

	n, err := saveFile(local, bytes.NewReader([]byte("complete")), 8)
	require.NoError(t, err)
	require.Equal(t, int64(8), n)
}
