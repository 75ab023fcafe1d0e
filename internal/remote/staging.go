package remote

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// saveFile streams reader into localPath through a temporary sibling file.
// The rename only happens after the copy and the sync succeed, so a file at
// localPath is always complete. If expected is not negative the byte count
// must match it.
func saveFile(localPath string, reader io.Reader, expected int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmpfile := fmt.Sprintf("%s.part-%s", localPath, uuid.NewString()[:8])
	out, err := os.OpenFile(tmpfile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create staging file: %w", err)
	}

	counter := &countingWriter{out: out}

	_, err = io.Copy(counter, reader)
	if err == nil {
		err = checkSize(expected, counter.bytes)
	}
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpfile)
		return 0, err
	}

	if err := os.Rename(tmpfile, localPath); err != nil {
		os.Remove(tmpfile)
		return 0, err
	}

	return counter.bytes, nil
}
