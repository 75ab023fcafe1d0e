package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

type ErrLocked struct {
	path string
}

func (e *ErrLocked) Error() string {
	return fmt.Sprintf("another run holds the lock %s", e.path)
}

// Lock is an advisory, process level lock on a file. It keeps two runs from
// sharing the same watermark.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock without waiting.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, &ErrLocked{path: path}
	}
	return &Lock{fl: fl}, nil
}

func (l *Lock) Release() error {
	return l.fl.Unlock()
}
