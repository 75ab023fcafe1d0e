// Package watermark persists the time of the last fully successful run.
//
// The file holds a single RFC 3339 timestamp and nothing else. A missing or
// unreadable file is reported as unknown rather than as an error so that
// callers can refuse to process anything until an operator sets it.
package watermark

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// PersistError reports a watermark that could not be durably written.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist watermark to %s: %s", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type File struct {
	path   string
	logger log.FieldLogger
}

func New(path string, logger log.FieldLogger) *File {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &File{path: path, logger: logger}
}

func (f *File) Path() string {
	return f.path
}

// Read returns the stored watermark. The boolean is false when the file is
// absent or its content is not a timestamp.
func (f *File) Read() (time.Time, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.WithField("path", f.path).Warn("No watermark file; treating last run as unknown")
		} else {
			f.logger.WithField("path", f.path).WithError(err).Error("Unable to read watermark; treating last run as unknown")
		}
		return time.Time{}, false
	}

	text := strings.TrimSpace(string(data))
	stamp, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		f.logger.WithField("path", f.path).WithError(err).Errorf("Malformed watermark %q; treating last run as unknown", text)
		return time.Time{}, false
	}

	return stamp, true
}

// Write replaces the stored watermark. The new content goes to a temporary
// file in the same directory which is synced and renamed over the old one.
func (f *File) Write(stamp time.Time) error {
	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return &PersistError{Path: f.path, Err: err}
	}
	defer os.Remove(tmp.Name())

	_, err = fmt.Fprintln(tmp, stamp.UTC().Format(time.RFC3339Nano))
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &PersistError{Path: f.path, Err: err}
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return &PersistError{Path: f.path, Err: err}
	}
	return nil
}
