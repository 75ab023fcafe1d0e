package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup creates a logger that writes to stderr and to a dated file in dir,
// named "<program> - <YYYY-MM-DD>.log". The returned closer closes the file.
func Setup(dir, program, level string, now time.Time) (*log.Logger, io.Closer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fname := fmt.Sprintf("%s - %s.log", program, now.Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, fname), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New()
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   true,
		TimestampFormat: time.RFC3339,
	})
	logger.SetLevel(lvl)

	return logger, f, nil
}
