package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Row is one candidate's line in the run report.
type Row struct {
	Name    string
	Size    int64
	ModTime time.Time
	Outcome string
	Stage   string
	Error   string
}

var header = []string{"name", "size", "modified", "outcome", "failed_stage", "error"}

// Write creates the report at fpath. Any existing file is replaced.
func Write(fpath string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
		return err
	}

	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			strconv.FormatInt(row.Size, 10),
			row.ModTime.UTC().Format(time.RFC3339),
			row.Outcome,
			row.Stage,
			row.Error,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed writing entry to report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
