package relay

import (
	"sort"
	"strings"
	"time"

	"github.com/studio1767/filerelay/internal/remote"
)

// Pattern matches file names by prefix and suffix. Empty parts match
// anything.
type Pattern struct {
	Prefix string
	Suffix string
}

func (p Pattern) Match(name string) bool {
	return strings.HasPrefix(name, p.Prefix) && strings.HasSuffix(name, p.Suffix)
}

// Select returns the entries matching the pattern whose modification time is
// strictly after the watermark, oldest first. An unknown watermark selects
// nothing.
func Select(entries []remote.Entry, pattern Pattern, watermark time.Time, known bool) []remote.Entry {
	if !known {
		return nil
	}

	var selected []remote.Entry
	for _, entry := range entries {
		if !pattern.Match(entry.Name) {
			continue
		}
		if !entry.ModTime.After(watermark) {
			continue
		}
		selected = append(selected, entry)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].ModTime.Equal(selected[j].ModTime) {
			return selected[i].Name < selected[j].Name
		}
		return selected[i].ModTime.Before(selected[j].ModTime)
	})

	return selected
}
