package relay_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studio1767/filerelay/internal/relay"
	"github.com/studio1767/filerelay/internal/remote"
)

func at(seconds int) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}

func names(entries []remote.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestSelectByPatternAndWatermark(t *testing.T) {
	entries := []remote.Entry{
		{Name: "VP_A.zip", ModTime: at(100)},
		{Name: "VP_B.zip", ModTime: at(200)},
		{Name: "NOTES.txt", ModTime: at(300)},
	}

	selected := relay.Select(entries, relay.Pattern{Prefix: "VP_"}, at(150), true)
	require.Equal(t, []string{"VP_B.zip"}, names(selected))
}

func TestSelectIsStrictlyAfterWatermark(t *testing.T) {
	entries := []remote.Entry{
		{Name: "VP_A.zip", ModTime: at(150)},
		{Name: "VP_B.zip", ModTime: at(151)},
	}

	selected := relay.Select(entries, relay.Pattern{Prefix: "VP_"}, at(150), true)
	require.Equal(t, []string{"VP_B.zip"}, names(selected))
}

func TestSelectUnknownWatermarkSelectsNothing(t *testing.T) {
	var entries []remote.Entry
	for i := 0; i < 5; i++ {
		entries = append(entries, remote.Entry{Name: "VP_" + string(rune('A'+i)) + ".zip", ModTime: at(1000 + i)})
	}

	require.Empty(t, relay.Select(entries, relay.Pattern{Prefix: "VP_"}, time.Time{}, false))
}

func TestSelectOrdersOldestFirst(t *testing.T) {
	entries := []remote.Entry{
		{Name: "VP_C.zip", ModTime: at(300)},
		{Name: "VP_B.zip", ModTime: at(200)},
		{Name: "VP_A.zip", ModTime: at(200)},
	}

	selected := relay.Select(entries, relay.Pattern{Prefix: "VP_", Suffix: ".zip"}, at(0), true)
	require.Equal(t, []string{"VP_A.zip", "VP_B.zip", "VP_C.zip"}, names(selected))
}

func TestPatternSuffix(t *testing.T) {
	p := relay.Pattern{Prefix: "VP_", Suffix: ".zip"}
	require.True(t, p.Match("VP_2024.zip"))
	require.False(t, p.Match("VP_2024.zip.tmp"))
	require.False(t, p.Match("XP_2024.zip"))
	require.True(t, relay.Pattern{}.Match("anything"))
}

func TestStagingPathIsUnique(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

	first := relay.StagingPath("/staging", "VP_A.zip", now)
	second := relay.StagingPath("/staging", "VP_A.zip", now)

	require.NotEqual(t, first, second)
	require.Equal(t, "/staging", filepath.Dir(first))
	require.Regexp(t, `^VP_A_20240501_101500_[0-9a-f]{8}\.zip$`, filepath.Base(first))
}
