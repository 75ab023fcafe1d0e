package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

	stamp, err := parseStamp("now", now)
	require.NoError(t, err)
	require.True(t, now.Equal(stamp))

	stamp, err = parseStamp("2024-04-30T23:00:00Z", now)
	require.NoError(t, err)
	require.True(t, time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC).Equal(stamp))

	_, err = parseStamp("yesterday", now)
	require.Error(t, err)
}
