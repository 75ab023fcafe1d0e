package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeOnlyMovesForward(t *testing.T) {
	c := &Candidate{}

	require.True(t, c.advance(Downloaded))
	require.True(t, c.advance(Encrypted))
	require.False(t, c.advance(Downloaded))
	require.Equal(t, Encrypted, c.Outcome)

	require.True(t, c.advance(Uploaded))
	require.False(t, c.advance(Encrypted))
	require.Equal(t, Uploaded, c.Outcome)
}

func TestFailedIsTerminal(t *testing.T) {
	c := &Candidate{}
	require.True(t, c.advance(Downloaded))

	c.fail("encrypt", errors.New("no recipient"))
	require.Equal(t, Failed, c.Outcome)
	require.Equal(t, "encrypt", c.Stage)

	require.False(t, c.advance(Uploaded))
	c.fail("upload", errors.New("later"))
	require.Equal(t, "encrypt", c.Stage)
	require.Equal(t, Failed, c.Outcome)
}

func TestStateNames(t *testing.T) {
	require.Equal(t, "processing", ProcessingCandidates.String())
	require.Equal(t, "aborted", Aborted.String())
	require.Equal(t, "uploaded", Uploaded.String())
}
