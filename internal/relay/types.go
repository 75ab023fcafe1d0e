package relay

import (
	"time"

	"github.com/studio1767/filerelay/internal/remote"
)

// RunState is the orchestrator's position in a run.
type RunState int

const (
	Idle RunState = iota
	Connecting
	Listing
	Selecting
	ProcessingCandidates
	Finalizing
	Done
	Aborted
)

var stateNames = []string{
	"idle",
	"connecting",
	"listing",
	"selecting",
	"processing",
	"finalizing",
	"done",
	"aborted",
}

func (s RunState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Outcome is how far a candidate got through the pipeline. Outcomes only
// move forward; Failed is terminal.
type Outcome int

const (
	Pending Outcome = iota
	Downloaded
	Encrypted
	Uploaded
	Failed
)

var outcomeNames = []string{"pending", "downloaded", "encrypted", "uploaded", "failed"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Candidate is a remote file selected for this run.
type Candidate struct {
	Entry         remote.Entry
	LocalPath     string
	EncryptedPath string
	RemotePath    string
	Outcome       Outcome

	// Stage and Err are set when the candidate failed.
	Stage string
	Err   error
}

func (c *Candidate) advance(o Outcome) bool {
	if c.Outcome == Failed || o <= c.Outcome {
		return false
	}
	c.Outcome = o
	return true
}

func (c *Candidate) fail(stage string, err error) {
	if c.Outcome == Failed {
		return
	}
	c.Outcome = Failed
	c.Stage = stage
	c.Err = err
}

// RunResult is the aggregate outcome of a run.
type RunResult struct {
	ID    string
	State RunState

	// Err is set when the run aborted, or when the run could not record its
	// progress.
	Err error

	Listed     int
	Candidates []*Candidate

	// ListedAt is the clock reading taken just before the source was listed.
	ListedAt time.Time

	WatermarkBefore time.Time
	WatermarkKnown  bool
	WatermarkAfter  time.Time
	Advanced        bool

	Notified int

	Started  time.Time
	Finished time.Time
}

// Failed returns the candidates that did not reach Uploaded.
func (r *RunResult) Failed() []*Candidate {
	var failed []*Candidate
	for _, c := range r.Candidates {
		if c.Outcome != Uploaded {
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *RunResult) Uploaded() []*Candidate {
	var uploaded []*Candidate
	for _, c := range r.Candidates {
		if c.Outcome == Uploaded {
			uploaded = append(uploaded, c)
		}
	}
	return uploaded
}

// Succeeded is true for a completed run with no failed candidates. A run
// with nothing to do counts as a success.
func (r *RunResult) Succeeded() bool {
	return r.State == Done && r.Err == nil && len(r.Failed()) == 0
}
