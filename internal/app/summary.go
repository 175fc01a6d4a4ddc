package app

import (
	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/internal/store"
)

// Summary is the final state of a run.
type Summary struct {
	// Records holds the last record of every job, sorted by name.
	Records []store.OperationRecord

	// Succeeded counts operations that reached the succeeded status.
	Succeeded int

	// Failed counts operations that failed, were cancelled by the service,
	// were rejected or timed out.
	Failed int

	// Unfinished counts operations still running when the run was
	// interrupted.
	Unfinished int
}

// OK reports whether every operation succeeded.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Unfinished == 0
}

func newSummary(records []store.OperationRecord) *Summary {
	s := &Summary{Records: records}

	for _, r := range records {
		switch {
		case r.Outcome == longrun.StatusSucceeded.String():
			s.Succeeded++
		case r.Outcome == "interrupted" || !r.Final:
			s.Unfinished++
		default:
			s.Failed++
		}
	}

	return s
}
