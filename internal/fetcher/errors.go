package fetcher

import (
	"errors"
	"fmt"

	"github.com/grnops/po-reporter/internal/bip"
)

// ErrNoOutput indicates a job instance finished with no output descriptor to
// download.
var ErrNoOutput = errors.New("no output found for job instance")

// ErrNoOutputID indicates an output descriptor without an output id, which
// makes the document unfetchable.
var ErrNoOutputID = errors.New("output descriptor has no output id")

// SubmissionError indicates the remote service rejected the request or did
// not return an identifiable job id.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report submission failed: %v", e.Err)
	}
	return "report submission failed: no job id returned"
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// JobFailedError indicates the remote service reported a terminal failure
// state for the job.
type JobFailedError struct {
	JobID  string
	Status bip.JobState
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed with status %s", e.JobID, e.Status)
}

// TimeoutError indicates the polling budget elapsed before the job reached a
// terminal state.
type TimeoutError struct {
	JobID string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for job %s", e.JobID)
}

// ResolutionError indicates the instance id could not be resolved and the
// arithmetic fallback was impossible (non-numeric job id).
type ResolutionError struct {
	JobID string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve instance id for job %s: %v", e.JobID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
