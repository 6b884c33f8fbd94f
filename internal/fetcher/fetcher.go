// =============================================================================
// PO Reporter - Artifact Retriever
// =============================================================================
//
// This module drives the asynchronous job lifecycle against the remote report
// service: submit a generation request, poll the job until it reaches a
// terminal state, resolve the job's instance id, and download the raw
// spreadsheet artifact.
//
// LIFECYCLE:
//   Submit -> AwaitCompletion (poll loop) -> ResolveInstanceID -> Download
//
// FAILURE SEMANTICS:
//   - Transient errors while querying status are swallowed and retried until
//     the polling budget runs out. The only thing the loop ever retries is
//     the status query; it never re-submits.
//   - Submission and download errors propagate immediately.
//   - Instance-id resolution degrades to an arithmetic fallback (job id + 1)
//     rather than failing. The fallback leans on undocumented id-assignment
//     behavior of the remote service, so its result is tagged as a guess and
//     logged; callers can tell a verified resolution from a degraded one.
//
// =============================================================================

package fetcher

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grnops/po-reporter/internal/bip"
)

// Resolution is the result of mapping a job id to an instance id.
type Resolution struct {
	JobID      string
	InstanceID string

	// Fallback is true when the instance id was not returned by the service
	// but derived as job id + 1. Such a resolution is lower-confidence.
	Fallback bool
}

// Fetcher retrieves report artifacts from a bip.Service. It holds no mutable
// state beyond its configuration; a single Fetcher is safe for concurrent
// jobs as long as each job is tracked by its own ids.
type Fetcher struct {
	svc          bip.Service
	log          *zap.Logger
	pollInterval time.Duration
	timeout      time.Duration
}

// New creates a Fetcher polling at pollInterval with an overall per-job wait
// budget of timeout.
func New(svc bip.Service, pollInterval, timeout time.Duration, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		svc:          svc,
		log:          log,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Submit schedules the report and returns the assigned job id.
func (f *Fetcher) Submit(ctx context.Context, req bip.ReportRequest) (string, error) {
	jobID, err := f.svc.SubmitJob(ctx, req)
	if err != nil {
		return "", &SubmissionError{Err: err}
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", &SubmissionError{}
	}
	f.log.Info("report scheduled",
		zap.String("jobID", jobID),
		zap.String("fromDate", req.FromDate),
		zap.String("toDate", req.ToDate))
	return jobID, nil
}

// AwaitCompletion polls the job status until a terminal state or until the
// polling budget elapses, then resolves the instance id on success.
//
// The deadline is checked at the top of each iteration, so once it passes no
// further remote calls are made. Cancellation via ctx is honored before every
// status query and before every sleep.
func (f *Fetcher) AwaitCompletion(ctx context.Context, jobID string) (Resolution, error) {
	deadline := time.Now().Add(f.timeout)

	for {
		if time.Now().After(deadline) {
			return Resolution{}, &TimeoutError{JobID: jobID}
		}
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		state, err := f.svc.JobStatus(ctx, jobID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Resolution{}, ctx.Err()
			}
			// Transient; retry on the next tick.
			f.log.Debug("status query failed, will retry",
				zap.String("jobID", jobID), zap.Error(err))
		case state.Success():
			if state == bip.StateSucceededWithWarnings {
				f.log.Warn("job finished with warnings, output still downloadable",
					zap.String("jobID", jobID))
			}
			return f.ResolveInstanceID(ctx, jobID)
		case state.Failure():
			return Resolution{}, &JobFailedError{JobID: jobID, Status: state}
		default:
			f.log.Debug("job still running",
				zap.String("jobID", jobID), zap.String("state", string(state)))
		}

		select {
		case <-ctx.Done():
			return Resolution{}, ctx.Err()
		case <-time.After(f.pollInterval):
		}
	}
}

// ResolveInstanceID maps a job id to the job's first instance id as reported
// by the service. When the service errors or reports no instances, it falls
// back to job id + 1 and tags the result accordingly. A job id that is not an
// integer makes the fallback impossible and resolution fails.
func (f *Fetcher) ResolveInstanceID(ctx context.Context, jobID string) (Resolution, error) {
	ids, err := f.svc.JobInstances(ctx, jobID)
	if err == nil && len(ids) > 0 {
		f.log.Info("resolved job to instance",
			zap.String("jobID", jobID), zap.String("instanceID", ids[0]))
		return Resolution{JobID: jobID, InstanceID: ids[0]}, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		f.log.Warn("could not list job instances",
			zap.String("jobID", jobID), zap.Error(err))
	}

	n, convErr := strconv.ParseInt(strings.TrimSpace(jobID), 10, 64)
	if convErr != nil {
		return Resolution{}, &ResolutionError{JobID: jobID, Err: convErr}
	}
	fallback := strconv.FormatInt(n+1, 10)
	f.log.Warn("using fallback instance id (job id + 1)",
		zap.String("jobID", jobID), zap.String("instanceID", fallback))
	return Resolution{JobID: jobID, InstanceID: fallback, Fallback: true}, nil
}

// Download fetches the raw artifact of a job instance: the first output
// descriptor's document, base64-decoded when it arrives text-encoded.
func (f *Fetcher) Download(ctx context.Context, instanceID string) ([]byte, error) {
	outputs, err := f.svc.JobOutputs(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, ErrNoOutput
	}

	output := outputs[0]
	if output.ID == "" {
		return nil, ErrNoOutputID
	}

	doc, err := f.svc.FetchDocument(ctx, output.ID)
	if err != nil {
		return nil, err
	}
	if doc.Raw != nil {
		return doc.Raw, nil
	}
	return decodeBase64Payload(doc.Base64)
}

// Fetch runs the full retrieval: submit, await completion, download. It
// returns the job id alongside the artifact so callers can re-download later.
func (f *Fetcher) Fetch(ctx context.Context, req bip.ReportRequest) (string, []byte, error) {
	jobID, err := f.Submit(ctx, req)
	if err != nil {
		return "", nil, err
	}
	res, err := f.AwaitCompletion(ctx, jobID)
	if err != nil {
		return jobID, nil, err
	}
	data, err := f.Download(ctx, res.InstanceID)
	if err != nil {
		return jobID, nil, err
	}
	f.log.Info("artifact downloaded",
		zap.String("jobID", jobID),
		zap.String("instanceID", res.InstanceID),
		zap.Bool("fallbackResolution", res.Fallback),
		zap.Int("bytes", len(data)))
	return jobID, data, nil
}

// decodeBase64Payload decodes a text document payload. Payloads sometimes
// arrive with their trailing padding stripped, so it is restored to the next
// multiple of four before decoding.
func decodeBase64Payload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if missing := len(payload) % 4; missing != 0 {
		payload += strings.Repeat("=", 4-missing)
	}
	return base64.StdEncoding.DecodeString(payload)
}
