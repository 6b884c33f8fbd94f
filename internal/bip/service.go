// =============================================================================
// PO Reporter - Report Service Boundary
// =============================================================================
//
// This package defines the boundary to the remote report-generation service
// (Oracle BI Publisher ScheduleService or anything shaped like it). The rest
// of the application depends only on the Service interface; the SOAP client
// in soap.go is one implementation of it.
//
// The five operations mirror the remote service's lifecycle:
//   SubmitJob     -> job id (assigned synchronously)
//   JobStatus     -> current job state
//   JobInstances  -> instance ids for a submitted job
//   JobOutputs    -> output descriptors for a job instance
//   FetchDocument -> document content for an output id
//
// =============================================================================

package bip

import "context"

// ReportRequest describes one report generation request. It is immutable once
// submitted.
type ReportRequest struct {
	// BusinessUnit is the value of the report's business-group parameter,
	// e.g. "Saudi Arabia BU".
	BusinessUnit string

	// PONumber filters the report to matching purchase orders. The remote
	// service accepts "*" as a wildcard.
	PONumber string

	// FromDate and ToDate bound the report's date range, in the MM-DD-YYYY
	// form the remote service expects.
	FromDate string
	ToDate   string

	// UserJobName is the display name the job is scheduled under. Optional;
	// the client generates one when empty.
	UserJobName string
}

// Output describes one output artifact produced by a job instance.
type Output struct {
	// ID is the output identifier used to fetch the document. Empty when the
	// remote descriptor carried no id.
	ID string

	// Name is the remote display name of the output, when provided.
	Name string

	// ContentType is the remote content type of the output, when provided.
	ContentType string
}

// Document is the content of one job output. Exactly one of Raw and Base64 is
// populated: the remote service returns either raw bytes or a text-encoded
// payload depending on transport.
type Document struct {
	Raw    []byte
	Base64 string
}

// Service is the remote report service as seen by the core pipeline.
// Implementations own transport and authentication; callers own polling,
// retries, and interpretation of states.
type Service interface {
	// SubmitJob schedules a report and returns the job id.
	SubmitJob(ctx context.Context, req ReportRequest) (string, error)

	// JobStatus returns the current state of a submitted job.
	JobStatus(ctx context.Context, jobID string) (JobState, error)

	// JobInstances returns the instance ids associated with a job, in the
	// order the remote service reports them.
	JobInstances(ctx context.Context, jobID string) ([]string, error)

	// JobOutputs returns the output descriptors of a job instance, in the
	// order the remote service reports them.
	JobOutputs(ctx context.Context, instanceID string) ([]Output, error)

	// FetchDocument returns the content of one output.
	FetchDocument(ctx context.Context, outputID string) (*Document, error)
}
