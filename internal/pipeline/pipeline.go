// =============================================================================
// PO Reporter - Report Pipeline
// =============================================================================
//
// The pipeline is the session-scoped orchestrator: one invocation owns its
// artifact and derived tables end to end, and the pipeline itself holds no
// mutable state between invocations.
//
// DATA FLOW:
//   fetcher -> raw bytes -> combiner -> combined table (+provenance columns)
//           -> recon {aggregated, detailed} -> export -> named CSV blobs
//
// Either all three reports are produced from a combined table, or none are;
// a failing stage never leaves partial outputs in the result.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grnops/po-reporter/internal/bip"
	"github.com/grnops/po-reporter/internal/combiner"
	"github.com/grnops/po-reporter/internal/config"
	"github.com/grnops/po-reporter/internal/export"
	"github.com/grnops/po-reporter/internal/fetcher"
	"github.com/grnops/po-reporter/internal/recon"
)

// RunOptions parameterize one pipeline invocation.
type RunOptions struct {
	// FromDate and ToDate bound the report, in MM-DD-YYYY form.
	FromDate string
	ToDate   string

	// Process derives the three CSV reports from the raw artifact. When
	// false the raw artifact alone is returned.
	Process bool
}

// Result is everything one invocation produced.
type Result struct {
	JobID string

	// Raw is the downloaded artifact.
	Raw []byte

	// Reports maps delivery file names to CSV bytes. Empty when the
	// invocation did not process.
	Reports map[string][]byte

	// Skips records continuation sheets dropped during combination.
	Skips []combiner.SheetSkip
}

// Pipeline wires the fetcher and the processing stages for one configured
// report.
type Pipeline struct {
	fetcher  *fetcher.Fetcher
	exporter *export.Exporter
	cfg      *config.Config
	log      *zap.Logger
}

// New builds a pipeline over the given report service.
func New(svc bip.Service, cfg *config.Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher.New(svc, cfg.Polling.Interval(), cfg.Polling.Timeout(), log),
		exporter: &export.Exporter{},
		cfg:      cfg,
		log:      log,
	}
}

// Run schedules the report, waits for it, downloads the artifact, and
// optionally derives the three reports.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.FromDate == "" {
		opts.FromDate = p.cfg.Report.DefaultFromDate
	}
	if opts.ToDate == "" {
		opts.ToDate = time.Now().Format("01-02-2006")
	}

	req := bip.ReportRequest{
		BusinessUnit: p.cfg.Report.BusinessUnit,
		PONumber:     p.cfg.Report.PONumber,
		FromDate:     opts.FromDate,
		ToDate:       opts.ToDate,
	}

	jobID, raw, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{JobID: jobID, Raw: raw}
	if !opts.Process {
		return result, nil
	}

	reports, skips, err := p.ProcessArtifact(raw, opts.FromDate, opts.ToDate)
	if err != nil {
		return nil, err
	}
	result.Reports = reports
	result.Skips = skips
	return result, nil
}

// DownloadExisting retrieves the artifact of a previously scheduled job by
// its id, without submitting anything, and optionally processes it.
func (p *Pipeline) DownloadExisting(ctx context.Context, jobID string, opts RunOptions) (*Result, error) {
	res, err := p.fetcher.ResolveInstanceID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	raw, err := p.fetcher.Download(ctx, res.InstanceID)
	if err != nil {
		return nil, err
	}

	result := &Result{JobID: jobID, Raw: raw}
	if !opts.Process {
		return result, nil
	}

	fromDate := opts.FromDate
	if fromDate == "" {
		fromDate = p.cfg.Report.DefaultFromDate
	}
	toDate := opts.ToDate
	if toDate == "" {
		toDate = time.Now().Format("01-02-2006")
	}

	reports, skips, err := p.ProcessArtifact(raw, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	result.Reports = reports
	result.Skips = skips
	return result, nil
}

// ProcessArtifact turns one raw artifact into the three named CSV reports.
// It is deterministic for a given artifact, date range, and clock second.
func (p *Pipeline) ProcessArtifact(raw []byte, fromDate, toDate string) (map[string][]byte, []combiner.SheetSkip, error) {
	combined, err := combiner.Combine(raw)
	if err != nil {
		return nil, nil, err
	}
	for _, skip := range combined.Skips {
		p.log.Warn("dropped continuation sheet",
			zap.String("sheet", skip.Sheet),
			zap.Int("expectedColumns", skip.Expected),
			zap.Int("actualColumns", skip.Actual))
	}

	combinedTable := withProvenance(combined.Table, "Combined", fromDate, toDate, time.Now())

	aggregated, err := recon.Aggregate(combinedTable, p.cfg.Reconciliation.ExemptPONumbers)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate report: %w", err)
	}
	detailed, err := recon.Detail(combinedTable)
	if err != nil {
		return nil, nil, fmt.Errorf("detailed report: %w", err)
	}

	now := time.Now()
	summaryTable := withProvenance(recon.AggregateTable(aggregated), "Processed", fromDate, toDate, now)
	detailTable := withProvenance(recon.DetailTable(combinedTable, detailed), "ProcessedDetailed", fromDate, toDate, now)

	reports, err := p.exporter.Export(combinedTable, summaryTable, detailTable, fromDate, toDate)
	if err != nil {
		return nil, nil, err
	}

	p.log.Info("reports generated",
		zap.Int("combinedRows", len(combinedTable.Rows)),
		zap.Int("aggregatedRows", len(aggregated)),
		zap.Int("detailedRows", len(detailed)),
		zap.Int("skippedSheets", len(combined.Skips)))
	return reports, combined.Skips, nil
}

// withProvenance prepends the three provenance columns to a table.
func withProvenance(t *combiner.Table, reportType, fromDate, toDate string, at time.Time) *combiner.Table {
	dateRange := fromDate + " to " + toDate
	generated := at.Format("2006-01-02 15:04:05")

	out := &combiner.Table{
		Columns: append([]string{recon.ColReportType, recon.ColDateRange, recon.ColGenerationDate},
			t.Columns...),
	}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append([]string{reportType, dateRange, generated}, row...))
	}
	return out
}
