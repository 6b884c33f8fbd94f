// =============================================================================
// PO Reporter - Export Formatter
// =============================================================================
//
// Serializes the three derived tables to CSV and names the files
// deterministically:
//
//   <Label>_PO_Report_<fromdigits>_to_<todigits>_<YYYYMMDD_HHMMSS>.csv
//
// The timestamp has second resolution, so repeated invocations collide only
// when they run within the same second. That weak uniqueness bound is
// deliberate and matches how the reports are consumed (one manual run at a
// time).
//
// =============================================================================

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/grnops/po-reporter/internal/combiner"
)

// Report labels used in output file names.
const (
	LabelCombined = "Combined"
	LabelSummary  = "Processed"
	LabelDetailed = "ProcessedDetailed"
)

// Exporter serializes tables for delivery. The zero value uses the wall
// clock; tests pin Now.
type Exporter struct {
	// Now supplies the generation timestamp. Defaults to time.Now.
	Now func() time.Time
}

// FileName builds the deterministic output name for one report.
func (e *Exporter) FileName(label, fromDate, toDate string) string {
	return fmt.Sprintf("%s_PO_Report_%s_to_%s_%s.csv",
		label,
		strings.ReplaceAll(fromDate, "-", ""),
		strings.ReplaceAll(toDate, "-", ""),
		e.now().Format("20060102_150405"))
}

// Encode serializes one table as CSV: header row then data rows, columns in
// table order. Numeric cells are expected to already be rendered in plain
// decimal form (decimal.String does that); the encoder never reformats them.
func (e *Exporter) Encode(t *combiner.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Export serializes the three tables under their delivery names. All three
// encode or none do; a partial set is never returned.
func (e *Exporter) Export(combined, summary, detailed *combiner.Table, fromDate, toDate string) (map[string][]byte, error) {
	out := make(map[string][]byte, 3)
	for _, r := range []struct {
		label string
		table *combiner.Table
	}{
		{LabelCombined, combined},
		{LabelSummary, summary},
		{LabelDetailed, detailed},
	} {
		data, err := e.Encode(r.table)
		if err != nil {
			return nil, fmt.Errorf("encode %s report: %w", r.label, err)
		}
		out[e.FileName(r.label, fromDate, toDate)] = data
	}
	return out, nil
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
