// =============================================================================
// PO Reporter - Sheet Combiner
// =============================================================================
//
// This module normalizes the raw multi-sheet spreadsheet artifact into one
// homogeneous table. The report service splits large exports across sheets:
// the first sheet carries the header row, continuation sheets carry bare data
// rows. The first sheet's columns are the canonical schema; continuation
// sheets whose column count differs are dropped and the skip is recorded, not
// treated as a failure.
//
// =============================================================================

package combiner

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a homogeneous table: one header schema and rows that all share its
// column cardinality.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// SheetSkip records a continuation sheet dropped for a schema mismatch.
type SheetSkip struct {
	Sheet    string
	Expected int
	Actual   int
}

func (s SheetSkip) String() string {
	return fmt.Sprintf("skipped sheet %q: expected %d columns, got %d", s.Sheet, s.Expected, s.Actual)
}

// EmptyArtifactError indicates the artifact has no usable tabular content.
type EmptyArtifactError struct {
	Reason string
}

func (e *EmptyArtifactError) Error() string {
	return "empty artifact: " + e.Reason
}

// Result is the combined table plus the skip events observed while building
// it.
type Result struct {
	Table *Table
	Skips []SheetSkip
}

// Combine reads a multi-sheet spreadsheet artifact and concatenates its
// sheets under the first sheet's header schema.
//
// The first sheet's header cells are whitespace-trimmed and become the
// canonical columns. Every subsequent sheet is read without a header; when
// its widest row does not match the canonical column count the sheet is
// skipped and recorded, otherwise its rows are appended in order. Rows
// shorter than the schema are padded with empty cells (trailing empty cells
// are not materialized by the reader).
func Combine(artifact []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(artifact))
	if err != nil {
		return nil, &EmptyArtifactError{Reason: fmt.Sprintf("cannot parse spreadsheet: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &EmptyArtifactError{Reason: "no sheets"}
	}

	first, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &EmptyArtifactError{Reason: fmt.Sprintf("cannot read first sheet: %v", err)}
	}
	if len(first) == 0 || isBlankRow(first[0]) {
		return nil, &EmptyArtifactError{Reason: "first sheet has no header row"}
	}

	columns := make([]string, len(first[0]))
	for i, c := range first[0] {
		columns[i] = strings.TrimSpace(c)
	}

	table := &Table{Columns: columns}
	for _, row := range first[1:] {
		table.Rows = append(table.Rows, padRow(row, len(columns)))
	}

	var skips []SheetSkip
	for _, sheet := range sheets[1:] {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		if width := sheetWidth(rows); width != len(columns) {
			skips = append(skips, SheetSkip{Sheet: sheet, Expected: len(columns), Actual: width})
			continue
		}
		for _, row := range rows {
			table.Rows = append(table.Rows, padRow(row, len(columns)))
		}
	}

	return &Result{Table: table, Skips: skips}, nil
}

// sheetWidth is the widest row of a sheet, the sheet's effective column
// count.
func sheetWidth(rows [][]string) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// padRow extends a row to the schema width with empty cells.
func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
