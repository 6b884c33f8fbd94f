// =============================================================================
// PO Reporter - Reconciliation Engine Types
// =============================================================================
//
// Shared types and column bindings for the reconciliation engine. The engine
// works on the combined report's own header names; spellings below (including
// "Line Maount in Functional Currency") match the source report exactly and
// must not be "fixed" here, or the engine stops finding its columns.
//
// =============================================================================

package recon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grnops/po-reporter/internal/combiner"
)

// Provenance columns prepended to the combined report. The engine ignores
// them for computation.
const (
	ColReportType     = "Report Type"
	ColDateRange      = "Date Range"
	ColGenerationDate = "Generation Date"
)

// Source report columns.
const (
	ColPONumber          = "Po Number"
	ColChargeAccount     = "POCharge A/c"
	ColSupplier          = "Supplier"
	ColCurrency          = "Currency"
	ColInvoiceNumber     = "Invoice Number"
	ColInvoiceLineNumber = "Invoice Line Number"
	ColLineAmount        = "Line Amount"
	ColLineAmountFunc    = "Line Maount in Functional Currency"

	ColAmountReceived    = "Amount Received"
	ColAmountTransaction = "Amount in transaction Currency"
	ColAmountFunctional  = "Amount in Functional Currency"
)

// groupKeyColumns is the grain of the aggregated report, in output order.
var groupKeyColumns = []string{
	ColPONumber,
	ColChargeAccount,
	ColSupplier,
	ColCurrency,
	ColInvoiceNumber,
	ColInvoiceLineNumber,
	ColLineAmount,
	ColLineAmountFunc,
}

// sumColumns are the numeric fields summed per group, in output order.
var sumColumns = []string{
	ColAmountReceived,
	ColAmountTransaction,
	ColAmountFunctional,
}

// AggregatedRow is one row of the aggregated reconciliation summary: one
// distinct group key with summed amounts and derived reconciliation fields.
type AggregatedRow struct {
	PONumber          string
	ChargeAccount     string
	Supplier          string
	Currency          string
	InvoiceNumber     string
	InvoiceLineNumber string

	// LineAmount and LineAmountFunctional are part of the group key. After
	// duplicate handling they are zeroed on every row but the first of each
	// (PO, invoice, invoice line) sub-group.
	LineAmount           decimal.Decimal
	LineAmountFunctional decimal.Decimal

	AmountReceived    decimal.Decimal
	AmountTransaction decimal.Decimal
	AmountFunctional  decimal.Decimal

	ConversionRate decimal.Decimal
	Diff           decimal.Decimal
	DiffLocal      decimal.Decimal
}

// DetailedRow is one row of the detailed adjustment report: the original
// combined row plus its duplicate index and derived amounts. Row count is
// preserved; duplicates are adjusted, never removed.
type DetailedRow struct {
	// Cells are the original row's cells, provenance columns excluded.
	Cells []string

	// DupIndex is the 1-based position of this row within its
	// (PO, invoice, invoice line, line amount) duplicate group.
	DupIndex int

	LineAmountAdj           decimal.Decimal
	LineAmountFunctionalAdj decimal.Decimal

	ConversionRate      decimal.Decimal
	AmountReceivedLocal decimal.Decimal
	GRNAmountLocal      decimal.Decimal
}

// RateUndefinedError indicates a conversion rate could not be computed: the
// transaction-currency amount is zero while the functional-currency amount is
// not. The 0/0 case is defined as rate 1; this one is a data error and fails
// the run rather than masking bad source data with a silent default.
type RateUndefinedError struct {
	Where      string
	Functional decimal.Decimal
}

func (e *RateUndefinedError) Error() string {
	return fmt.Sprintf("conversion rate undefined at %s: functional amount %s with zero transaction amount",
		e.Where, e.Functional)
}

// conversionRate computes functional/transaction with the 0/0 -> 1 rule. The
// same rule applies in both the aggregated and the detailed report.
func conversionRate(functional, transaction decimal.Decimal, where string) (decimal.Decimal, error) {
	if transaction.IsZero() {
		if functional.IsZero() {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Decimal{}, &RateUndefinedError{Where: where, Functional: functional}
	}
	return functional.Div(transaction), nil
}

// dropProvenance returns the table without the provenance columns, leaving
// the input untouched.
func dropProvenance(t *combiner.Table) *combiner.Table {
	drop := map[string]bool{
		ColReportType:     true,
		ColDateRange:      true,
		ColGenerationDate: true,
	}

	var keep []int
	out := &combiner.Table{}
	for i, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(keep))
		for _, i := range keep {
			cells = append(cells, row[i])
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// columnIndices resolves required column names to positions.
func columnIndices(t *combiner.Table, names []string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for _, name := range names {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("combined report is missing column %q", name)
		}
		idx[name] = i
	}
	return idx, nil
}

// keyCell normalizes a group-key cell: trimmed, blank mapped to "0" so a
// missing value groups as zero rather than as a distinct unknown.
func keyCell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0"
	}
	return s
}

// numCell parses a numeric cell; blank or unparseable cells normalize to
// zero.
func numCell(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
