// =============================================================================
// PO Reporter - Detailed Adjustment Report
// =============================================================================
//
// Detail builds the row-level adjustment report from the combined table. No
// row is dropped or merged; each original row gains a duplicate index within
// its (PO, invoice, invoice line, line amount) group, adjusted line amounts
// (zeroed for duplicates), a per-row conversion rate, and the two derived
// local-currency reconciliation amounts.
//
// Like Aggregate, the function is pure and order-preserving.
//
// =============================================================================

package recon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grnops/po-reporter/internal/combiner"
)

// Detail derives the detailed adjustment report from the combined table.
func Detail(t *combiner.Table) ([]DetailedRow, error) {
	data := dropProvenance(t)

	idx, err := columnIndices(data, []string{
		ColPONumber, ColInvoiceNumber, ColInvoiceLineNumber, ColLineAmount,
		ColLineAmountFunc, ColAmountReceived, ColAmountTransaction, ColAmountFunctional,
	})
	if err != nil {
		return nil, err
	}

	dupCount := make(map[string]int)
	rows := make([]DetailedRow, 0, len(data.Rows))

	for i, cells := range data.Rows {
		lineAmt := numCell(cells[idx[ColLineAmount]])
		lineAmtFunc := numCell(cells[idx[ColLineAmountFunc]])
		received := numCell(cells[idx[ColAmountReceived]])
		transaction := numCell(cells[idx[ColAmountTransaction]])
		functional := numCell(cells[idx[ColAmountFunctional]])

		dupKey := strings.Join([]string{
			keyCell(cells[idx[ColPONumber]]),
			keyCell(cells[idx[ColInvoiceNumber]]),
			keyCell(cells[idx[ColInvoiceLineNumber]]),
			lineAmt.String(),
		}, "\x1f")
		dupCount[dupKey]++

		row := DetailedRow{
			Cells:    append([]string(nil), cells...),
			DupIndex: dupCount[dupKey],
		}
		if row.DupIndex == 1 {
			row.LineAmountAdj = lineAmt
			row.LineAmountFunctionalAdj = lineAmtFunc
		}

		rate, err := conversionRate(functional, transaction, fmt.Sprintf("row %d", i+1))
		if err != nil {
			return nil, err
		}
		row.ConversionRate = rate
		row.AmountReceivedLocal = received.Mul(rate)
		row.GRNAmountLocal = received.Sub(row.LineAmountAdj).Mul(rate)

		rows = append(rows, row)
	}

	return rows, nil
}

// DetailTable renders detailed rows as a table for export: the original
// columns (provenance excluded) followed by the derived columns.
func DetailTable(t *combiner.Table, rows []DetailedRow) *combiner.Table {
	data := dropProvenance(t)

	out := &combiner.Table{
		Columns: append(append([]string(nil), data.Columns...),
			"Dup_ind", "Line_amount_adj", "Invoice_line_amount_in_sar",
			"conversion_rate", "Amount_recieved_in_SAR", "GRN_amount_in_SAR"),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, append(append([]string(nil), r.Cells...),
			decimal.NewFromInt(int64(r.DupIndex)).String(),
			r.LineAmountAdj.String(),
			r.LineAmountFunctionalAdj.String(),
			r.ConversionRate.String(),
			r.AmountReceivedLocal.String(),
			r.GRNAmountLocal.String()))
	}
	return out
}
