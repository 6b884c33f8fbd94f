// =============================================================================
// PO Reporter - Aggregated Reconciliation Report
// =============================================================================
//
// Aggregate builds the summary reconciliation report from the combined table:
//
//   1. Normalize missing key and numeric fields to zero.
//   2. Group by the 8-field group key; sum the three amount columns.
//   3. Stable-sort groups by PO number (primary key only).
//   4. Compute the conversion rate per group (0/0 -> 1).
//   5. Within each (PO, invoice, invoice line) sub-group, zero the line
//      amounts on every row after the first, so physically duplicated report
//      lines are not double-counted while the group rows survive.
//   6. diff = line amount - amount received; diff in local = diff * rate.
//   7. Force diff in local to zero for exempted PO numbers (a business
//      override supplied by configuration, not a rule of the algorithm).
//
// The function is pure: identical input rows in identical order always
// produce identical output.
//
// =============================================================================

package recon

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grnops/po-reporter/internal/combiner"
)

// Aggregate derives the aggregated summary from the combined table. exempt is
// the set of PO numbers whose diff-in-local-currency is forced to zero.
func Aggregate(t *combiner.Table, exempt []string) ([]AggregatedRow, error) {
	data := dropProvenance(t)

	idx, err := columnIndices(data, append(append([]string{}, groupKeyColumns...), sumColumns...))
	if err != nil {
		return nil, err
	}

	type group struct {
		keys        [8]string
		lineAmt     decimal.Decimal
		lineAmtFunc decimal.Decimal
		received    decimal.Decimal
		transaction decimal.Decimal
		functional  decimal.Decimal
	}

	// Group in first-encounter order so ties under the PO-number sort keep a
	// deterministic, input-derived order.
	var order []string
	groups := make(map[string]*group)

	for _, row := range data.Rows {
		var keys [8]string
		for i, col := range groupKeyColumns {
			cell := row[idx[col]]
			switch col {
			case ColLineAmount, ColLineAmountFunc:
				// Amount keys compare numerically: "100" and "100.00" are the
				// same line amount.
				keys[i] = numCell(cell).String()
			default:
				keys[i] = keyCell(cell)
			}
		}

		mapKey := strings.Join(keys[:], "\x1f")
		g, ok := groups[mapKey]
		if !ok {
			g = &group{
				keys:        keys,
				lineAmt:     numCell(row[idx[ColLineAmount]]),
				lineAmtFunc: numCell(row[idx[ColLineAmountFunc]]),
			}
			groups[mapKey] = g
			order = append(order, mapKey)
		}
		g.received = g.received.Add(numCell(row[idx[ColAmountReceived]]))
		g.transaction = g.transaction.Add(numCell(row[idx[ColAmountTransaction]]))
		g.functional = g.functional.Add(numCell(row[idx[ColAmountFunctional]]))
	}

	sort.SliceStable(order, func(a, b int) bool {
		return groups[order[a]].keys[0] < groups[order[b]].keys[0]
	})

	exemptSet := make(map[string]bool, len(exempt))
	for _, po := range exempt {
		exemptSet[strings.TrimSpace(po)] = true
	}

	rows := make([]AggregatedRow, 0, len(order))
	seen := make(map[string]bool)

	for _, mapKey := range order {
		g := groups[mapKey]

		rate, err := conversionRate(g.functional, g.transaction, "PO "+g.keys[0])
		if err != nil {
			return nil, err
		}

		row := AggregatedRow{
			PONumber:             g.keys[0],
			ChargeAccount:        g.keys[1],
			Supplier:             g.keys[2],
			Currency:             g.keys[3],
			InvoiceNumber:        g.keys[4],
			InvoiceLineNumber:    g.keys[5],
			LineAmount:           g.lineAmt,
			LineAmountFunctional: g.lineAmtFunc,
			AmountReceived:       g.received,
			AmountTransaction:    g.transaction,
			AmountFunctional:     g.functional,
			ConversionRate:       rate,
		}

		// Only the first row of each (PO, invoice, invoice line) sub-group
		// keeps its line amounts.
		subKey := row.PONumber + "\x1f" + row.InvoiceNumber + "\x1f" + row.InvoiceLineNumber
		if seen[subKey] {
			row.LineAmount = decimal.Zero
			row.LineAmountFunctional = decimal.Zero
		}
		seen[subKey] = true

		row.Diff = row.LineAmount.Sub(row.AmountReceived)
		row.DiffLocal = row.Diff.Mul(row.ConversionRate)
		if exemptSet[row.PONumber] {
			row.DiffLocal = decimal.Zero
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// AggregateTable renders aggregated rows as a table for export.
func AggregateTable(rows []AggregatedRow) *combiner.Table {
	t := &combiner.Table{
		Columns: []string{
			ColPONumber, ColChargeAccount, ColSupplier, ColCurrency,
			ColInvoiceNumber, ColInvoiceLineNumber, ColLineAmount, ColLineAmountFunc,
			ColAmountReceived, ColAmountTransaction, ColAmountFunctional,
			"conversion rate", "diff", "diff InSAR",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.PONumber, r.ChargeAccount, r.Supplier, r.Currency,
			r.InvoiceNumber, r.InvoiceLineNumber,
			r.LineAmount.String(), r.LineAmountFunctional.String(),
			r.AmountReceived.String(), r.AmountTransaction.String(), r.AmountFunctional.String(),
			r.ConversionRate.String(), r.Diff.String(), r.DiffLocal.String(),
		})
	}
	return t
}
