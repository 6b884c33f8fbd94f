package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grnops/po-reporter/internal/combiner"
)

func fixedExporter() *Exporter {
	return &Exporter{Now: func() time.Time {
		return time.Date(2025, 12, 4, 9, 30, 15, 0, time.UTC)
	}}
}

func TestFileName(t *testing.T) {
	e := fixedExporter()
	name := e.FileName(LabelSummary, "01-01-2020", "12-04-2025")
	assert.Equal(t, "Processed_PO_Report_01012020_to_12042025_20251204_093015.csv", name)
}

func TestEncodeRoundTrip(t *testing.T) {
	table := &combiner.Table{
		Columns: []string{"Po Number", "Supplier", "Line Amount"},
		Rows: [][]string{
			{"PO-1", "Acme, Inc.", "100.5"},
			{"PO-2", `quoted "name"`, "-3.75"},
			{"PO-3", "", "0"},
		},
	}

	data, err := fixedExporter().Encode(table)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, table.Columns, records[0])
	for i, row := range table.Rows {
		assert.Equal(t, row, records[i+1])
	}
}

func TestExportAllThreeOrNothing(t *testing.T) {
	table := &combiner.Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}}

	out, err := fixedExporter().Export(table, table, table, "01-01-2020", "12-04-2025")
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Contains(t, out, "Combined_PO_Report_01012020_to_12042025_20251204_093015.csv")
	assert.Contains(t, out, "Processed_PO_Report_01012020_to_12042025_20251204_093015.csv")
	assert.Contains(t, out, "ProcessedDetailed_PO_Report_01012020_to_12042025_20251204_093015.csv")
}
