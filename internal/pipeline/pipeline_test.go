package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/grnops/po-reporter/internal/bip"
	"github.com/grnops/po-reporter/internal/combiner"
	"github.com/grnops/po-reporter/internal/config"
)

var reportColumns = []interface{}{
	"Po Number", "POCharge A/c", "Supplier", "Currency",
	"Invoice Number", "Invoice Line Number", "Line Amount",
	"Line Maount in Functional Currency",
	"Amount Received", "Amount in transaction Currency", "Amount in Functional Currency",
}

// buildReportArtifact renders a realistic three-sheet artifact: header sheet,
// one matching continuation sheet, one mismatched sheet.
func buildReportArtifact(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Page1"))
	rows := [][]interface{}{
		reportColumns,
		{"PO-1", "6010", "Acme", "USD", "INV-1", "1", 100, 375, 100, 100, 375},
		{"PO-1", "6010", "Acme", "USD", "INV-1", "1", 100, 375, 100, 100, 375},
		{"PO-2", "6020", "Globex", "SAR", "INV-2", "1", 50, 50, 20, 20, 20},
	}
	for r, rowVals := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Page1", cell, &rowVals))
	}

	_, err := f.NewSheet("Page2")
	require.NoError(t, err)
	cont := [][]interface{}{
		{"PO-3", "6030", "Initech", "SAR", "INV-3", "1", 10, 10, 10, 10, 10},
		{"PO-4", "6040", "Hooli", "SAR", "INV-4", "1", 5, 5, 5, 5, 5},
	}
	for r, rowVals := range cont {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Page2", cell, &rowVals))
	}

	_, err = f.NewSheet("Summary")
	require.NoError(t, err)
	bad := []interface{}{"PO-5", "6050", "Umbrella", "SAR", "INV-5", "1", 1, 1, 1, 1, 1, "extra"}
	require.NoError(t, f.SetSheetRow("Summary", "A1", &bad))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// scriptedService drives a full Run without a real remote.
type scriptedService struct {
	artifact    []byte
	statusCalls int
}

func (s *scriptedService) SubmitJob(ctx context.Context, req bip.ReportRequest) (string, error) {
	return "100", nil
}

func (s *scriptedService) JobStatus(ctx context.Context, jobID string) (bip.JobState, error) {
	s.statusCalls++
	if s.statusCalls < 2 {
		return bip.StateRunning, nil
	}
	return bip.StateSucceeded, nil
}

func (s *scriptedService) JobInstances(ctx context.Context, jobID string) ([]string, error) {
	return []string{"101"}, nil
}

func (s *scriptedService) JobOutputs(ctx context.Context, instanceID string) ([]bip.Output, error) {
	return []bip.Output{{ID: "55", Name: "PO_RECP_INV_V8.xls"}}, nil
}

func (s *scriptedService) FetchDocument(ctx context.Context, outputID string) (*bip.Document, error) {
	return &bip.Document{Base64: base64.StdEncoding.EncodeToString(s.artifact)}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Report: config.ReportConfig{
			BusinessUnit:    "Saudi Arabia BU",
			PONumber:        "*",
			DefaultFromDate: "01-01-2020",
		},
		Polling: config.PollingConfig{IntervalSeconds: 1, TimeoutSeconds: 30},
		Reconciliation: config.ReconciliationConfig{
			ExemptPONumbers: []string{"SA-AFR-PO-170664"},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	svc := &scriptedService{artifact: buildReportArtifact(t)}
	pipe := New(svc, testConfig(), nil)

	result, err := pipe.Run(context.Background(), RunOptions{
		FromDate: "01-01-2020",
		ToDate:   "12-04-2025",
		Process:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "100", result.JobID)
	assert.NotEmpty(t, result.Raw)
	require.Len(t, result.Reports, 3)
	require.Len(t, result.Skips, 1)
	assert.Equal(t, "Summary", result.Skips[0].Sheet)

	var combinedName string
	for name := range result.Reports {
		assert.Contains(t, name, "_PO_Report_01012020_to_12042025_")
		if strings.HasPrefix(name, "Combined_") {
			combinedName = name
		}
	}
	require.NotEmpty(t, combinedName)

	records, err := csv.NewReader(bytes.NewReader(result.Reports[combinedName])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6, "header + 3 first-sheet rows + 2 continuation rows")
	assert.Equal(t, []string{"Report Type", "Date Range", "Generation Date"}, records[0][:3])
	assert.Equal(t, "Combined", records[1][0])
	assert.Equal(t, "01-01-2020 to 12-04-2025", records[1][1])
}

func TestRunWithoutProcessing(t *testing.T) {
	svc := &scriptedService{artifact: buildReportArtifact(t)}
	pipe := New(svc, testConfig(), nil)

	result, err := pipe.Run(context.Background(), RunOptions{ToDate: "12-04-2025"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Raw)
	assert.Empty(t, result.Reports)
}

func TestDownloadExisting(t *testing.T) {
	svc := &scriptedService{artifact: buildReportArtifact(t)}
	pipe := New(svc, testConfig(), nil)

	result, err := pipe.DownloadExisting(context.Background(), "100", RunOptions{Process: true})
	require.NoError(t, err)
	assert.Equal(t, "100", result.JobID)
	assert.Len(t, result.Reports, 3)
}

func TestProcessArtifactAllOrNothing(t *testing.T) {
	pipe := New(nil, testConfig(), nil)

	reports, skips, err := pipe.ProcessArtifact([]byte("not a spreadsheet"), "01-01-2020", "12-04-2025")
	var empty *combiner.EmptyArtifactError
	require.ErrorAs(t, err, &empty)
	assert.Nil(t, reports, "no partial outputs on failure")
	assert.Nil(t, skips)
}
