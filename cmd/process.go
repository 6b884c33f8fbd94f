// =============================================================================
// PO Reporter - Process Command
// =============================================================================
//
// This file defines the 'process' command: derive the three CSV reports from
// a raw artifact that is already on disk (typically one archived by a
// previous 'run' or 'download'). No remote calls are made.
//
// COMMAND USAGE:
//   po-reporter process --file raw_archive/PO_Report_Raw_....xls [flags]
//
// PROCESSING PIPELINE:
//   1. Read the raw spreadsheet artifact
//   2. Combine all sheets under the first sheet's header schema
//   3. Derive the aggregated summary and the detailed adjustment report
//   4. Serialize all three tables to CSV in the output directory
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/grnops/po-reporter/internal/pipeline"
	"github.com/grnops/po-reporter/pkg/utils"
)

// processFile is the path of the raw artifact to process.
var processFile string

// processFromDate / processToDate label the processed reports' date range.
var processFromDate string
var processToDate string

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a local raw report artifact into the three CSV reports",
	Long: `The process command reads a raw multi-sheet spreadsheet artifact from disk
and derives the Combined, Processed, and ProcessedDetailed CSV reports from
it, exactly as 'run' would after downloading.

Continuation sheets whose column count does not match the first sheet are
skipped and reported; they never fail the whole run. Either all three reports
are written or none are.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&processFile,
		"file",
		"",
		"Path to the raw artifact to process (required)",
	)
	processCmd.Flags().StringVar(
		&processFromDate,
		"from-date",
		"",
		"Date-range label start, MM-DD-YYYY (defaults to the configured default)",
	)
	processCmd.Flags().StringVar(
		&processToDate,
		"to-date",
		"",
		"Date-range label end, MM-DD-YYYY (defaults to today)",
	)
	processCmd.MarkFlagRequired("file")
}

// runProcess derives the three reports from a local artifact.
func runProcess() error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw, err := os.ReadFile(processFile)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", processFile, err)
	}

	fm := utils.NewFileManager(cfg.Output.Dir, cfg.Output.RawArchiveDir)
	if err := fm.EnsureDirs(); err != nil {
		return err
	}

	from := processFromDate
	if from == "" {
		from = cfg.Report.DefaultFromDate
	}
	to := processToDate
	if to == "" {
		to = time.Now().Format("01-02-2006")
	}

	// No remote service is involved; the pipeline's processing half works
	// without one.
	pipe := pipeline.New(nil, cfg, logger)
	reports, skips, err := pipe.ProcessArtifact(raw, from, to)
	if err != nil {
		return err
	}

	paths, err := fm.WriteReports(reports)
	if err != nil {
		return err
	}

	for _, skip := range skips {
		fmt.Println("  ! " + skip.String())
	}
	for _, p := range paths {
		fmt.Println("  ✓ " + p)
	}
	return nil
}
