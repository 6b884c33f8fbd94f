// =============================================================================
// PO Reporter - Run Command
// =============================================================================
//
// This file defines the 'run' command: the full workflow of scheduling a
// report, waiting for completion, downloading the raw artifact, and deriving
// the three CSV reports.
//
// COMMAND USAGE:
//   po-reporter run [flags]
//
// FLAGS:
//   --from-date   : Start of the date range, MM-DD-YYYY (default from config)
//   --to-date     : End of the date range, MM-DD-YYYY (default today)
//   --no-process  : Download the raw artifact only, skip report derivation
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grnops/po-reporter/internal/bip"
	"github.com/grnops/po-reporter/internal/pipeline"
	"github.com/grnops/po-reporter/pkg/utils"
)

// fromDate overrides the configured default report start date.
var fromDate string

// toDate bounds the report; defaults to today.
var toDate string

// noProcess skips report derivation and keeps only the raw artifact.
var noProcess bool

// runCmd represents the 'run' command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Schedule, download, and process a PO report",
	Long: `The run command schedules the configured PO report on the remote service,
polls the job until the report is generated, downloads the raw spreadsheet,
and (unless --no-process is given) derives the Combined, Processed, and
ProcessedDetailed CSV reports into the output directory.

The raw artifact is archived on every successful download so it can be
reprocessed later with 'po-reporter process'. Report generation on the remote
side can take a while; the poll interval and timeout come from the
configuration file. Ctrl-C abandons the job cleanly between polls.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(
		&fromDate,
		"from-date",
		"",
		"Report start date, MM-DD-YYYY (defaults to the configured default)",
	)
	runCmd.Flags().StringVar(
		&toDate,
		"to-date",
		"",
		"Report end date, MM-DD-YYYY (defaults to today)",
	)
	runCmd.Flags().BoolVar(
		&noProcess,
		"no-process",
		false,
		"Download the raw artifact only; skip report derivation",
	)
}

// runRun executes the full schedule-and-process workflow.
func runRun() error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fm := utils.NewFileManager(cfg.Output.Dir, cfg.Output.RawArchiveDir)
	if err := fm.EnsureDirs(); err != nil {
		return err
	}

	svc := bip.NewSOAPClient(cfg.Service.BaseURL, cfg.Service.ReportPath,
		cfg.Service.Username, cfg.Service.Password)
	pipe := pipeline.New(svc, cfg, logger)

	start := time.Now()
	fmt.Println("=== PO Reporter ===")
	fmt.Println("Scheduling report...")

	result, err := pipe.Run(ctx, pipeline.RunOptions{
		FromDate: fromDate,
		ToDate:   toDate,
		Process:  !noProcess,
	})
	if err != nil {
		return err
	}

	archived, err := fm.ArchiveRaw(result.JobID, result.Raw)
	if err != nil {
		return err
	}
	logger.Info("raw artifact archived", zap.String("path", archived))

	fmt.Printf("Job %s downloaded (%d bytes), raw artifact archived to %s\n",
		result.JobID, len(result.Raw), archived)

	if !noProcess {
		paths, err := fm.WriteReports(result.Reports)
		if err != nil {
			return err
		}
		for _, skip := range result.Skips {
			fmt.Println("  ! " + skip.String())
		}
		for _, p := range paths {
			fmt.Println("  ✓ " + p)
		}
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Second))
	return nil
}
