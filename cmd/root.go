// =============================================================================
// PO Reporter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the runtime
// bootstrap shared by the workflow commands: configuration loading, logger
// construction, and the per-invocation run id.
//
// COBRA CLI STRUCTURE:
//   rootCmd (po-reporter)
//   ├── runCmd      (po-reporter run)
//   ├── downloadCmd (po-reporter download)
//   ├── processCmd  (po-reporter process)
//   └── versionCmd  (po-reporter version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grnops/po-reporter/internal/config"
)

// cfgFile holds the path to the configuration file. Overridden with --config.
var cfgFile string

// verbose enables debug logging when set.
var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "po-reporter",
	Short: "PO GRN report fetcher and reconciler",
	Long: `po-reporter schedules a purchase-order GRN reconciliation report on the
remote report service, waits for it to finish, downloads the raw multi-sheet
spreadsheet, and derives three CSV reports from it:

  Combined           - all sheets merged under the first sheet's header
  Processed          - aggregated reconciliation summary
  ProcessedDetailed  - row-level adjustments with duplicate handling

Example Usage:
  po-reporter run --to-date 12-04-2025        # Schedule, wait, download, process
  po-reporter run --no-process                # Keep only the raw artifact
  po-reporter download --job-id 2995978       # Re-download an existing job
  po-reporter process --file report.xls       # Process a local artifact`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadRuntime loads the configuration and builds the logger the workflow
// commands share. Each invocation gets a run id carried on every log line.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	logger = logger.With(zap.String("runID", uuid.New().String()))

	return cfg, logger, nil
}
