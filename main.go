// =============================================================================
// PO Reporter - Main Entry Point
// =============================================================================
//
// Entry point for the PO reporter CLI. It initializes the Cobra CLI framework
// and delegates command execution to the cmd package.
//
// USAGE:
//   po-reporter run        - Schedule, wait for, download, and process a report
//   po-reporter download   - Download (and optionally process) an existing job
//   po-reporter process    - Process a local raw report artifact
//   po-reporter version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : core business logic (not for external import)
//   - pkg/       : shared utilities
//
// =============================================================================

package main

import (
	"github.com/grnops/po-reporter/cmd"
)

func main() {
	cmd.Execute()
}
