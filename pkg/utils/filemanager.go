// =============================================================================
// PO Reporter - File Manager Utility
// =============================================================================
//
// File management for the CLI commands:
//   - Directory bootstrap (output and raw-archive directories)
//   - Writing generated report blobs under their delivery names
//   - Archiving downloaded raw artifacts with collision-free names
//
// The raw artifact is archived on every successful download so a report can
// be reprocessed later without another remote round trip.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileManager handles output writing and raw-artifact archival.
type FileManager struct {
	// OutputDir receives the generated CSV reports.
	OutputDir string

	// RawArchiveDir receives downloaded raw artifacts.
	RawArchiveDir string
}

// NewFileManager creates a FileManager over the given directories.
func NewFileManager(outputDir, rawArchiveDir string) *FileManager {
	return &FileManager{
		OutputDir:     outputDir,
		RawArchiveDir: rawArchiveDir,
	}
}

// EnsureDirs creates the managed directories if they do not exist.
func (fm *FileManager) EnsureDirs() error {
	for _, dir := range []string{fm.OutputDir, fm.RawArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteReports writes each named blob into the output directory and returns
// the written paths.
func (fm *FileManager) WriteReports(reports map[string][]byte) ([]string, error) {
	paths := make([]string, 0, len(reports))
	for name, data := range reports {
		path := filepath.Join(fm.OutputDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write report %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ArchiveRaw stores a raw artifact in the archive directory. The name embeds
// the job id, a timestamp, and a short uuid so repeated downloads of the same
// job never collide.
func (fm *FileManager) ArchiveRaw(jobID string, data []byte) (string, error) {
	name := fmt.Sprintf("PO_Report_Raw_%s_%s_%s.xls",
		jobID,
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	path := filepath.Join(fm.RawArchiveDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("archive raw artifact: %w", err)
	}
	return path, nil
}
