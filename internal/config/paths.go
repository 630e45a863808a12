package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// Every file the pipeline reads or writes is resolved from here
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string
	OutputDir    string
	CohortDir    string
	SegmentDir   string
	ChannelDir   string
	LogsDir      string

	// Well-known files
	CleanedCSV    string
	SummaryJSON   string
	DashboardJSON string
	Workbook      string
	RunManifest   string
}

// NewPaths lays the directory structure out under base:
//
//	base/
//	  ├── raw/
//	  ├── processed/          cleaned records and data summary
//	  ├── output/
//	  │   ├── cohort_analysis/
//	  │   ├── segment_analysis/
//	  │   └── channel_analysis/
//	  └── logs/
func NewPaths(base string) (*Paths, error) {
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %q: %w", base, err)
	}

	processed := filepath.Join(abs, "processed")
	output := filepath.Join(abs, "output")

	return &Paths{
		BaseDir:      abs,
		RawDir:       filepath.Join(abs, "raw"),
		ProcessedDir: processed,
		OutputDir:    output,
		CohortDir:    filepath.Join(output, "cohort_analysis"),
		SegmentDir:   filepath.Join(output, "segment_analysis"),
		ChannelDir:   filepath.Join(output, "channel_analysis"),
		LogsDir:      filepath.Join(abs, "logs"),

		CleanedCSV:    filepath.Join(processed, CleanedDataFile),
		SummaryJSON:   filepath.Join(processed, DataSummaryFile),
		DashboardJSON: filepath.Join(output, DashboardDataFile),
		Workbook:      filepath.Join(output, WorkbookFile),
		RunManifest:   filepath.Join(output, RunManifestFile),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.OutputDir,
		p.CohortDir,
		p.SegmentDir,
		p.ChannelDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("processed_dir", p.ProcessedDir),
		slog.String("cohort_dir", p.CohortDir),
		slog.String("segment_dir", p.SegmentDir),
		slog.String("channel_dir", p.ChannelDir),
		slog.String("logs_dir", p.LogsDir),
	)
}
