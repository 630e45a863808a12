// Package validation checks the files and directories a run touches before
// the pipeline starts, so a bad path fails with a typed error up front.
package validation

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "campaignpulse/internal/errors"
)

// SupportedExtensions lists the input formats the loader reads
var SupportedExtensions = []string{".csv", ".xlsx", ".xlsm"}

// InputValidator validates pipeline inputs and output locations
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a new input validator
func NewInputValidator(logger *slog.Logger) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputValidator{logger: logger}
}

// ValidateInputFile checks that path is a readable, non-empty campaign file
// in a supported format.
func (v *InputValidator) ValidateInputFile(path string) error {
	if path == "" {
		return apperrors.NewAppValidationError("input file is required")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError("unsupported input format").
			WithContext("file", path).
			WithContext("extension", ext)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewAppValidationError("input is a temporary Excel lock file").
			WithContext("file", path)
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError("input file").WithContext("file", path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat input file", err).WithContext("file", path)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError("input path is a directory").WithContext("file", path)
	}
	if info.Size() == 0 {
		return apperrors.NewAppValidationError("input file is empty").WithContext("file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError("input file is not readable", err).WithContext("file", path)
	}
	f.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir if needed and checks it is writable
func (v *InputValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return apperrors.NewStorageError("output directory is not writable", err).WithContext("directory", dir)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)
	return nil
}
