package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"campaignpulse/internal/config"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/pkg/contracts/domain"
)

// Exporter writes pipeline outputs to the locations defined by Paths
type Exporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// New creates an exporter rooted at paths
func New(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		csv:    NewCSVWriter(logger),
		logger: logger,
	}
}

// CleanedHeader is the column order of the cleaned dataset file
func CleanedHeader() []string {
	header := make([]string, 0, len(domain.RequiredColumns)+len(domain.DerivedFeatures))
	header = append(header, domain.RequiredColumns...)
	return append(header, domain.DerivedFeatures...)
}

// ExportCleaned streams the cleaned records to the processed directory
func (e *Exporter) ExportCleaned(records []domain.CampaignRecord) (domain.OutputFile, error) {
	path := e.paths.CleanedCSV
	stream, err := e.csv.CreateStreamWriter(path, CleanedHeader(), false)
	if err != nil {
		return domain.OutputFile{}, apperrors.NewStorageError("failed to create cleaned dataset", err).
			WithContext("path", path)
	}
	for i := range records {
		if err := stream.WriteRecord(cleanedRow(&records[i])); err != nil {
			stream.Close()
			return domain.OutputFile{}, apperrors.NewStorageError("failed to write cleaned record", err).
				WithContext("path", path).
				WithContext("campaign_id", records[i].ID)
		}
	}
	if err := stream.Close(); err != nil {
		return domain.OutputFile{}, apperrors.NewStorageError("failed to flush cleaned dataset", err).
			WithContext("path", path)
	}

	e.logger.Info("cleaned dataset written",
		slog.String("path", path),
		slog.Int("rows", stream.Rows()))

	return domain.OutputFile{
		Name:     filepath.Base(path),
		Path:     path,
		Format:   domain.OutputFormatCSV,
		Category: "processed",
		Rows:     stream.Rows(),
	}, nil
}

func cleanedRow(r *domain.CampaignRecord) []string {
	duration := ""
	if r.DurationDays > 0 {
		duration = strconv.Itoa(r.DurationDays) + " days"
	}
	return []string{
		r.ID,
		r.Company,
		r.CampaignType,
		r.TargetAudience,
		duration,
		r.Channel,
		formatFloat(r.ConversionRate),
		formatFloat(r.AcquisitionCost),
		formatFloat(r.ROI),
		r.Location,
		r.Language,
		formatInt(r.Clicks),
		formatInt(r.Impressions),
		strconv.Itoa(r.EngagementScore),
		r.CustomerSegment,
		r.Date.Format(dateLayout),
		strconv.Itoa(r.DurationDays),
		r.DurationCategory,
		formatFloat(r.EngagementRate),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.Quarter),
		strconv.Itoa(r.Year),
		r.EngagementCategory,
	}
}

// ExportJSON writes v as indented JSON
func (e *Exporter) ExportJSON(path, category string, v any) (domain.OutputFile, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.OutputFile{}, apperrors.NewStorageError("failed to encode JSON output", err).
			WithContext("path", path)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return domain.OutputFile{}, apperrors.NewStorageError("failed to write JSON output", err).
			WithContext("path", path)
	}

	e.logger.Info("JSON output written", slog.String("path", path), slog.String("category", category))
	return domain.OutputFile{
		Name:     filepath.Base(path),
		Path:     path,
		Format:   domain.OutputFormatJSON,
		Category: category,
	}, nil
}

// ExportTables writes each table as <dir>/<name>.csv
func (e *Exporter) ExportTables(dir, category string, tables []domain.Table) ([]domain.OutputFile, error) {
	files := make([]domain.OutputFile, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := e.csv.WriteTable(path, t); err != nil {
			return files, apperrors.NewStorageError(fmt.Sprintf("failed to write table %s", t.Name), err).
				WithContext("path", path)
		}
		files = append(files, domain.OutputFile{
			Name:     filepath.Base(path),
			Path:     path,
			Format:   domain.OutputFormatCSV,
			Category: category,
			Rows:     t.Len(),
		})
	}

	e.logger.Info("tables exported",
		slog.String("category", category),
		slog.String("dir", dir),
		slog.Int("count", len(files)))
	return files, nil
}

// ExportWorkbook writes every sheet to the configured workbook path
func (e *Exporter) ExportWorkbook(sheets []Sheet) (domain.OutputFile, error) {
	path := e.paths.Workbook
	rows, err := WriteWorkbook(path, sheets)
	if err != nil {
		return domain.OutputFile{}, apperrors.NewStorageError("failed to write workbook", err).
			WithContext("path", path)
	}

	e.logger.Info("workbook written", slog.String("path", path), slog.Int("sheets", len(sheets)))
	return domain.OutputFile{
		Name:     filepath.Base(path),
		Path:     path,
		Format:   domain.OutputFormatExcel,
		Category: "report",
		Rows:     rows,
	}, nil
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
