package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/pkg/contracts/domain"
)

const utf8BOM = "\uFEFF"

// LoadResult is the outcome of a successful load
type LoadResult struct {
	Records    []domain.RawRecord
	NullCounts map[string]int
	Source     string
	Chunks     int
}

// TotalNulls sums null cells across all columns
func (r *LoadResult) TotalNulls() int {
	total := 0
	for _, n := range r.NullCounts {
		total += n
	}
	return total
}

// Loader reads raw campaign tables. It is pass/fail: any schema or coercion
// problem aborts the load and no partial record set is returned.
type Loader struct {
	chunkSize int
	logger    *slog.Logger
}

// NewLoader creates a loader reading chunkSize rows at a time
func NewLoader(chunkSize int, logger *slog.Logger) *Loader {
	if chunkSize <= 0 {
		chunkSize = 50000
	}
	return &Loader{
		chunkSize: chunkSize,
		logger:    infrastructure.WithComponent(logger, "loader"),
	}
}

// Load reads a .csv or .xlsx file
func (l *Loader) Load(ctx context.Context, path string) (*LoadResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return l.loadXLSX(ctx, path)
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open input", err).WithContext("path", path)
		}
		defer file.Close()
		return l.LoadCSV(ctx, file, path)
	}
}

// LoadCSV reads CSV input from r. source labels the input in logs and errors.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader, source string) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewSchemaError(domain.RequiredColumns)
		}
		return nil, apperrors.NewParsingError("failed to read header", err).WithContext("source", source)
	}

	conv, err := newRowConverter(header, false)
	if err != nil {
		return nil, err
	}

	next := func() ([]string, int, error) {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, io.EOF
			}
			return nil, 0, apperrors.NewParsingError("malformed CSV row", err).WithContext("source", source)
		}
		line, _ := reader.FieldPos(0)
		return row, line, nil
	}

	return l.consume(ctx, conv, next, source)
}

func (l *Loader) loadXLSX(ctx context.Context, path string) (*LoadResult, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet, err := findCampaignSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, apperrors.NewSchemaError(domain.RequiredColumns)
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header", err).WithContext("sheet", sheet)
	}

	conv, err := newRowConverter(header, true)
	if err != nil {
		return nil, err
	}

	line := 1
	next := func() ([]string, int, error) {
		line++
		if !rows.Next() {
			if err := rows.Error(); err != nil {
				return nil, 0, apperrors.NewParsingError("failed to read row", err).WithContext("line", line)
			}
			return nil, 0, io.EOF
		}
		cols, err := rows.Columns()
		if err != nil {
			return nil, 0, apperrors.NewParsingError("failed to read row", err).WithContext("line", line)
		}
		return cols, line, nil
	}

	l.logger.DebugContext(ctx, "reading workbook", slog.String("sheet", sheet))
	return l.consume(ctx, conv, next, path)
}

// findCampaignSheet returns the first sheet whose header row names Campaign_ID,
// falling back to the first sheet so the schema check reports what is missing.
func findCampaignSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperrors.NewParsingError("workbook has no sheets", nil)
	}
	for _, name := range sheets {
		rows, err := f.Rows(name)
		if err != nil {
			continue
		}
		if rows.Next() {
			header, _ := rows.Columns()
			for _, cell := range header {
				if normalizeHeader(cell) == domain.ColCampaignID {
					rows.Close()
					return name, nil
				}
			}
		}
		rows.Close()
	}
	return sheets[0], nil
}

type sourceRow struct {
	line  int
	cells []string
}

// consume drains rows in chunks of l.chunkSize and converts them. Blank
// rows are skipped.
func (l *Loader) consume(ctx context.Context, conv *rowConverter, next func() ([]string, int, error), source string) (*LoadResult, error) {
	result := &LoadResult{Source: source}
	chunk := make([]sourceRow, 0, l.chunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		for _, row := range chunk {
			rec, err := conv.convert(row.cells, row.line)
			if err != nil {
				return err
			}
			result.Records = append(result.Records, rec)
		}
		result.Chunks++
		l.logger.DebugContext(ctx, "chunk loaded",
			slog.Int("chunk", result.Chunks),
			slog.Int("rows", len(chunk)))
		chunk = chunk[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, line, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRow(cells) {
			continue
		}
		chunk = append(chunk, sourceRow{line: line, cells: cells})
		if len(chunk) == l.chunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	result.NullCounts = conv.nulls
	for _, col := range domain.RequiredColumns {
		if n := conv.nulls[col]; n > 0 {
			l.logger.WarnContext(ctx, "null values found",
				slog.String("column", col),
				slog.Int("count", n))
		}
	}

	l.logger.InfoContext(ctx, "input loaded",
		slog.String("source", source),
		slog.Int("rows", len(result.Records)),
		slog.Int("chunks", result.Chunks),
		slog.Int("null_cells", result.TotalNulls()))

	return result, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
}

// rowConverter maps header positions and coerces one row at a time
type rowConverter struct {
	index       map[string]int
	excelSerial bool
	nulls       map[string]int
}

func newRowConverter(header []string, excelSerial bool) (*rowConverter, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	return &rowConverter{
		index:       index,
		excelSerial: excelSerial,
		nulls:       make(map[string]int, len(domain.RequiredColumns)),
	}, nil
}

// cell returns the trimmed cell for col; ok is false when it is null.
func (c *rowConverter) cell(cells []string, col string) (string, bool) {
	i := c.index[col]
	if i >= len(cells) || IsNull(cells[i]) {
		c.nulls[col]++
		return "", false
	}
	return strings.TrimSpace(cells[i]), true
}

func (c *rowConverter) text(cells []string, col string) string {
	v, _ := c.cell(cells, col)
	return v
}

func (c *rowConverter) number(cells []string, col string, line int, parse func(string) (float64, error)) (*float64, error) {
	raw, ok := c.cell(cells, col)
	if !ok {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, apperrors.NewTypeCoercionError(col, line, raw, err)
	}
	return &v, nil
}

func (c *rowConverter) convert(cells []string, line int) (domain.RawRecord, error) {
	rec := domain.RawRecord{
		Row:             line,
		ID:              c.text(cells, domain.ColCampaignID),
		Company:         c.text(cells, domain.ColCompany),
		CampaignType:    c.text(cells, domain.ColCampaignType),
		TargetAudience:  c.text(cells, domain.ColTargetAudience),
		Duration:        c.text(cells, domain.ColDuration),
		Channel:         c.text(cells, domain.ColChannel),
		Location:        c.text(cells, domain.ColLocation),
		Language:        c.text(cells, domain.ColLanguage),
		CustomerSegment: c.text(cells, domain.ColCustomerSegment),
	}

	numeric := []struct {
		col   string
		dst   **float64
		parse func(string) (float64, error)
	}{
		{domain.ColConversionRate, &rec.ConversionRate, ParseNumber},
		{domain.ColAcquisitionCost, &rec.AcquisitionCost, ParseCurrency},
		{domain.ColROI, &rec.ROI, ParseNumber},
		{domain.ColClicks, &rec.Clicks, ParseNumber},
		{domain.ColImpressions, &rec.Impressions, ParseNumber},
		{domain.ColEngagementScore, &rec.EngagementScore, ParseNumber},
	}
	for _, n := range numeric {
		v, err := c.number(cells, n.col, line, n.parse)
		if err != nil {
			return domain.RawRecord{}, err
		}
		*n.dst = v
	}

	if raw, ok := c.cell(cells, domain.ColDate); ok {
		t, err := ParseDate(raw, c.excelSerial)
		if err != nil {
			return domain.RawRecord{}, apperrors.NewTypeCoercionError(domain.ColDate, line, raw, err)
		}
		rec.Date = &t
	}

	return rec, nil
}
