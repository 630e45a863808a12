package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"campaignpulse/pkg/contracts/domain"
)

// maxSheetName is the Excel limit on worksheet name length
const maxSheetName = 31

// Sheet is one table destined for the workbook
type Sheet struct {
	Category string
	Table    domain.Table
}

// SheetsFor tags tables with their category
func SheetsFor(category string, tables []domain.Table) []Sheet {
	out := make([]Sheet, len(tables))
	for i, t := range tables {
		out[i] = Sheet{Category: category, Table: t}
	}
	return out
}

// SheetNames assigns each sheet a unique worksheet name: the table name
// truncated to 31 characters, prefixed with the category when that would
// collide with an earlier sheet.
func SheetNames(sheets []Sheet) []string {
	used := make(map[string]bool, len(sheets))
	names := make([]string, len(sheets))
	for i, s := range sheets {
		name := truncate(s.Table.Name)
		if used[strings.ToLower(name)] {
			name = truncate(s.Category + "_" + s.Table.Name)
		}
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf("_%d", n)
			base := s.Table.Name
			if len(base) > maxSheetName-len(suffix) {
				base = base[:maxSheetName-len(suffix)]
			}
			name = base + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func truncate(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

// WriteWorkbook writes sheets to an xlsx file, one table per worksheet with
// the header in the first row. It returns the total number of data rows.
func WriteWorkbook(path string, sheets []Sheet) (int, error) {
	if len(sheets) == 0 {
		return 0, fmt.Errorf("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	total := 0
	for i, name := range SheetNames(sheets) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return 0, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return 0, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sheets[i].Table); err != nil {
			return 0, err
		}
		total += sheets[i].Table.Len()
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save workbook: %w", err)
	}
	return total, nil
}

func writeSheet(f *excelize.File, name string, t domain.Table) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", name, err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			if p, ok := v.(*float64); ok {
				if p == nil {
					continue
				}
				v = *p
			}
			values[i] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+1, name, err)
		}
	}
	return sw.Flush()
}
