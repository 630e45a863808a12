package dataprocessing

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

// Pivot is a sparse matrix keyed by a row label and an integer column.
// A cell that was never set is absent, which is not the same as zero.
type Pivot struct {
	cells map[string]map[int]float64
	cols  map[int]struct{}
}

// NewPivot creates an empty pivot
func NewPivot() *Pivot {
	return &Pivot{cells: make(map[string]map[int]float64), cols: make(map[int]struct{})}
}

// AddRow registers a row that may hold no cells
func (p *Pivot) AddRow(row string) {
	if _, ok := p.cells[row]; !ok {
		p.cells[row] = make(map[int]float64)
	}
}

// AddColumn registers a column that may hold no cells
func (p *Pivot) AddColumn(col int) {
	p.cols[col] = struct{}{}
}

// Set stores a cell value
func (p *Pivot) Set(row string, col int, v float64) {
	r, ok := p.cells[row]
	if !ok {
		r = make(map[int]float64)
		p.cells[row] = r
	}
	r[col] = v
	p.cols[col] = struct{}{}
}

// Get returns a cell value; ok is false for an absent cell.
func (p *Pivot) Get(row string, col int) (float64, bool) {
	v, ok := p.cells[row][col]
	return v, ok
}

// RowKeys returns the row labels in ascending order
func (p *Pivot) RowKeys() []string {
	keys := make([]string, 0, len(p.cells))
	for k := range p.cells {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ColKeys returns every column set or registered, ascending
func (p *Pivot) ColKeys() []int {
	keys := make([]int, 0, len(p.cols))
	for c := range p.cols {
		keys = append(keys, c)
	}
	slices.Sort(keys)
	return keys
}

// Cells returns the number of present cells
func (p *Pivot) Cells() int {
	n := 0
	for _, r := range p.cells {
		n += len(r)
	}
	return n
}

// Dense renders the pivot over RowKeys × ColKeys with NaN for absent cells.
func (p *Pivot) Dense() [][]float64 {
	rows, cols := p.RowKeys(), p.ColKeys()
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(cols))
		for j, col := range cols {
			v, ok := p.Get(row, col)
			if !ok {
				v = math.NaN()
			}
			out[i][j] = v
		}
	}
	return out
}

// Table renders the pivot for export. Absent cells become nil.
func (p *Pivot) Table(name, rowHeader string, places int) domain.Table {
	rows, cols := p.RowKeys(), p.ColKeys()
	header := make([]string, 0, len(cols)+1)
	header = append(header, rowHeader)
	for _, c := range cols {
		header = append(header, strconv.Itoa(c))
	}

	out := domain.Table{Name: name, Header: header}
	for _, row := range rows {
		line := make([]any, 0, len(header))
		line = append(line, row)
		for _, col := range cols {
			v, ok := p.Get(row, col)
			if !ok {
				line = append(line, nil)
				continue
			}
			if places >= 0 {
				v = stats.Round(v, places)
			}
			line = append(line, v)
		}
		out.Rows = append(out.Rows, line)
	}
	return out
}

type pivotJSON struct {
	Rows    []string     `json:"rows"`
	Columns []int        `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// MarshalJSON writes the dense form with null for absent cells
func (p *Pivot) MarshalJSON() ([]byte, error) {
	doc := pivotJSON{Rows: p.RowKeys(), Columns: p.ColKeys()}
	doc.Values = make([][]*float64, len(doc.Rows))
	for i, row := range doc.Rows {
		doc.Values[i] = make([]*float64, len(doc.Columns))
		for j, col := range doc.Columns {
			if v, ok := p.Get(row, col); ok {
				doc.Values[i][j] = &v
			}
		}
	}
	return json.Marshal(doc)
}
