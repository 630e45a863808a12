package stats

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson coefficients. Undefined
// coefficients (a constant column) are NaN.
type CorrelationMatrix struct {
	Names  []string
	Values [][]float64
}

// Correlate builds the Pearson correlation matrix of the named columns.
func Correlate(names []string, columns [][]float64) (*CorrelationMatrix, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(columns))
	}
	for i := 1; i < len(columns); i++ {
		if len(columns[i]) != len(columns[0]) {
			return nil, fmt.Errorf("column %s has %d values, want %d", names[i], len(columns[i]), len(columns[0]))
		}
	}

	n := len(columns)
	m := &CorrelationMatrix{Names: names, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearson(columns[i], columns[j])
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m, nil
}

// At returns the coefficient for the named pair.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, name := range m.Names {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 || math.IsNaN(m.Values[i][j]) {
		return 0, false
	}
	return m.Values[i][j], true
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	_, sx := stat.MeanStdDev(x, nil)
	_, sy := stat.MeanStdDev(y, nil)
	if sx == 0 || sy == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON writes undefined coefficients as null
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = Finite(v)
		}
	}
	return json.Marshal(struct {
		Names  []string     `json:"names"`
		Values [][]*float64 `json:"values"`
	}{m.Names, values})
}
