package stats

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance using
// the population standard deviation of each column.
type StandardScaler struct {
	Means   []float64
	StdDevs []float64
}

// Fit computes per-feature mean and standard deviation over rows.
// A zero-variance feature is given a standard deviation of 1 so it
// transforms to all zeros.
func (s *StandardScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("cannot fit scaler on empty input")
	}
	dims := len(rows[0])
	s.Means = make([]float64, dims)
	s.StdDevs = make([]float64, dims)

	column := make([]float64, len(rows))
	for j := 0; j < dims; j++ {
		for i, row := range rows {
			if len(row) != dims {
				return fmt.Errorf("row %d has %d features, want %d", i, len(row), dims)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Means[j], s.StdDevs[j] = mean, std
	}
	return nil
}

// Transform returns a standardized copy of rows.
func (s *StandardScaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Means[j]) / s.StdDevs[j]
		}
		out[i] = scaled
	}
	return out
}

// FitTransform is Fit followed by Transform.
func (s *StandardScaler) FitTransform(rows [][]float64) ([][]float64, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	return s.Transform(rows), nil
}
