package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{"empty", nil, 0, false},
		{"single", []float64{4}, 4, true},
		{"odd unsorted", []float64{9, 1, 5}, 5, true},
		{"even averages middle pair", []float64{4, 1, 3, 2}, 2.5, true},
		{"negatives included", []float64{-10, 5, 7}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, _ = Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 5.95, Round(5.95, 2))
	assert.Equal(t, 6.41, Round(19.23/3, 2))
	assert.Equal(t, 0.123, Round(0.12345, 3))
	assert.Equal(t, -1.5, Round(-1.46, 1))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestStandardScaler(t *testing.T) {
	rows := [][]float64{
		{1, 10, 7},
		{2, 20, 7},
		{3, 30, 7},
	}

	var s StandardScaler
	scaled, err := s.FitTransform(rows)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2, 20, 7}, s.Means, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.StdDevs[0], 1e-12, "population std")
	assert.Equal(t, 1.0, s.StdDevs[2], "zero variance falls back to 1")

	for j := 0; j < 2; j++ {
		col := []float64{scaled[0][j], scaled[1][j], scaled[2][j]}
		mean, _ := Mean(col)
		assert.InDelta(t, 0, mean, 1e-12)
	}
	assert.Equal(t, []float64{0, 0, 0}, []float64{scaled[0][2], scaled[1][2], scaled[2][2]})
}

func TestStandardScaler_Errors(t *testing.T) {
	var s StandardScaler
	assert.Error(t, s.Fit(nil))
	assert.Error(t, s.Fit([][]float64{{1, 2}, {3}}))
}

func blobs() [][]float64 {
	centers := [][]float64{{0, 0}, {10, 10}, {-10, 10}}
	offsets := [][]float64{{0.1, 0.2}, {-0.2, 0.1}, {0.3, -0.1}, {-0.1, -0.3}}
	var pts [][]float64
	for _, c := range centers {
		for _, o := range offsets {
			pts = append(pts, []float64{c[0] + o[0], c[1] + o[1]})
		}
	}
	return pts
}

func TestKMeans_RecoversSeparatedBlobs(t *testing.T) {
	pts := blobs()
	res, err := KMeans{K: 3, Seed: 42, MaxIter: 100, Tol: 1e-8}.Fit(pts)
	require.NoError(t, err)

	require.Len(t, res.Assignments, len(pts))
	assert.Equal(t, []int{4, 4, 4}, sortedInts(res.Sizes))
	for blob := 0; blob < 3; blob++ {
		first := res.Assignments[blob*4]
		for i := 1; i < 4; i++ {
			assert.Equal(t, first, res.Assignments[blob*4+i], "blob %d split", blob)
		}
	}
	assert.True(t, res.Converged)
}

func TestKMeans_Deterministic(t *testing.T) {
	pts := blobs()
	km := KMeans{K: 4, Seed: 42, MaxIter: 300, Tol: 1e-4}

	first, err := km.Fit(pts)
	require.NoError(t, err)
	for run := 0; run < 5; run++ {
		again, err := km.Fit(pts)
		require.NoError(t, err)
		assert.Equal(t, first.Assignments, again.Assignments)
		assert.Equal(t, first.Centroids, again.Centroids)
	}
}

func TestKMeans_EveryClusterPopulated(t *testing.T) {
	pts := blobs()
	for k := 1; k <= len(pts); k++ {
		res, err := KMeans{K: k, Seed: 7}.Fit(pts)
		require.NoError(t, err, "k=%d", k)
		for id, size := range res.Sizes {
			assert.Positive(t, size, "k=%d cluster %d empty", k, id)
		}
		for _, a := range res.Assignments {
			assert.GreaterOrEqual(t, a, 0)
			assert.Less(t, a, k)
		}
	}
}

func TestKMeans_TooFewPoints(t *testing.T) {
	pts := [][]float64{{1, 1}, {1, 1}, {2, 2}}
	_, err := KMeans{K: 3, Seed: 42}.Fit(pts)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = KMeans{K: 0}.Fit(pts)
	assert.Error(t, err)
}

func TestKMeans_TieGoesToLowestIndex(t *testing.T) {
	centroids := [][]float64{{0, 0}, {2, 0}}
	assign := make([]int, 1)
	assignNearest([][]float64{{1, 0}}, centroids, assign)
	assert.Equal(t, 0, assign[0])
}

func TestOneWayANOVA_TextbookExample(t *testing.T) {
	groups := [][]float64{
		{6, 8, 4, 5, 3, 4},
		{8, 12, 9, 11, 6, 8},
		{13, 9, 11, 8, 7, 12},
	}

	res, err := OneWayANOVA(groups)
	require.NoError(t, err)

	assert.InDelta(t, 9.264705882352942, res.FStatistic, 1e-9)
	assert.InDelta(t, 0.0023987773, res.PValue, 1e-6)
	assert.Equal(t, 2, res.DFBetween)
	assert.Equal(t, 15, res.DFWithin)
	assert.InDelta(t, 84.0, res.SSBetween, 1e-9)
	assert.InDelta(t, 68.0, res.SSWithin, 1e-9)
	assert.True(t, res.Significant(0.05))
}

func TestOneWayANOVA_Stable(t *testing.T) {
	groups := [][]float64{{6.29, 5.61}, {7.18, 5.55, 6.5}}
	first, err := OneWayANOVA(groups)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := OneWayANOVA(groups)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, first.PValue < 0.05, first.Significant(0.05))
}

func TestOneWayANOVA_EdgeCases(t *testing.T) {
	t.Run("single group", func(t *testing.T) {
		res, err := OneWayANOVA([][]float64{{1, 2, 3}})
		assert.ErrorIs(t, err, ErrInsufficientGroups)
		assert.False(t, res.Significant(0.05))
	})

	t.Run("empty groups skipped", func(t *testing.T) {
		res, err := OneWayANOVA([][]float64{{1, 2}, {}, {3, 4}})
		require.NoError(t, err)
		assert.Equal(t, 1, res.DFBetween)
	})

	t.Run("no within-group freedom", func(t *testing.T) {
		_, err := OneWayANOVA([][]float64{{1}, {2}})
		assert.ErrorIs(t, err, ErrInsufficientGroups)
	})

	t.Run("zero within variance", func(t *testing.T) {
		res, err := OneWayANOVA([][]float64{{1, 1}, {2, 2}})
		require.NoError(t, err)
		assert.True(t, math.IsInf(res.FStatistic, 1))
		assert.Equal(t, 0.0, res.PValue)
		assert.True(t, res.Significant(0.05))
	})

	t.Run("all identical", func(t *testing.T) {
		res, err := OneWayANOVA([][]float64{{3, 3}, {3, 3}})
		require.NoError(t, err)
		assert.True(t, math.IsNaN(res.PValue))
		assert.False(t, res.Significant(0.05))
	})
}

func TestCorrelate(t *testing.T) {
	names := []string{"clicks", "impressions", "constant"}
	cols := [][]float64{
		{1, 2, 3, 4},
		{2, 4, 6, 8},
		{5, 5, 5, 5},
	}

	m, err := Correlate(names, cols)
	require.NoError(t, err)

	r, ok := m.At("clicks", "impressions")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = m.At("clicks", "clicks")
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	_, ok = m.At("clicks", "constant")
	assert.False(t, ok, "constant column has no defined correlation")

	_, ok = m.At("clicks", "missing")
	assert.False(t, ok)
}

func TestCorrelate_Mismatch(t *testing.T) {
	_, err := Correlate([]string{"a"}, [][]float64{{1}, {2}})
	assert.Error(t, err)
	_, err = Correlate([]string{"a", "b"}, [][]float64{{1, 2}, {2}})
	assert.Error(t, err)
}

func sortedInts(v []int) []int {
	out := append([]int(nil), v...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestFinite(t *testing.T) {
	assert.Nil(t, Finite(math.NaN()))
	assert.Nil(t, Finite(math.Inf(1)))
	assert.Nil(t, Finite(math.Inf(-1)))
	require.NotNil(t, Finite(0.25))
	assert.Equal(t, 0.25, *Finite(0.25))
}

func TestCorrelationMatrix_MarshalJSON(t *testing.T) {
	m, err := Correlate([]string{"clicks", "flat"}, [][]float64{{1, 2, 3}, {5, 5, 5}})
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded struct {
		Names  []string     `json:"names"`
		Values [][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"clicks", "flat"}, decoded.Names)
	require.NotNil(t, decoded.Values[0][0])
	assert.InDelta(t, 1.0, *decoded.Values[0][0], 1e-12)
	assert.Nil(t, decoded.Values[0][1])
	assert.Nil(t, decoded.Values[1][0])
	assert.Nil(t, decoded.Values[1][1])
}
