package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientGroups is returned when fewer than two non-empty groups exist
// or the groups leave no within-group degrees of freedom.
var ErrInsufficientGroups = errors.New("anova needs at least two groups and more observations than groups")

// ANOVAResult is the outcome of a one-way analysis of variance
type ANOVAResult struct {
	FStatistic float64 `json:"f_statistic"`
	PValue     float64 `json:"p_value"`
	DFBetween  int     `json:"df_between"`
	DFWithin   int     `json:"df_within"`
	SSBetween  float64 `json:"ss_between"`
	SSWithin   float64 `json:"ss_within"`
}

// Significant reports whether the p-value falls below alpha. A NaN p-value
// is never significant.
func (r ANOVAResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// OneWayANOVA tests whether the group means differ. Empty groups are ignored.
// F = MSB / MSW and p is the upper tail of the F(k-1, N-k) distribution.
func OneWayANOVA(groups [][]float64) (ANOVAResult, error) {
	nonEmpty := make([][]float64, 0, len(groups))
	total := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty = append(nonEmpty, g)
			total += len(g)
		}
	}

	k := len(nonEmpty)
	if k < 2 || total <= k {
		return ANOVAResult{FStatistic: math.NaN(), PValue: math.NaN()}, ErrInsufficientGroups
	}

	grand := 0.0
	for _, g := range nonEmpty {
		for _, v := range g {
			grand += v
		}
	}
	grand /= float64(total)

	var ssb, ssw float64
	for _, g := range nonEmpty {
		mean := stat.Mean(g, nil)
		ssb += float64(len(g)) * (mean - grand) * (mean - grand)
		for _, v := range g {
			ssw += (v - mean) * (v - mean)
		}
	}

	res := ANOVAResult{
		DFBetween: k - 1,
		DFWithin:  total - k,
		SSBetween: ssb,
		SSWithin:  ssw,
	}
	msb := ssb / float64(res.DFBetween)
	msw := ssw / float64(res.DFWithin)

	switch {
	case msw == 0 && msb == 0:
		res.FStatistic, res.PValue = math.NaN(), math.NaN()
	case msw == 0:
		res.FStatistic, res.PValue = math.Inf(1), 0
	default:
		res.FStatistic = msb / msw
		dist := distuv.F{D1: float64(res.DFBetween), D2: float64(res.DFWithin)}
		res.PValue = dist.Survival(res.FStatistic)
	}
	return res, nil
}
