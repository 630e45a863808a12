package cohort

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"campaignpulse/internal/dataprocessing"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/pkg/contracts/domain"
)

// Engine computes cohort matrices and behavior breakdowns
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a cohort engine
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: infrastructure.WithComponent(logger, "cohort")}
}

// byCohortMonth groups by the calendar month of the record
var byCohortMonth = dataprocessing.Dimension{
	Name:  ColCohortMonth,
	Value: func(r *domain.CampaignRecord) string { return r.MonthPeriod() },
}

// Analyze computes every cohort table. records is read, never modified.
func (e *Engine) Analyze(ctx context.Context, records []domain.CampaignRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	assignments := Assign(records)

	res := &Result{Assignments: assignments}
	res.Retention, res.RowsWithoutBaseline = retention(assignments)
	res.Conversion = meanMatrix(records, assignments, dataprocessing.ConversionRate)
	res.ROI = meanMatrix(records, assignments, dataprocessing.ROI)

	metrics := []dataprocessing.Metric{dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.EngagementScore}
	res.ChannelPreference = dataprocessing.Aggregate(records, []dataprocessing.Dimension{byCohortMonth, dataprocessing.ByChannel}, metrics...)
	res.CampaignEffectiveness = dataprocessing.Aggregate(records, []dataprocessing.Dimension{byCohortMonth, dataprocessing.ByCampaignType}, metrics...)
	res.SegmentAnalysis = dataprocessing.Aggregate(records, []dataprocessing.Dimension{byCohortMonth, dataprocessing.BySegment}, metrics...)

	if res.RowsWithoutBaseline > 0 {
		e.logger.WarnContext(ctx, "retention rows without a baseline cell left empty",
			slog.Int("rows", res.RowsWithoutBaseline))
	}
	e.logger.InfoContext(ctx, "cohort analysis complete",
		slog.Int("records", len(records)),
		slog.Int("cohort_months", len(res.Conversion.RowKeys())),
		slog.Int("max_offset", maxOffset(assignments)),
		slog.Duration("duration", time.Since(start)))

	return res, nil
}

// Assign computes the cohort month and offset of every record, in input order.
func Assign(records []domain.CampaignRecord) []Assignment {
	baseline := make(map[string]time.Time)
	for _, r := range records {
		month := monthStart(r.Date)
		if b, ok := baseline[r.TargetAudience]; !ok || month.Before(b) {
			baseline[r.TargetAudience] = month
		}
	}

	out := make([]Assignment, len(records))
	for i, r := range records {
		b := baseline[r.TargetAudience]
		out[i] = Assignment{
			CampaignID:       r.ID,
			TargetAudience:   r.TargetAudience,
			CohortMonth:      r.MonthPeriod(),
			BaselineMonth:    b.Format("2006-01"),
			MonthsSinceFirst: MonthsBetween(b, r.Date),
		}
	}
	return out
}

// MonthsBetween returns the whole calendar months from a to b
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

type bucket struct {
	cohort string
	offset int
}

// retention counts distinct audiences per bucket and normalizes each row by
// its offset-0 count. A row with no offset-0 bucket has no baseline: it is
// kept with every cell absent, and the number of such rows is returned.
func retention(assignments []Assignment) (*dataprocessing.Pivot, int) {
	audiences := make(map[bucket]map[string]struct{})
	for _, a := range assignments {
		b := bucket{a.CohortMonth, a.MonthsSinceFirst}
		set, ok := audiences[b]
		if !ok {
			set = make(map[string]struct{})
			audiences[b] = set
		}
		set[a.TargetAudience] = struct{}{}
	}

	counts := dataprocessing.NewPivot()
	for b, set := range audiences {
		counts.Set(b.cohort, b.offset, float64(len(set)))
	}

	out := dataprocessing.NewPivot()
	missing := 0
	cols := counts.ColKeys()
	for _, col := range cols {
		out.AddColumn(col)
	}
	for _, row := range counts.RowKeys() {
		out.AddRow(row)
		base, ok := counts.Get(row, 0)
		if !ok {
			missing++
			continue
		}
		for _, col := range cols {
			if v, ok := counts.Get(row, col); ok {
				out.Set(row, col, v/base)
			}
		}
	}
	return out, missing
}

// meanMatrix averages metric per (cohort month, offset) bucket
func meanMatrix(records []domain.CampaignRecord, assignments []Assignment, metric dataprocessing.Metric) *dataprocessing.Pivot {
	table := dataprocessing.NewAggregateTable([]string{ColCohortMonth, ColMonthsSinceFirst}, []string{metric.Name})
	for i := range records {
		a := assignments[i]
		table.Add(dataprocessing.Key{a.CohortMonth, strconv.Itoa(a.MonthsSinceFirst)}, []float64{metric.Value(&records[i])})
	}

	out := dataprocessing.NewPivot()
	for _, g := range table.Groups() {
		offset, err := strconv.Atoi(g.Key[1])
		if err != nil {
			continue
		}
		if mean, ok := g.Mean(0); ok {
			out.Set(g.Key[0], offset, mean)
		}
	}
	return out
}

func maxOffset(assignments []Assignment) int {
	m := 0
	for _, a := range assignments {
		m = max(m, a.MonthsSinceFirst)
	}
	return m
}
