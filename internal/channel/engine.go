package channel

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"campaignpulse/internal/dataprocessing"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

// Engine computes channel performance tables
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates a channel engine
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.SignificanceLevel <= 0 || cfg.SignificanceLevel >= 1 {
		cfg.SignificanceLevel = DefaultSignificanceLevel
	}
	return &Engine{cfg: cfg, logger: infrastructure.WithComponent(logger, "channel")}
}

// Analyze computes every channel table. records is read, never modified.
func (e *Engine) Analyze(ctx context.Context, records []domain.CampaignRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	byChannel := dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel},
		dataprocessing.Impressions, dataprocessing.Clicks, dataprocessing.AcquisitionCost,
		dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.EngagementScore,
		dataprocessing.EngagementRate)

	res := &Result{
		Metrics:    channelMetrics(byChannel),
		Benchmarks: benchmarks(records),
	}

	res.ByCampaignType = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel, dataprocessing.ByCampaignType},
		dataprocessing.ConversionRate, dataprocessing.ROI)
	res.ByAudience = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel, dataprocessing.ByAudience},
		dataprocessing.ConversionRate, dataprocessing.ROI)
	res.BySegment = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel, dataprocessing.BySegment},
		dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.EngagementScore)
	res.Monthly = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel, dataprocessing.ByMonth},
		dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.AcquisitionCost)
	res.Quarterly = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByChannel, dataprocessing.ByQuarter},
		dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.AcquisitionCost)

	res.Significance = e.significance(ctx, records)

	corr, err := Correlations(records)
	if err != nil {
		return nil, apperrors.NewAnalysisError("failed to compute correlations", err)
	}
	res.Correlations = corr

	res.Recommendations = Recommend(res.Metrics, res.Benchmarks)

	significant := 0
	for _, s := range res.Significance {
		if s.Significant {
			significant++
		}
	}
	e.logger.InfoContext(ctx, "channel analysis complete",
		slog.Int("records", len(records)),
		slog.Int("channels", len(res.Metrics)),
		slog.Int("significant_metrics", significant),
		slog.Duration("duration", time.Since(start)))

	return res, nil
}

func channelMetrics(t *dataprocessing.AggregateTable) []Metrics {
	idx := func(name string) int { return t.MetricIndex(name) }
	out := make([]Metrics, 0, t.Len())
	for _, g := range t.Groups() {
		mean := func(name string) float64 {
			v, _ := g.Mean(idx(name))
			return v
		}
		m := Metrics{
			Channel:         g.Key[0],
			Campaigns:       g.Count,
			Impressions:     int64(g.Sum(idx(domain.ColImpressions))),
			Clicks:          int64(g.Sum(idx(domain.ColClicks))),
			AcquisitionCost: g.Sum(idx(domain.ColAcquisitionCost)),
			ConversionRate:  mean(domain.ColConversionRate),
			ROI:             mean(domain.ColROI),
			EngagementScore: mean(domain.ColEngagementScore),
			EngagementRate:  mean(domain.ColEngagementRate),
		}
		if m.Impressions > 0 {
			ctr := float64(m.Clicks) / float64(m.Impressions)
			m.ClickThrough = &ctr
		}
		if m.Clicks > 0 {
			cpc := m.AcquisitionCost / float64(m.Clicks)
			m.CostPerClick = &cpc
		}
		out = append(out, m)
	}
	return out
}

func benchmarks(records []domain.CampaignRecord) Benchmarks {
	if len(records) == 0 {
		return Benchmarks{}
	}
	var b Benchmarks
	for _, r := range records {
		b.ConversionRate += r.ConversionRate
		b.ROI += r.ROI
		b.AcquisitionCost += r.AcquisitionCost
		b.EngagementScore += float64(r.EngagementScore)
		b.EngagementRate += r.EngagementRate
	}
	n := float64(len(records))
	b.ConversionRate /= n
	b.ROI /= n
	b.AcquisitionCost /= n
	b.EngagementScore /= n
	b.EngagementRate /= n
	return b
}

// significance runs one ANOVA per tested metric with one group per channel
func (e *Engine) significance(ctx context.Context, records []domain.CampaignRecord) []SignificanceTest {
	out := make([]SignificanceTest, 0, len(TestedMetrics))
	for _, metric := range TestedMetrics {
		groups := groupByChannel(records, metric)
		test := SignificanceTest{Metric: metric.Name, Groups: len(groups)}

		anova, err := stats.OneWayANOVA(groups)
		if err != nil {
			test.Note = err.Error()
			e.logger.WarnContext(ctx, "significance test undefined",
				slog.String("metric", metric.Name),
				slog.Int("groups", len(groups)),
				slog.String("error", err.Error()))
			out = append(out, test)
			continue
		}

		test.FStatistic = stats.Finite(anova.FStatistic)
		test.PValue = stats.Finite(anova.PValue)
		test.DFBetween = anova.DFBetween
		test.DFWithin = anova.DFWithin
		test.Significant = anova.Significant(e.cfg.SignificanceLevel)
		if test.PValue == nil {
			test.Note = "no variance within or between channels"
		}
		out = append(out, test)
	}
	return out
}

// groupByChannel partitions metric values by channel, channels in sorted order
func groupByChannel(records []domain.CampaignRecord, metric dataprocessing.Metric) [][]float64 {
	byChannel := make(map[string][]float64)
	for i := range records {
		r := &records[i]
		byChannel[r.Channel] = append(byChannel[r.Channel], metric.Value(r))
	}

	groups := make([][]float64, 0, len(byChannel))
	for _, channel := range slices.Sorted(maps.Keys(byChannel)) {
		groups = append(groups, byChannel[channel])
	}
	return groups
}

// Correlations computes the Pearson matrix of CorrelatedMetrics
func Correlations(records []domain.CampaignRecord) (*stats.CorrelationMatrix, error) {
	names := make([]string, len(CorrelatedMetrics))
	columns := make([][]float64, len(CorrelatedMetrics))
	for j, m := range CorrelatedMetrics {
		names[j] = m.Name
		columns[j] = make([]float64, len(records))
		for i := range records {
			columns[j][i] = m.Value(&records[i])
		}
	}
	return stats.Correlate(names, columns)
}

// Recommend applies the advisory rules to every channel. The ROI rule always
// yields a message; the others only when the channel trails the benchmark.
func Recommend(metrics []Metrics, b Benchmarks) []Recommendation {
	out := make([]Recommendation, 0, len(metrics))
	for _, m := range metrics {
		var msgs []string
		if m.ROI > b.ROI {
			msgs = append(msgs, fmt.Sprintf("High ROI performer (ROI: %.2f). Consider increasing budget allocation.", m.ROI))
		} else {
			msgs = append(msgs, fmt.Sprintf("Below average ROI (ROI: %.2f). Review campaign strategy and targeting.", m.ROI))
		}
		if m.ConversionRate < b.ConversionRate {
			msgs = append(msgs, fmt.Sprintf("Below average conversion rate (%.2f%%). Review targeting and creative strategy.", m.ConversionRate*100))
		}
		avgCost := m.AcquisitionCost / float64(max(m.Campaigns, 1))
		if avgCost > b.AcquisitionCost {
			msgs = append(msgs, fmt.Sprintf("High acquisition cost ($%.2f). Optimize bidding strategy and targeting.", avgCost))
		}
		if m.EngagementScore < b.EngagementScore {
			msgs = append(msgs, fmt.Sprintf("Low engagement score (%.2f). Improve content quality and engagement factors.", m.EngagementScore))
		}
		if m.EngagementRate < b.EngagementRate {
			msgs = append(msgs, fmt.Sprintf("Low engagement rate (%.2f%%). Review content strategy and audience targeting.", m.EngagementRate*100))
		}
		out = append(out, Recommendation{Channel: m.Channel, Messages: msgs})
	}
	return out
}
