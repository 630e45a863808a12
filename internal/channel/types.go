package channel

import (
	"campaignpulse/internal/dataprocessing"
	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

// DefaultSignificanceLevel is the p-value threshold of the ANOVA tests
const DefaultSignificanceLevel = 0.05

// TestedMetrics are compared across channels with a one-way ANOVA
var TestedMetrics = []dataprocessing.Metric{
	dataprocessing.ConversionRate,
	dataprocessing.ROI,
	dataprocessing.EngagementScore,
}

// CorrelatedMetrics enter the correlation matrix, in order
var CorrelatedMetrics = []dataprocessing.Metric{
	dataprocessing.Impressions,
	dataprocessing.Clicks,
	dataprocessing.ConversionRate,
	dataprocessing.ROI,
	dataprocessing.AcquisitionCost,
	dataprocessing.EngagementScore,
	dataprocessing.EngagementRate,
}

// Config controls the significance tests
type Config struct {
	SignificanceLevel float64
}

// Metrics aggregates one channel
type Metrics struct {
	Channel         string   `json:"channel"`
	Campaigns       int      `json:"campaigns"`
	Impressions     int64    `json:"impressions"`
	Clicks          int64    `json:"clicks"`
	AcquisitionCost float64  `json:"acquisition_cost"`
	ConversionRate  float64  `json:"conversion_rate_mean"`
	ROI             float64  `json:"roi_mean"`
	EngagementScore float64  `json:"engagement_score_mean"`
	EngagementRate  float64  `json:"engagement_rate_mean"`
	ClickThrough    *float64 `json:"click_through_rate"`
	CostPerClick    *float64 `json:"cost_per_click"`
}

// Benchmarks are the means over every campaign regardless of channel
type Benchmarks struct {
	ConversionRate  float64 `json:"conversion_rate"`
	ROI             float64 `json:"roi"`
	AcquisitionCost float64 `json:"acquisition_cost"`
	EngagementScore float64 `json:"engagement_score"`
	EngagementRate  float64 `json:"engagement_rate"`
}

// SignificanceTest is the ANOVA outcome for one metric. FStatistic and
// PValue are nil when the test is undefined or F is infinite.
type SignificanceTest struct {
	Metric      string   `json:"metric"`
	Groups      int      `json:"groups"`
	FStatistic  *float64 `json:"f_statistic"`
	PValue      *float64 `json:"p_value"`
	DFBetween   int      `json:"df_between"`
	DFWithin    int      `json:"df_within"`
	Significant bool     `json:"significant"`
	Note        string   `json:"note,omitempty"`
}

// Recommendation lists the advice for one channel
type Recommendation struct {
	Channel  string   `json:"channel"`
	Messages []string `json:"messages"`
}

// Result holds every channel table of one analysis
type Result struct {
	Metrics         []Metrics                `json:"metrics"`
	Benchmarks      Benchmarks               `json:"benchmarks"`
	Significance    []SignificanceTest       `json:"significance"`
	Correlations    *stats.CorrelationMatrix `json:"correlations"`
	Recommendations []Recommendation         `json:"recommendations"`

	ByCampaignType *dataprocessing.AggregateTable `json:"-"`
	ByAudience     *dataprocessing.AggregateTable `json:"-"`
	BySegment      *dataprocessing.AggregateTable `json:"-"`
	Monthly        *dataprocessing.AggregateTable `json:"-"`
	Quarterly      *dataprocessing.AggregateTable `json:"-"`
}

// Channel returns the metrics of one channel
func (r *Result) Channel(name string) (Metrics, bool) {
	for _, m := range r.Metrics {
		if m.Channel == name {
			return m, true
		}
	}
	return Metrics{}, false
}

const tablePlaces = 3

func roundPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return stats.Round(*v, tablePlaces)
}

// Tables renders the result for export
func (r *Result) Tables() []domain.Table {
	metrics := domain.Table{
		Name: "channel_metrics",
		Header: []string{domain.ColChannel, "Campaign_Count", domain.ColImpressions, domain.ColClicks,
			domain.ColAcquisitionCost, domain.ColConversionRate, domain.ColROI, domain.ColEngagementScore,
			domain.ColEngagementRate, "Click_Through_Rate", "Cost_per_Click"},
	}
	for _, m := range r.Metrics {
		metrics.Rows = append(metrics.Rows, []any{
			m.Channel, m.Campaigns, m.Impressions, m.Clicks,
			stats.Round(m.AcquisitionCost, tablePlaces),
			stats.Round(m.ConversionRate, tablePlaces),
			stats.Round(m.ROI, tablePlaces),
			stats.Round(m.EngagementScore, tablePlaces),
			stats.Round(m.EngagementRate, tablePlaces),
			roundPtr(m.ClickThrough), roundPtr(m.CostPerClick),
		})
	}

	significance := domain.Table{
		Name:   "statistical_analysis",
		Header: []string{"Metric", "Groups", "F_Statistic", "P_Value", "DF_Between", "DF_Within", "Significant"},
	}
	for _, s := range r.Significance {
		significance.Rows = append(significance.Rows, []any{
			s.Metric, s.Groups, roundPtr(s.FStatistic), roundPtr(s.PValue), s.DFBetween, s.DFWithin, s.Significant,
		})
	}

	correlations := domain.Table{Name: "correlation_matrix", Header: []string{"Metric"}}
	if r.Correlations != nil {
		correlations.Header = append(correlations.Header, r.Correlations.Names...)
		for i, name := range r.Correlations.Names {
			row := []any{name}
			for _, v := range r.Correlations.Values[i] {
				row = append(row, roundPtr(stats.Finite(v)))
			}
			correlations.Rows = append(correlations.Rows, row)
		}
	}

	recommendations := domain.Table{Name: "channel_recommendations", Header: []string{domain.ColChannel, "Recommendation"}}
	for _, rec := range r.Recommendations {
		for _, msg := range rec.Messages {
			recommendations.Rows = append(recommendations.Rows, []any{rec.Channel, msg})
		}
	}

	count := dataprocessing.Count("Campaign_Count")
	conversion := dataprocessing.Mean("Conversion_Rate", domain.ColConversionRate)
	roi := dataprocessing.Mean("ROI", domain.ColROI)

	return []domain.Table{
		metrics,
		r.ByCampaignType.Table("effectiveness_by_type", tablePlaces, conversion, roi, count),
		r.ByAudience.Table("effectiveness_by_audience", tablePlaces, conversion, roi, count),
		r.BySegment.Table("effectiveness_by_segment", tablePlaces, conversion, roi,
			dataprocessing.Mean("Engagement_Score", domain.ColEngagementScore), count),
		r.Monthly.Table("trends_monthly", tablePlaces, conversion, roi,
			dataprocessing.Sum("Acquisition_Cost", domain.ColAcquisitionCost), count),
		r.Quarterly.Table("trends_quarterly", tablePlaces, conversion, roi,
			dataprocessing.Sum("Acquisition_Cost", domain.ColAcquisitionCost), count),
		significance,
		correlations,
		recommendations,
	}
}
