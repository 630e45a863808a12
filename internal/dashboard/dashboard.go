// Package dashboard builds the aggregated dataset consumed by the campaign
// dashboard front-end.
package dashboard

import (
	"campaignpulse/internal/dataprocessing"
	"campaignpulse/pkg/contracts/domain"
)

// Summary holds the headline figures of the dataset
type Summary struct {
	AvgConversionRate    float64 `json:"avg_conversion_rate"`
	AvgROI               float64 `json:"avg_roi"`
	TotalAcquisitionCost float64 `json:"total_acquisition_cost"`
	TotalClicks          int64   `json:"total_clicks"`
	TotalImpressions     int64   `json:"total_impressions"`
	TotalCampaigns       int     `json:"total_campaigns"`
	AvgEngagementScore   float64 `json:"avg_engagement_score"`
}

// Row is one grouped entry keyed by column header
type Row map[string]any

// Dataset is the document written to dashboard_data.json
type Dataset struct {
	Summary            Summary `json:"summary"`
	CampaignTypes      []Row   `json:"campaign_types"`
	ChannelPerformance []Row   `json:"channel_performance"`
	SegmentPerformance []Row   `json:"segment_performance"`
	GeographicData     []Row   `json:"geographic_data"`
	MonthlyTrends      []Row   `json:"monthly_trends"`
	DurationMetrics    []Row   `json:"duration_metrics"`
}

const places = 4

// Build aggregates records into the dashboard dataset
func Build(records []domain.CampaignRecord) *Dataset {
	d := &Dataset{Summary: summarize(records)}

	conversion := dataprocessing.Mean(domain.ColConversionRate, domain.ColConversionRate)
	roi := dataprocessing.Mean(domain.ColROI, domain.ColROI)
	engagement := dataprocessing.Mean(domain.ColEngagementScore, domain.ColEngagementScore)
	count := dataprocessing.Count("Campaign_Count")

	group := func(dims []dataprocessing.Dimension, cols ...dataprocessing.Column) []Row {
		metrics := []dataprocessing.Metric{
			dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.EngagementScore,
			dataprocessing.AcquisitionCost, dataprocessing.Clicks, dataprocessing.Impressions,
		}
		return rows(dataprocessing.Aggregate(records, dims, metrics...).Table("", places, cols...))
	}
	one := func(d dataprocessing.Dimension) []dataprocessing.Dimension { return []dataprocessing.Dimension{d} }

	d.CampaignTypes = group(one(dataprocessing.ByCampaignType),
		conversion, roi, dataprocessing.Mean(domain.ColAcquisitionCost, domain.ColAcquisitionCost), count, engagement)
	d.ChannelPerformance = group(one(dataprocessing.ByChannel),
		dataprocessing.Sum(domain.ColImpressions, domain.ColImpressions),
		dataprocessing.Sum(domain.ColClicks, domain.ColClicks),
		conversion, roi, engagement)
	d.SegmentPerformance = group(one(dataprocessing.BySegment),
		conversion, roi, engagement, dataprocessing.Sum(domain.ColAcquisitionCost, domain.ColAcquisitionCost))
	d.GeographicData = group(one(dataprocessing.ByLocation), conversion, roi, count, engagement)
	d.MonthlyTrends = group([]dataprocessing.Dimension{dataprocessing.ByMonth, dataprocessing.ByChannel}, roi, conversion, engagement)
	d.DurationMetrics = group(one(dataprocessing.ByDurationCategory), roi, engagement, conversion, count)
	return d
}

func summarize(records []domain.CampaignRecord) Summary {
	s := Summary{TotalCampaigns: len(records)}
	if len(records) == 0 {
		return s
	}
	var conversion, roi, engagement float64
	for _, r := range records {
		conversion += r.ConversionRate
		roi += r.ROI
		engagement += float64(r.EngagementScore)
		s.TotalAcquisitionCost += r.AcquisitionCost
		s.TotalClicks += r.Clicks
		s.TotalImpressions += r.Impressions
	}
	n := float64(len(records))
	s.AvgConversionRate = conversion / n
	s.AvgROI = roi / n
	s.AvgEngagementScore = engagement / n
	return s
}

func rows(t domain.Table) []Row {
	out := make([]Row, 0, len(t.Rows))
	for _, line := range t.Rows {
		row := make(Row, len(t.Header))
		for i, h := range t.Header {
			row[h] = line[i]
		}
		out = append(out, row)
	}
	return out
}
