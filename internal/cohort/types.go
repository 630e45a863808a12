package cohort

import (
	"campaignpulse/internal/dataprocessing"
	"campaignpulse/pkg/contracts/domain"
)

// Matrix names accepted by Result.Matrix
const (
	MatrixRetention  = "retention"
	MatrixConversion = "conversion"
	MatrixROI        = "roi"
)

// Column headers of the exported tables
const (
	ColCohortMonth      = "Cohort_Month"
	ColMonthsSinceFirst = "Months_Since_First_Campaign"
)

// Assignment places one campaign in its audience cohort
type Assignment struct {
	CampaignID       string `json:"campaign_id"`
	TargetAudience   string `json:"target_audience"`
	CohortMonth      string `json:"cohort_month"`
	BaselineMonth    string `json:"baseline_month"`
	MonthsSinceFirst int    `json:"months_since_first"`
}

// Result holds every cohort table of one analysis
type Result struct {
	Assignments []Assignment `json:"assignments"`

	Retention  *dataprocessing.Pivot `json:"retention"`
	Conversion *dataprocessing.Pivot `json:"conversion"`
	ROI        *dataprocessing.Pivot `json:"roi"`

	ChannelPreference     *dataprocessing.AggregateTable `json:"-"`
	CampaignEffectiveness *dataprocessing.AggregateTable `json:"-"`
	SegmentAnalysis       *dataprocessing.AggregateTable `json:"-"`

	// RowsWithoutBaseline counts retention rows left empty for lacking an
	// offset-0 cell
	RowsWithoutBaseline int `json:"rows_without_baseline"`
}

// Matrix returns a matrix by name
func (r *Result) Matrix(name string) (*dataprocessing.Pivot, bool) {
	switch name {
	case MatrixRetention:
		return r.Retention, true
	case MatrixConversion:
		return r.Conversion, true
	case MatrixROI:
		return r.ROI, true
	}
	return nil, false
}

const (
	matrixPlaces   = 4
	behaviorPlaces = 3
)

// Tables renders the result for export
func (r *Result) Tables() []domain.Table {
	behavior := func(name string, t *dataprocessing.AggregateTable, withEngagement bool) domain.Table {
		cols := []dataprocessing.Column{
			dataprocessing.Count("Campaign_Count"),
			dataprocessing.Mean("Conversion_Rate", domain.ColConversionRate),
			dataprocessing.Mean("ROI", domain.ColROI),
		}
		if withEngagement {
			cols = append(cols, dataprocessing.Mean("Engagement_Score", domain.ColEngagementScore))
		}
		return t.Table(name, behaviorPlaces, cols...)
	}

	return []domain.Table{
		r.Retention.Table("cohort_retention_matrix", ColCohortMonth, matrixPlaces),
		r.Conversion.Table("cohort_conversion_matrix", ColCohortMonth, matrixPlaces),
		r.ROI.Table("cohort_roi_matrix", ColCohortMonth, matrixPlaces),
		behavior("cohort_channel_preference", r.ChannelPreference, false),
		behavior("cohort_campaign_effectiveness", r.CampaignEffectiveness, false),
		behavior("cohort_segment_analysis", r.SegmentAnalysis, true),
	}
}
