package domain

import "time"

// RepairKind classifies a recovered data-quality condition
type RepairKind string

const (
	RepairMissing      RepairKind = "missing"
	RepairNegative     RepairKind = "negative"
	RepairOutOfRange   RepairKind = "out_of_range"
	RepairDuplicate    RepairKind = "duplicate"
	RepairUnrepairable RepairKind = "unrepairable"
)

// DataQualityWarning records one repair the cleaner applied to a column.
// Missing and invalid values may resolve to the same replacement but are
// always reported under different kinds.
type DataQualityWarning struct {
	Kind        RepairKind `json:"kind"`
	Column      string     `json:"column"`
	Count       int        `json:"count"`
	Replacement string     `json:"replacement,omitempty"`
}

// CleaningSummary describes what the cleaner changed
type CleaningSummary struct {
	InitialRows          int                  `json:"initial_rows"`
	FinalRows            int                  `json:"final_rows"`
	RowsRemoved          int                  `json:"rows_removed"`
	DerivedFeaturesAdded []string             `json:"derived_features_added"`
	Repairs              []DataQualityWarning `json:"repairs"`
}

// RepairCount sums the repairs of the given kind across columns.
func (s CleaningSummary) RepairCount(kind RepairKind) int {
	total := 0
	for _, w := range s.Repairs {
		if w.Kind == kind {
			total += w.Count
		}
	}
	return total
}

// DateRange is the inclusive span of record dates
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DatasetSummary holds the basic statistics of a cleaned dataset
type DatasetSummary struct {
	TotalCampaigns     int            `json:"total_campaigns"`
	CampaignTypes      map[string]int `json:"campaign_types"`
	Channels           map[string]int `json:"channels"`
	Companies          map[string]int `json:"companies"`
	CustomerSegments   map[string]int `json:"customer_segments"`
	DateRange          DateRange      `json:"date_range"`
	AvgAcquisitionCost float64        `json:"avg_acquisition_cost"`
	TotalClicks        int64          `json:"total_clicks"`
	TotalImpressions   int64          `json:"total_impressions"`
	AvgConversionRate  float64        `json:"avg_conversion_rate"`
	AvgROI             float64        `json:"avg_roi"`
}

// DataSummary is the document written next to the cleaned records
type DataSummary struct {
	Dataset  DatasetSummary  `json:"dataset"`
	Cleaning CleaningSummary `json:"cleaning"`
}
