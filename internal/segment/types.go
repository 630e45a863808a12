package segment

import (
	"slices"
	"time"

	"campaignpulse/internal/dataprocessing"
	"campaignpulse/pkg/contracts/domain"
)

// Features are the clustering inputs, in vector order
var Features = []dataprocessing.Metric{
	dataprocessing.ConversionRate,
	dataprocessing.ROI,
	dataprocessing.EngagementScore,
	dataprocessing.EngagementRate,
}

// Config controls clustering and recency
type Config struct {
	Clusters      int
	Seed          uint64
	MaxIterations int
	Tolerance     float64
	// ReferenceDate anchors recency; zero means the time of analysis
	ReferenceDate time.Time
}

// RFM summarizes one audience's activity
type RFM struct {
	TargetAudience string    `json:"target_audience"`
	RecencyDays    int       `json:"recency_days"`
	Frequency      int       `json:"frequency"`
	Monetary       float64   `json:"monetary"`
	AvgSpend       float64   `json:"avg_spend"`
	LastCampaign   time.Time `json:"last_campaign"`
}

// ClusterAssignment ties a campaign to its cluster
type ClusterAssignment struct {
	CampaignID string `json:"campaign_id"`
	Cluster    int    `json:"cluster"`
}

// ClusterProfile characterizes one cluster with unscaled means
type ClusterProfile struct {
	Cluster         int       `json:"cluster"`
	Size            int       `json:"size"`
	ConversionRate  float64   `json:"avg_conversion_rate"`
	ROI             float64   `json:"avg_roi"`
	AcquisitionCost float64   `json:"avg_acquisition_cost"`
	EngagementScore float64   `json:"avg_engagement_score"`
	EngagementRate  float64   `json:"avg_engagement_rate"`
	Centroid        []float64 `json:"centroid"`
}

// Result holds every segment table of one analysis
type Result struct {
	ReferenceDate time.Time           `json:"reference_date"`
	RFM           []RFM               `json:"rfm"`
	Assignments   []ClusterAssignment `json:"assignments"`
	Clusters      []ClusterProfile    `json:"clusters"`
	RequestedK    int                 `json:"requested_k"`
	K             int                 `json:"k"`
	Inertia       float64             `json:"inertia"`
	Iterations    int                 `json:"iterations"`
	Converged     bool                `json:"converged"`

	Overall        *dataprocessing.AggregateTable `json:"-"`
	ByChannel      *dataprocessing.AggregateTable `json:"-"`
	ByCampaignType *dataprocessing.AggregateTable `json:"-"`
	Monthly        *dataprocessing.AggregateTable `json:"-"`
	Quarterly      *dataprocessing.AggregateTable `json:"-"`
}

const (
	rfmPlaces   = 2
	tablePlaces = 3
)

// Tables renders the result for export
func (r *Result) Tables() []domain.Table {
	rfm := domain.Table{
		Name:   "rfm_metrics",
		Header: []string{domain.ColTargetAudience, "Recency_Days", "Campaign_Frequency", "Total_Spend", "Avg_Spend_per_Campaign"},
	}
	for _, m := range r.RFM {
		rfm.Rows = append(rfm.Rows, []any{m.TargetAudience, m.RecencyDays, m.Frequency, round(m.Monetary, rfmPlaces), round(m.AvgSpend, rfmPlaces)})
	}

	clusters := domain.Table{
		Name: "cluster_statistics",
		Header: []string{"Cluster", "Size", "Avg_Conversion_Rate", "Avg_ROI",
			"Avg_Acquisition_Cost", "Avg_Engagement_Score", "Avg_Engagement_Rate"},
	}
	for _, c := range r.Clusters {
		clusters.Rows = append(clusters.Rows, []any{
			c.Cluster, c.Size,
			round(c.ConversionRate, tablePlaces), round(c.ROI, tablePlaces),
			round(c.AcquisitionCost, tablePlaces), round(c.EngagementScore, tablePlaces),
			round(c.EngagementRate, tablePlaces),
		})
	}

	assignments := domain.Table{Name: "cluster_assignments", Header: []string{domain.ColCampaignID, "Cluster"}}
	for _, a := range r.Assignments {
		assignments.Rows = append(assignments.Rows, []any{a.CampaignID, a.Cluster})
	}

	core := []dataprocessing.Column{
		dataprocessing.Mean("Conversion_Rate", domain.ColConversionRate),
		dataprocessing.Mean("ROI", domain.ColROI),
	}
	engagement := dataprocessing.Mean("Engagement_Score", domain.ColEngagementScore)
	count := dataprocessing.Count("Campaign_Count")

	overall := slices.Concat(core, []dataprocessing.Column{
		dataprocessing.Mean("Acquisition_Cost", domain.ColAcquisitionCost),
		engagement,
		dataprocessing.Mean("Engagement_Rate", domain.ColEngagementRate),
		count,
	})
	breakdown := slices.Concat(core, []dataprocessing.Column{engagement, count})
	trend := slices.Concat(core, []dataprocessing.Column{count})

	return []domain.Table{
		rfm,
		clusters,
		assignments,
		r.Overall.Table("performance_overall", tablePlaces, overall...),
		r.ByChannel.Table("performance_by_channel", tablePlaces, breakdown...),
		r.ByCampaignType.Table("performance_by_type", tablePlaces, breakdown...),
		r.Monthly.Table("trends_monthly", tablePlaces, trend...),
		r.Quarterly.Table("trends_quarterly", tablePlaces, trend...),
	}
}
