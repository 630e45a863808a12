package segment

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"campaignpulse/internal/dataprocessing"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

const defaultClusters = 5

// Engine computes audience segment tables
type Engine struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates a segment engine. A non-positive cluster count falls
// back to five.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if cfg.Clusters <= 0 {
		cfg.Clusters = defaultClusters
	}
	return &Engine{
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "segment"),
		now:    time.Now,
	}
}

// Analyze computes RFM metrics, clusters and performance tables. records is
// read, never modified.
func (e *Engine) Analyze(ctx context.Context, records []domain.CampaignRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	ref := e.cfg.ReferenceDate
	if ref.IsZero() {
		ref = e.now()
	}

	res := &Result{
		ReferenceDate: ref,
		RFM:           ComputeRFM(records, ref),
		RequestedK:    e.cfg.Clusters,
	}

	if err := e.cluster(ctx, records, res); err != nil {
		return nil, err
	}

	res.Overall = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByAudience},
		dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.AcquisitionCost,
		dataprocessing.EngagementScore, dataprocessing.EngagementRate)

	breakdown := []dataprocessing.Metric{dataprocessing.ConversionRate, dataprocessing.ROI, dataprocessing.EngagementScore}
	res.ByChannel = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByAudience, dataprocessing.ByChannel}, breakdown...)
	res.ByCampaignType = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByAudience, dataprocessing.ByCampaignType}, breakdown...)
	res.Monthly = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByAudience, dataprocessing.ByMonth}, breakdown...)
	res.Quarterly = dataprocessing.Aggregate(records, []dataprocessing.Dimension{dataprocessing.ByAudience, dataprocessing.ByQuarter}, breakdown...)

	e.logger.InfoContext(ctx, "segment analysis complete",
		slog.Int("records", len(records)),
		slog.Int("audiences", len(res.RFM)),
		slog.Int("clusters", res.K),
		slog.Int("iterations", res.Iterations),
		slog.Duration("duration", time.Since(start)))

	return res, nil
}

// ComputeRFM returns recency, frequency and monetary value per target
// audience, sorted by audience. Recency is measured in whole days before ref.
func ComputeRFM(records []domain.CampaignRecord, ref time.Time) []RFM {
	byAudience := make(map[string]*RFM)
	for _, r := range records {
		m, ok := byAudience[r.TargetAudience]
		if !ok {
			m = &RFM{TargetAudience: r.TargetAudience, LastCampaign: r.Date}
			byAudience[r.TargetAudience] = m
		}
		m.Frequency++
		m.Monetary += r.AcquisitionCost
		if r.Date.After(m.LastCampaign) {
			m.LastCampaign = r.Date
		}
	}

	out := make([]RFM, 0, len(byAudience))
	for _, m := range byAudience {
		m.RecencyDays = int(math.Floor(ref.Sub(m.LastCampaign).Hours() / 24))
		m.AvgSpend = m.Monetary / float64(m.Frequency)
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b RFM) int {
		return cmp.Compare(a.TargetAudience, b.TargetAudience)
	})
	return out
}

// FeatureMatrix extracts the clustering features of every record
func FeatureMatrix(records []domain.CampaignRecord) [][]float64 {
	out := make([][]float64, len(records))
	for i := range records {
		row := make([]float64, len(Features))
		for j, f := range Features {
			row[j] = f.Value(&records[i])
		}
		out[i] = row
	}
	return out
}

func (e *Engine) cluster(ctx context.Context, records []domain.CampaignRecord, res *Result) error {
	if len(records) == 0 {
		return nil
	}

	var scaler stats.StandardScaler
	scaled, err := scaler.FitTransform(FeatureMatrix(records))
	if err != nil {
		return apperrors.NewAnalysisError("failed to scale segment features", err)
	}

	k := e.cfg.Clusters
	if distinct := stats.DistinctCount(scaled, k); distinct < k {
		e.logger.WarnContext(ctx, "fewer distinct feature vectors than clusters, lowering k",
			slog.Int("requested", k),
			slog.Int("k", distinct))
		k = distinct
	}

	km := stats.KMeans{K: k, Seed: e.cfg.Seed, MaxIter: e.cfg.MaxIterations, Tol: e.cfg.Tolerance}
	fit, err := km.Fit(scaled)
	if err != nil {
		return apperrors.NewAnalysisError("clustering failed", err).WithContext("k", k)
	}
	if !fit.Converged {
		e.logger.WarnContext(ctx, "k-means stopped at iteration cap",
			slog.Int("iterations", fit.Iterations))
	}

	res.K = k
	res.Inertia = fit.Inertia
	res.Iterations = fit.Iterations
	res.Converged = fit.Converged
	res.Assignments = make([]ClusterAssignment, len(records))
	for i, c := range fit.Assignments {
		res.Assignments[i] = ClusterAssignment{CampaignID: records[i].ID, Cluster: c}
	}
	res.Clusters = profiles(records, fit)
	return nil
}

// profiles averages the unscaled metrics of each cluster
func profiles(records []domain.CampaignRecord, fit *stats.KMeansResult) []ClusterProfile {
	out := make([]ClusterProfile, len(fit.Centroids))
	for c := range out {
		out[c] = ClusterProfile{Cluster: c, Centroid: fit.Centroids[c]}
	}
	for i, c := range fit.Assignments {
		r := records[i]
		p := &out[c]
		p.Size++
		p.ConversionRate += r.ConversionRate
		p.ROI += r.ROI
		p.AcquisitionCost += r.AcquisitionCost
		p.EngagementScore += float64(r.EngagementScore)
		p.EngagementRate += r.EngagementRate
	}
	for c := range out {
		p := &out[c]
		if p.Size == 0 {
			continue
		}
		n := float64(p.Size)
		p.ConversionRate /= n
		p.ROI /= n
		p.AcquisitionCost /= n
		p.EngagementScore /= n
		p.EngagementRate /= n
	}
	return out
}

func round(v float64, places int) float64 {
	return stats.Round(v, places)
}
