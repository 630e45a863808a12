package dataprocessing

import (
	"math"
	"slices"
	"strings"

	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

const keySep = "\x1f"

// Key is an ordered dimension tuple
type Key []string

func (k Key) String() string {
	return strings.Join(k, keySep)
}

// Dimension extracts one grouping value from a record
type Dimension struct {
	Name  string
	Value func(*domain.CampaignRecord) string
}

// Metric extracts one numeric value from a record
type Metric struct {
	Name  string
	Value func(*domain.CampaignRecord) float64
}

// Grouping dimensions shared by the engines.
var (
	ByChannel          = Dimension{domain.ColChannel, func(r *domain.CampaignRecord) string { return r.Channel }}
	ByCampaignType     = Dimension{domain.ColCampaignType, func(r *domain.CampaignRecord) string { return r.CampaignType }}
	ByAudience         = Dimension{domain.ColTargetAudience, func(r *domain.CampaignRecord) string { return r.TargetAudience }}
	BySegment          = Dimension{domain.ColCustomerSegment, func(r *domain.CampaignRecord) string { return r.CustomerSegment }}
	ByLocation         = Dimension{domain.ColLocation, func(r *domain.CampaignRecord) string { return r.Location }}
	ByDurationCategory = Dimension{domain.ColDurationCategory, func(r *domain.CampaignRecord) string { return r.DurationCategory }}
	ByMonth            = Dimension{domain.ColMonth, func(r *domain.CampaignRecord) string { return r.MonthPeriod() }}
	ByQuarter          = Dimension{domain.ColQuarter, func(r *domain.CampaignRecord) string { return r.QuarterPeriod() }}
)

// Metrics shared by the engines.
var (
	ConversionRate  = Metric{domain.ColConversionRate, func(r *domain.CampaignRecord) float64 { return r.ConversionRate }}
	ROI             = Metric{domain.ColROI, func(r *domain.CampaignRecord) float64 { return r.ROI }}
	AcquisitionCost = Metric{domain.ColAcquisitionCost, func(r *domain.CampaignRecord) float64 { return r.AcquisitionCost }}
	EngagementScore = Metric{domain.ColEngagementScore, func(r *domain.CampaignRecord) float64 { return float64(r.EngagementScore) }}
	EngagementRate  = Metric{domain.ColEngagementRate, func(r *domain.CampaignRecord) float64 { return r.EngagementRate }}
	Clicks          = Metric{domain.ColClicks, func(r *domain.CampaignRecord) float64 { return float64(r.Clicks) }}
	Impressions     = Metric{domain.ColImpressions, func(r *domain.CampaignRecord) float64 { return float64(r.Impressions) }}
)

// Accumulator holds running statistics for every metric of one group
type Accumulator struct {
	Count int
	sums  []float64
	mins  []float64
	maxs  []float64
}

func newAccumulator(metrics int) *Accumulator {
	a := &Accumulator{
		sums: make([]float64, metrics),
		mins: make([]float64, metrics),
		maxs: make([]float64, metrics),
	}
	for i := range metrics {
		a.mins[i] = math.Inf(1)
		a.maxs[i] = math.Inf(-1)
	}
	return a
}

func (a *Accumulator) add(values []float64) {
	a.Count++
	for i, v := range values {
		a.sums[i] += v
		a.mins[i] = math.Min(a.mins[i], v)
		a.maxs[i] = math.Max(a.maxs[i], v)
	}
}

// Sum returns the running sum of metric i
func (a *Accumulator) Sum(i int) float64 { return a.sums[i] }

// Min returns the smallest value of metric i, or +Inf for an empty group
func (a *Accumulator) Min(i int) float64 { return a.mins[i] }

// Max returns the largest value of metric i, or -Inf for an empty group
func (a *Accumulator) Max(i int) float64 { return a.maxs[i] }

// Mean returns the mean of metric i; ok is false when the group is empty.
func (a *Accumulator) Mean(i int) (float64, bool) {
	if a.Count == 0 {
		return 0, false
	}
	return a.sums[i] / float64(a.Count), true
}

// Group is one row of an AggregateTable
type Group struct {
	Key Key
	*Accumulator
}

// AggregateTable maps a dimension tuple to running statistics. There is
// exactly one row per distinct tuple; insertion order has no effect.
type AggregateTable struct {
	Dimensions []string
	Metrics    []string
	groups     map[string]*Group
}

// NewAggregateTable creates an empty table with the given column names
func NewAggregateTable(dimensions, metrics []string) *AggregateTable {
	return &AggregateTable{
		Dimensions: dimensions,
		Metrics:    metrics,
		groups:     make(map[string]*Group),
	}
}

// Aggregate groups records by dims and accumulates metrics per group.
func Aggregate(records []domain.CampaignRecord, dims []Dimension, metrics ...Metric) *AggregateTable {
	dimNames := make([]string, len(dims))
	for i, d := range dims {
		dimNames[i] = d.Name
	}
	metricNames := make([]string, len(metrics))
	for i, m := range metrics {
		metricNames[i] = m.Name
	}

	t := NewAggregateTable(dimNames, metricNames)
	key := make(Key, len(dims))
	values := make([]float64, len(metrics))
	for i := range records {
		r := &records[i]
		for j, d := range dims {
			key[j] = d.Value(r)
		}
		for j, m := range metrics {
			values[j] = m.Value(r)
		}
		t.Add(key, values)
	}
	return t
}

// Add accumulates one observation under key. values must line up with
// the table's metrics.
func (t *AggregateTable) Add(key Key, values []float64) {
	id := key.String()
	g, ok := t.groups[id]
	if !ok {
		g = &Group{Key: slices.Clone(key), Accumulator: newAccumulator(len(t.Metrics))}
		t.groups[id] = g
	}
	g.add(values)
}

// Len returns the number of groups
func (t *AggregateTable) Len() int {
	return len(t.groups)
}

// Get returns the group for the given tuple
func (t *AggregateTable) Get(key ...string) (*Group, bool) {
	g, ok := t.groups[Key(key).String()]
	return g, ok
}

// MetricIndex returns the position of a metric, or -1
func (t *AggregateTable) MetricIndex(name string) int {
	return slices.Index(t.Metrics, name)
}

// Mean returns the mean of a named metric for a group. ok is false for an
// unknown group or metric.
func (t *AggregateTable) Mean(key Key, metric string) (float64, bool) {
	g, ok := t.groups[key.String()]
	i := t.MetricIndex(metric)
	if !ok || i < 0 {
		return 0, false
	}
	return g.Mean(i)
}

// Groups returns every group sorted by key
func (t *AggregateTable) Groups() []*Group {
	out := make([]*Group, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *Group) int {
		return slices.Compare(a.Key, b.Key)
	})
	return out
}

// Stat selects the statistic a Column reports
type Stat int

const (
	StatMean Stat = iota
	StatSum
	StatCount
	StatMin
	StatMax
)

// Column describes one exported statistic of an AggregateTable
type Column struct {
	Header string
	Metric string
	Stat   Stat
}

// Mean, Sum and Count build Columns
func Mean(header, metric string) Column { return Column{header, metric, StatMean} }
func Sum(header, metric string) Column  { return Column{header, metric, StatSum} }
func Count(header string) Column        { return Column{Header: header, Stat: StatCount} }

// Table renders the aggregate as an exportable table with the dimension
// columns first. Floats are rounded to places decimals when places >= 0.
func (t *AggregateTable) Table(name string, places int, cols ...Column) domain.Table {
	header := slices.Clone(t.Dimensions)
	for _, c := range cols {
		header = append(header, c.Header)
	}

	out := domain.Table{Name: name, Header: header}
	for _, g := range t.Groups() {
		row := make([]any, 0, len(header))
		for _, k := range g.Key {
			row = append(row, k)
		}
		for _, c := range cols {
			row = append(row, t.cell(g, c, places))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (t *AggregateTable) cell(g *Group, c Column, places int) any {
	if c.Stat == StatCount {
		return g.Count
	}
	i := t.MetricIndex(c.Metric)
	if i < 0 || g.Count == 0 {
		return nil
	}

	var v float64
	switch c.Stat {
	case StatSum:
		v = g.Sum(i)
	case StatMin:
		v = g.Min(i)
	case StatMax:
		v = g.Max(i)
	default:
		v, _ = g.Mean(i)
	}
	if places >= 0 {
		v = stats.Round(v, places)
	}
	return v
}
