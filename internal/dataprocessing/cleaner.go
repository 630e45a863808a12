package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/stats"
	"campaignpulse/pkg/contracts/domain"
)

// CleanResult is the cleaned record set and what it took to produce it
type CleanResult struct {
	Records []domain.CampaignRecord
	Summary domain.CleaningSummary
}

// Cleaner repairs and derives a validated raw record set. Each step is a
// pure function over a fresh copy of the records; nothing is modified in
// place.
type Cleaner struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewCleaner creates a cleaner
func NewCleaner(logger *slog.Logger) *Cleaner {
	return &Cleaner{
		logger:   infrastructure.WithComponent(logger, "cleaner"),
		validate: validator.New(),
	}
}

// cleaningStep transforms records and reports the repairs it applied
type cleaningStep struct {
	name string
	run  func([]domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning)
}

// Clean runs drop → impute → deduplicate → normalize → repair → derive.
func (c *Cleaner) Clean(ctx context.Context, raw []domain.RawRecord) (*CleanResult, error) {
	steps := []cleaningStep{
		{"drop_unrepairable", dropUnrepairable},
		{"impute_missing", imputeMissing},
		{"deduplicate", deduplicate},
		{"normalize_text", normalizeText},
		{"repair_ranges", repairRanges},
	}

	summary := domain.CleaningSummary{InitialRows: len(raw)}
	records := raw
	for _, step := range steps {
		var warnings []domain.DataQualityWarning
		records, warnings = step.run(records)
		for _, w := range warnings {
			c.logger.WarnContext(ctx, "data quality repair",
				slog.String("step", step.name),
				slog.String("kind", string(w.Kind)),
				slog.String("column", w.Column),
				slog.Int("count", w.Count),
				slog.String("replacement", w.Replacement))
		}
		summary.Repairs = append(summary.Repairs, warnings...)
	}

	cleaned, warnings := derive(records)
	summary.Repairs = append(summary.Repairs, warnings...)

	for i := range cleaned {
		if err := c.validate.Struct(cleaned[i]); err != nil {
			return nil, apperrors.NewAppValidationError("cleaned record violates invariants").
				WithContext("campaign_id", cleaned[i].ID).
				WithContext("cause", err.Error())
		}
	}

	summary.FinalRows = len(cleaned)
	summary.RowsRemoved = summary.InitialRows - summary.FinalRows
	summary.DerivedFeaturesAdded = slices.Clone(domain.DerivedFeatures)

	c.logger.InfoContext(ctx, "cleaning complete",
		slog.Int("initial_rows", summary.InitialRows),
		slog.Int("final_rows", summary.FinalRows),
		slog.Int("rows_removed", summary.RowsRemoved),
		slog.Int("duplicates_removed", summary.RepairCount(domain.RepairDuplicate)))

	return &CleanResult{Records: cleaned, Summary: summary}, nil
}

// dropUnrepairable removes rows with no identity or no date; neither has a
// sensible replacement value.
func dropUnrepairable(in []domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning) {
	out := make([]domain.RawRecord, 0, len(in))
	missingID, missingDate := 0, 0
	for _, r := range in {
		switch {
		case strings.TrimSpace(r.ID) == "":
			missingID++
		case r.Date == nil:
			missingDate++
		default:
			out = append(out, r)
		}
	}

	var warnings []domain.DataQualityWarning
	if missingID > 0 {
		warnings = append(warnings, domain.DataQualityWarning{Kind: domain.RepairUnrepairable, Column: domain.ColCampaignID, Count: missingID, Replacement: "row dropped"})
	}
	if missingDate > 0 {
		warnings = append(warnings, domain.DataQualityWarning{Kind: domain.RepairUnrepairable, Column: domain.ColDate, Count: missingDate, Replacement: "row dropped"})
	}
	return out, warnings
}

// numericField addresses one nullable numeric column of a RawRecord
type numericField struct {
	column string
	get    func(*domain.RawRecord) *float64
	set    func(*domain.RawRecord, float64)
}

var numericFields = []numericField{
	{domain.ColClicks, func(r *domain.RawRecord) *float64 { return r.Clicks }, func(r *domain.RawRecord, v float64) { r.Clicks = &v }},
	{domain.ColImpressions, func(r *domain.RawRecord) *float64 { return r.Impressions }, func(r *domain.RawRecord, v float64) { r.Impressions = &v }},
	{domain.ColEngagementScore, func(r *domain.RawRecord) *float64 { return r.EngagementScore }, func(r *domain.RawRecord, v float64) { r.EngagementScore = &v }},
	{domain.ColConversionRate, func(r *domain.RawRecord) *float64 { return r.ConversionRate }, func(r *domain.RawRecord, v float64) { r.ConversionRate = &v }},
	{domain.ColROI, func(r *domain.RawRecord) *float64 { return r.ROI }, func(r *domain.RawRecord, v float64) { r.ROI = &v }},
	{domain.ColAcquisitionCost, func(r *domain.RawRecord) *float64 { return r.AcquisitionCost }, func(r *domain.RawRecord, v float64) { r.AcquisitionCost = &v }},
}

// textField addresses one categorical column of a RawRecord
type textField struct {
	column string
	get    func(*domain.RawRecord) string
	set    func(*domain.RawRecord, string)
}

var categoricalFields = []textField{
	{domain.ColCompany, func(r *domain.RawRecord) string { return r.Company }, func(r *domain.RawRecord, v string) { r.Company = v }},
	{domain.ColCampaignType, func(r *domain.RawRecord) string { return r.CampaignType }, func(r *domain.RawRecord, v string) { r.CampaignType = v }},
	{domain.ColTargetAudience, func(r *domain.RawRecord) string { return r.TargetAudience }, func(r *domain.RawRecord, v string) { r.TargetAudience = v }},
	{domain.ColChannel, func(r *domain.RawRecord) string { return r.Channel }, func(r *domain.RawRecord, v string) { r.Channel = v }},
	{domain.ColLocation, func(r *domain.RawRecord) string { return r.Location }, func(r *domain.RawRecord, v string) { r.Location = v }},
	{domain.ColLanguage, func(r *domain.RawRecord) string { return r.Language }, func(r *domain.RawRecord, v string) { r.Language = v }},
	{domain.ColCustomerSegment, func(r *domain.RawRecord) string { return r.CustomerSegment }, func(r *domain.RawRecord, v string) { r.CustomerSegment = v }},
}

// titleCased lists the columns normalized for grouping
var titleCased = []string{domain.ColCampaignType, domain.ColChannel, domain.ColLocation, domain.ColCustomerSegment}

func columnValues(records []domain.RawRecord, f numericField) []float64 {
	values := make([]float64, 0, len(records))
	for i := range records {
		if v := f.get(&records[i]); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// imputeMissing fills numeric nulls with the column median of the non-null
// values as they stood before any imputation, and categorical nulls with
// "Unknown". A column with no values at all is filled with 0.
func imputeMissing(in []domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning) {
	out := slices.Clone(in)
	var warnings []domain.DataQualityWarning

	for _, f := range numericFields {
		median, ok := stats.Median(columnValues(in, f))
		if !ok {
			median = 0
		}
		count := 0
		for i := range out {
			if f.get(&out[i]) == nil {
				f.set(&out[i], median)
				count++
			}
		}
		if count > 0 {
			warnings = append(warnings, domain.DataQualityWarning{
				Kind: domain.RepairMissing, Column: f.column, Count: count, Replacement: formatFloat(median),
			})
		}
	}

	for _, f := range categoricalFields {
		count := 0
		for i := range out {
			if strings.TrimSpace(f.get(&out[i])) == "" {
				f.set(&out[i], domain.UnknownCategory)
				count++
			}
		}
		if count > 0 {
			warnings = append(warnings, domain.DataQualityWarning{
				Kind: domain.RepairMissing, Column: f.column, Count: count, Replacement: domain.UnknownCategory,
			})
		}
	}

	return out, warnings
}

// deduplicate keeps the first record for every Campaign_ID
func deduplicate(in []domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning) {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.RawRecord, 0, len(in))
	for _, r := range in {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}

	removed := len(in) - len(out)
	if removed == 0 {
		return out, nil
	}
	return out, []domain.DataQualityWarning{{
		Kind: domain.RepairDuplicate, Column: domain.ColCampaignID, Count: removed, Replacement: "first occurrence kept",
	}}
}

// textNormalizer holds the casers of one normalization pass. A Caser keeps
// state and must not be shared between goroutines.
type textNormalizer struct {
	title cases.Caser
	fold  cases.Caser
}

func newTextNormalizer() *textNormalizer {
	return &textNormalizer{title: cases.Title(language.Und), fold: cases.Fold()}
}

// TitleCase title-cases each word of s and collapses runs of spaces. Words
// with inner capitals (e.g. "YouTube") keep them; only their first letter is
// raised.
func TitleCase(s string) string {
	return newTextNormalizer().titleCase(s)
}

func (n *textNormalizer) titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if isMixedCase(w) {
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + w[size:]
			continue
		}
		words[i] = n.title.String(w)
	}
	return strings.Join(words, " ")
}

// hasInnerCapitals reports whether v carries capitals plain title case drops
func (n *textNormalizer) hasInnerCapitals(v string) bool {
	return v != n.title.String(v)
}

func isMixedCase(w string) bool {
	hasUpper, hasLower := false, false
	for i, r := range w {
		if i == 0 {
			continue
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

// normalizeText title-cases the grouping columns and merges spellings that
// differ only in case under one canonical form, so "youtube", "YOUTUBE" and
// "YouTube" form a single group. A spelling with inner capitals wins over the
// plain title case; otherwise the first spelling seen is kept. Changed values
// are not counted as data quality problems.
func normalizeText(in []domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning) {
	out := slices.Clone(in)
	n := newTextNormalizer()
	keys := make([]string, len(out))

	for _, f := range categoricalFields {
		if !slices.Contains(titleCased, f.column) {
			continue
		}
		canonical := make(map[string]string)
		for i := range out {
			v := n.titleCase(f.get(&out[i]))
			keys[i] = n.fold.String(v)
			if cur, ok := canonical[keys[i]]; !ok || (!n.hasInnerCapitals(cur) && n.hasInnerCapitals(v)) {
				canonical[keys[i]] = v
			}
		}
		for i := range out {
			f.set(&out[i], canonical[keys[i]])
		}
	}
	return out, nil
}

// rangeRule describes the valid domain of a numeric column
type rangeRule struct {
	field    numericField
	min, max float64
	// fixed replaces invalid values instead of the column median
	fixed *float64
}

func ptr(v float64) *float64 { return &v }

// maxCount is the largest count held exactly by a float64; larger clicks or
// impressions would not survive the conversion to int64.
const maxCount = 1 << 53

var rangeRules = []rangeRule{
	{field: numericFields[0], min: 0, max: maxCount},
	{field: numericFields[1], min: 0, max: maxCount},
	{field: numericFields[2], min: 0, max: 10},
	{field: numericFields[3], min: 0, max: 1},
	{field: numericFields[5], min: 0, max: math.Inf(1), fixed: ptr(0)},
}

// repairRanges replaces invalid numeric values. The replacement is the
// column median taken after imputation over every current value, invalid
// ones included; if that median is itself invalid it is clamped into range.
// Values below zero are reported as negative, anything else outside the
// range as out of range.
func repairRanges(in []domain.RawRecord) ([]domain.RawRecord, []domain.DataQualityWarning) {
	out := slices.Clone(in)
	var warnings []domain.DataQualityWarning

	for _, rule := range rangeRules {
		replacement := 0.0
		if rule.fixed != nil {
			replacement = *rule.fixed
		} else {
			median, _ := stats.Median(columnValues(in, rule.field))
			replacement = stats.Clamp(median, rule.min, rule.max)
		}

		negative, outOfRange := 0, 0
		for i := range out {
			v := *rule.field.get(&out[i])
			if v >= rule.min && v <= rule.max {
				continue
			}
			if v < 0 {
				negative++
			} else {
				outOfRange++
			}
			rule.field.set(&out[i], replacement)
		}

		if negative > 0 {
			warnings = append(warnings, domain.DataQualityWarning{
				Kind: domain.RepairNegative, Column: rule.field.column, Count: negative, Replacement: formatFloat(replacement),
			})
		}
		if outOfRange > 0 {
			warnings = append(warnings, domain.DataQualityWarning{
				Kind: domain.RepairOutOfRange, Column: rule.field.column, Count: outOfRange, Replacement: formatFloat(replacement),
			})
		}
	}

	return out, warnings
}

// DurationCategory buckets a duration in days: (0,7] Short, (7,30] Medium,
// above 30 Long. Zero days has no bucket.
func DurationCategory(days int) string {
	switch {
	case days <= 0:
		return domain.UnknownCategory
	case days <= 7:
		return domain.DurationShort
	case days <= 30:
		return domain.DurationMedium
	default:
		return domain.DurationLong
	}
}

// EngagementCategory buckets an engagement score: (0,3] Low, (3,6] Medium,
// (6,10] High. A zero score has no bucket.
func EngagementCategory(score int) string {
	switch {
	case score <= 0:
		return domain.UnknownCategory
	case score <= 3:
		return domain.EngagementLow
	case score <= 6:
		return domain.EngagementMedium
	default:
		return domain.EngagementHigh
	}
}

// derive converts repaired raw records into CampaignRecords with every
// derived feature filled in.
func derive(in []domain.RawRecord) ([]domain.CampaignRecord, []domain.DataQualityWarning) {
	out := make([]domain.CampaignRecord, 0, len(in))
	zeroImpressions, badDuration := 0, 0

	for _, r := range in {
		days, ok := ParseDurationDays(r.Duration)
		if !ok || days < 0 {
			if strings.TrimSpace(r.Duration) != "" {
				badDuration++
			}
			days = 0
		}

		clicks := int64(math.Round(*r.Clicks))
		impressions := int64(math.Round(*r.Impressions))
		score := int(math.Round(*r.EngagementScore))

		rate := 0.0
		if impressions > 0 {
			rate = float64(clicks) / float64(impressions)
		} else if clicks > 0 {
			zeroImpressions++
		}

		date := *r.Date
		month := int(date.Month())
		out = append(out, domain.CampaignRecord{
			ID:              r.ID,
			Company:         r.Company,
			CampaignType:    r.CampaignType,
			TargetAudience:  r.TargetAudience,
			DurationDays:    days,
			Channel:         r.Channel,
			ConversionRate:  *r.ConversionRate,
			AcquisitionCost: *r.AcquisitionCost,
			ROI:             *r.ROI,
			Location:        r.Location,
			Language:        r.Language,
			Clicks:          clicks,
			Impressions:     impressions,
			EngagementScore: score,
			CustomerSegment: r.CustomerSegment,
			Date:            date,

			EngagementRate:     rate,
			DurationCategory:   DurationCategory(days),
			EngagementCategory: EngagementCategory(score),
			Month:              month,
			Quarter:            (month-1)/3 + 1,
			Year:               date.Year(),
		})
	}

	var warnings []domain.DataQualityWarning
	if zeroImpressions > 0 {
		warnings = append(warnings, domain.DataQualityWarning{
			Kind: domain.RepairOutOfRange, Column: domain.ColImpressions, Count: zeroImpressions, Replacement: "engagement rate 0",
		})
	}
	if badDuration > 0 {
		warnings = append(warnings, domain.DataQualityWarning{
			Kind: domain.RepairOutOfRange, Column: domain.ColDuration, Count: badDuration, Replacement: "0",
		})
	}
	return out, warnings
}
