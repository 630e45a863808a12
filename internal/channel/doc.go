// Package channel measures marketing channel performance: per-channel
// totals and means, effectiveness and trend breakdowns, a one-way ANOVA
// across channels for conversion rate, ROI and engagement score, a Pearson
// correlation matrix over the performance metrics and rule-based
// recommendations comparing each channel with the overall means.
//
// Statistics that are undefined for the data (a cost per click with no
// clicks, an F-test with a single channel, a correlation against a constant
// column) are reported as absent rather than as zero.
package channel
