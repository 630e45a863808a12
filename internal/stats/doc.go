// Package stats holds the numeric routines behind the analysis engines:
// medians and rounding, feature standardization, seeded k-means
// partitioning, one-way ANOVA and Pearson correlation matrices.
//
// Descriptive statistics and distribution functions come from gonum.
// Everything here is pure and deterministic for a fixed input and seed.
package stats
