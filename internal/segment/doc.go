// Package segment profiles target audiences: RFM metrics per audience,
// k-means clusters over standardized campaign performance features, and
// performance and trend tables keyed by audience.
//
// Clustering is deterministic for a fixed seed. When the data holds fewer
// distinct feature vectors than the requested number of clusters, k is
// lowered to that count and a warning is logged.
package segment
