// Package dataprocessing turns raw campaign tables into the cleaned,
// derived record set every analysis engine consumes, and provides the
// aggregation primitives those engines share.
//
// # Architecture
//
//  1. Loader: reads CSV or XLSX input in chunks, checks the sixteen required
//     columns and coerces cells (dates, currency strings, numerics)
//  2. Cleaner: a sequence of pure steps (impute, deduplicate, normalize,
//     repair, derive) producing immutable CampaignRecords plus a summary
//  3. Aggregation: AggregateTable (dimension tuple to running statistics)
//     and Pivot (row by integer column with explicit absent cells)
//
// # Usage
//
//	loader := dataprocessing.NewLoader(50000, logger)
//	loaded, err := loader.Load(ctx, "data/raw/campaigns.csv")
//	if err != nil {
//	    return err // SCHEMA or TYPE_COERCION application error
//	}
//
//	cleaner := dataprocessing.NewCleaner(logger)
//	cleaned, err := cleaner.Clean(ctx, loaded.Records)
//
// # Error Handling
//
// Loader failures are fatal and returned as application errors carrying the
// offending column, row and value. Data quality problems found after the
// schema check are never errors: the cleaner repairs them and reports each
// repair in the CleaningSummary.
package dataprocessing
