// Package exporter writes analysis results to disk.
//
// CSVWriter is the core writer with streaming support and an optional UTF-8
// BOM for Excel. Exporter lays the pipeline outputs out under the configured
// paths: the cleaned dataset, summary and dashboard JSON, one CSV per
// analysis table and a workbook holding every table on its own sheet.
//
// Example usage:
//
//	exp := exporter.New(paths, logger)
//	files, err := exp.ExportTables(paths.ChannelDir, "channel", result.Tables())
package exporter
