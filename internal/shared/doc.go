// Package shared holds helpers used across packages that belong to no single
// layer.
//
// The testutil subpackage provides a capturing slog handler for log
// assertions and campaign fixtures: raw CSV rows with a valid default for
// every required column, and cleaned records with consistent derived fields.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteCampaignCSV(t, t.TempDir(), "in.csv", testutil.DefaultRow("1"))
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "null values found")
//	}
package shared
