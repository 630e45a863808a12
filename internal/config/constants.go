package config

// Application constants
const (
	AppName = "campaignpulse"

	// Analysis defaults
	DefaultClusters          = 5
	DefaultSeed              = 42
	DefaultMaxIterations     = 300
	DefaultTolerance         = 1e-4
	DefaultSignificanceLevel = 0.05
	DefaultChunkSize         = 50000

	// Rate limiting for the report server
	DefaultRateLimit = 100
	DefaultBurstSize = 50
)

// Well-known output file names
const (
	CleanedDataFile   = "cleaned_campaign_data.csv"
	DataSummaryFile   = "data_summary.json"
	DashboardDataFile = "dashboard_data.json"
	WorkbookFile      = "analysis_report.xlsx"
	RunManifestFile   = "run_manifest.json"
)
