package pipeline

import (
	"context"
	"log/slog"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/cohort"
	"campaignpulse/internal/config"
	"campaignpulse/internal/dashboard"
	"campaignpulse/internal/dataprocessing"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/exporter"
	"campaignpulse/internal/segment"
	"campaignpulse/pkg/contracts/domain"
)

// Step IDs of the default registration
const (
	StepLoad      = "load"
	StepClean     = "clean"
	StepCohort    = "cohort"
	StepSegment   = "segment"
	StepChannel   = "channel"
	StepDashboard = "dashboard"
	StepExport    = "export"
)

// LoadStep reads the raw input file
type LoadStep struct {
	BaseStep
	loader *dataprocessing.Loader
	path   string
	tracer *RunTracer
}

// NewLoadStep creates the load step
func NewLoadStep(loader *dataprocessing.Loader, path string, tracer *RunTracer) *LoadStep {
	return &LoadStep{
		BaseStep: NewBaseStep(StepLoad, "Load Campaign Data"),
		loader:   loader,
		path:     path,
		tracer:   tracer,
	}
}

// Run loads the input; any schema or coercion failure ends the run
func (s *LoadStep) Run(ctx context.Context, state *State) error {
	res, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return err
	}
	state.Update(func(st *State) { st.Load = res })
	s.tracer.RecordRecords(ctx, s.ID(), len(res.Records))
	return nil
}

// CleanStep repairs the loaded rows and derives features
type CleanStep struct {
	BaseStep
	cleaner *dataprocessing.Cleaner
	tracer  *RunTracer
}

// NewCleanStep creates the clean step
func NewCleanStep(cleaner *dataprocessing.Cleaner, tracer *RunTracer) *CleanStep {
	return &CleanStep{
		BaseStep: NewBaseStep(StepClean, "Clean Records", StepLoad),
		cleaner:  cleaner,
		tracer:   tracer,
	}
}

// Run cleans the loaded records and summarizes the result
func (s *CleanStep) Run(ctx context.Context, state *State) error {
	if state.Load == nil {
		return apperrors.NewAppValidationError("no loaded records to clean")
	}
	res, err := s.cleaner.Clean(ctx, state.Load.Records)
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		return apperrors.NewAppValidationError("no records left after cleaning").
			WithContext("initial_rows", res.Summary.InitialRows)
	}

	summary := dataprocessing.Summarize(res.Records)
	state.Update(func(st *State) {
		st.Records = res.Records
		st.Cleaning = res.Summary
		st.Dataset = summary
	})
	s.tracer.RecordRecords(ctx, s.ID(), len(res.Records))
	s.tracer.RecordRepairs(ctx, res.Summary.Repairs)
	return nil
}

// CohortStep runs the cohort engine
type CohortStep struct {
	BaseStep
	engine *cohort.Engine
}

// NewCohortStep creates the cohort step
func NewCohortStep(engine *cohort.Engine) *CohortStep {
	return &CohortStep{BaseStep: NewBaseStep(StepCohort, "Cohort Analysis", StepClean), engine: engine}
}

// Run analyzes cohorts
func (s *CohortStep) Run(ctx context.Context, state *State) error {
	res, err := s.engine.Analyze(ctx, state.Records)
	if err != nil {
		return err
	}
	state.Update(func(st *State) { st.Cohort = res })
	return nil
}

// SegmentStep runs the segment engine
type SegmentStep struct {
	BaseStep
	engine *segment.Engine
}

// NewSegmentStep creates the segment step
func NewSegmentStep(engine *segment.Engine) *SegmentStep {
	return &SegmentStep{BaseStep: NewBaseStep(StepSegment, "Segment Analysis", StepClean), engine: engine}
}

// Run analyzes audience segments
func (s *SegmentStep) Run(ctx context.Context, state *State) error {
	res, err := s.engine.Analyze(ctx, state.Records)
	if err != nil {
		return err
	}
	state.Update(func(st *State) { st.Segment = res })
	return nil
}

// ChannelStep runs the channel engine
type ChannelStep struct {
	BaseStep
	engine *channel.Engine
}

// NewChannelStep creates the channel step
func NewChannelStep(engine *channel.Engine) *ChannelStep {
	return &ChannelStep{BaseStep: NewBaseStep(StepChannel, "Channel Analysis", StepClean), engine: engine}
}

// Run analyzes channel performance
func (s *ChannelStep) Run(ctx context.Context, state *State) error {
	res, err := s.engine.Analyze(ctx, state.Records)
	if err != nil {
		return err
	}
	state.Update(func(st *State) { st.Channel = res })
	return nil
}

// NewDashboardStep builds the dashboard dataset
func NewDashboardStep() Step {
	return NewFuncStep(StepDashboard, "Dashboard Dataset", func(ctx context.Context, state *State) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := dashboard.Build(state.Records)
		state.Update(func(st *State) { st.Dashboard = d })
		return nil
	}, StepClean)
}

// ExportStep writes every result to disk
type ExportStep struct {
	BaseStep
	paths    *config.Paths
	exporter *exporter.Exporter
	logger   *slog.Logger
}

// NewExportStep creates the export step
func NewExportStep(paths *config.Paths, exp *exporter.Exporter, logger *slog.Logger) *ExportStep {
	return &ExportStep{
		BaseStep: NewBaseStep(StepExport, "Export Results", StepCohort, StepSegment, StepChannel, StepDashboard),
		paths:    paths,
		exporter: exp,
		logger:   logger,
	}
}

// Run writes the processed dataset, every analysis table, the dashboard
// document and the workbook
func (s *ExportStep) Run(ctx context.Context, state *State) error {
	if err := s.paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to create output directories", err)
	}

	cleaned, err := s.exporter.ExportCleaned(state.Records)
	if err != nil {
		return err
	}
	state.AddOutputs(cleaned)

	summary, err := s.exporter.ExportJSON(s.paths.SummaryJSON, "processed", state.DataSummary())
	if err != nil {
		return err
	}
	state.AddOutputs(summary)

	groups := []struct {
		dir, category string
		tables        func() []domain.Table
	}{
		{s.paths.CohortDir, "cohort", func() []domain.Table { return state.Cohort.Tables() }},
		{s.paths.SegmentDir, "segment", func() []domain.Table { return state.Segment.Tables() }},
		{s.paths.ChannelDir, "channel", func() []domain.Table { return state.Channel.Tables() }},
	}

	var sheets []exporter.Sheet
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		tables := g.tables()
		files, err := s.exporter.ExportTables(g.dir, g.category, tables)
		state.AddOutputs(files...)
		if err != nil {
			return err
		}
		sheets = append(sheets, exporter.SheetsFor(g.category, tables)...)
	}

	dash, err := s.exporter.ExportJSON(s.paths.DashboardJSON, "dashboard", state.Dashboard)
	if err != nil {
		return err
	}
	state.AddOutputs(dash)

	workbook, err := s.exporter.ExportWorkbook(sheets)
	if err != nil {
		return err
	}
	state.AddOutputs(workbook)

	s.logger.InfoContext(ctx, "results exported",
		slog.Int("files", len(state.Outputs())),
		slog.Int("sheets", len(sheets)))
	return nil
}
