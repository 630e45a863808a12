package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/config"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/shared/testutil"
	"campaignpulse/pkg/contracts/domain"
)

func fixtureRows() []testutil.CampaignRow {
	return []testutil.CampaignRow{
		testutil.DefaultRow("1"),
		testutil.DefaultRow("2").
			With(domain.ColChannel, "YouTube").
			With(domain.ColROI, "5.5").
			With(domain.ColTargetAudience, "Women 25-34").
			With(domain.ColEngagementScore, "8").
			With(domain.ColDate, "2021-02-10"),
		testutil.DefaultRow("3").
			With(domain.ColChannel, "YouTube").
			With(domain.ColROI, "7").
			With(domain.ColConversionRate, "0.1").
			With(domain.ColDate, "2021-03-10"),
		testutil.DefaultRow("4").
			With(domain.ColROI, "3").
			With(domain.ColTargetAudience, "Women 25-34").
			With(domain.ColEngagementScore, "2").
			With(domain.ColDate, "2021-02-15"),
		testutil.DefaultRow("5").
			With(domain.ColChannel, "Instagram").
			With(domain.ColROI, "4.5").
			With(domain.ColLocation, "Miami").
			With(domain.ColDate, "2021-04-01"),
		testutil.DefaultRow("1"),
	}
}

func newOptions(t *testing.T, input string, parallel bool) Options {
	t.Helper()
	paths, err := config.NewPaths(t.TempDir())
	require.NoError(t, err)

	analysis := config.Default().Analysis
	analysis.Clusters = 2
	analysis.ReferenceDate = "2021-06-01"
	analysis.Parallel = parallel

	logger, _ := testutil.NewTestLogger(t)
	return Options{
		Input:    input,
		Paths:    paths,
		Analysis: analysis,
		Logger:   logger,
		Now:      func() time.Time { return testutil.Date(2024, time.May, 1) },
	}
}

func readManifest(t *testing.T, paths *config.Paths) domain.AnalysisRun {
	t.Helper()
	data, err := os.ReadFile(paths.RunManifest)
	require.NoError(t, err)
	var run domain.AnalysisRun
	require.NoError(t, json.Unmarshal(data, &run))
	return run
}

func TestRunner_EndToEnd(t *testing.T) {
	input := testutil.WriteCampaignCSV(t, t.TempDir(), "campaigns.csv", fixtureRows()...)
	opts := newOptions(t, input, true)

	runner, err := NewRunner(opts)
	require.NoError(t, err)

	state, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, state.Status)
	assert.Len(t, state.Records, 5)
	assert.Equal(t, 1, state.Cleaning.RepairCount(domain.RepairDuplicate))
	assert.Equal(t, 5, state.Dataset.TotalCampaigns)
	require.NotNil(t, state.Cohort)
	require.NotNil(t, state.Segment)
	require.NotNil(t, state.Channel)
	require.NotNil(t, state.Dashboard)
	assert.Equal(t, 2, state.Segment.K)
	assert.Len(t, state.Channel.Metrics, 3)
	assert.Equal(t, testutil.Date(2021, time.June, 1), state.Segment.ReferenceDate)

	p := opts.Paths
	for _, path := range []string{
		p.CleanedCSV,
		p.SummaryJSON,
		p.DashboardJSON,
		p.Workbook,
		p.RunManifest,
		filepath.Join(p.CohortDir, "cohort_retention_matrix.csv"),
		filepath.Join(p.SegmentDir, "rfm_metrics.csv"),
		filepath.Join(p.ChannelDir, "channel_recommendations.csv"),
		filepath.Join(p.ChannelDir, "statistical_analysis.csv"),
	} {
		assert.FileExists(t, path)
	}

	run := readManifest(t, p)
	assert.Equal(t, state.RunID, run.ID)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Parameters.Clusters)
	require.Len(t, run.Steps, 7)
	assert.Equal(t, StepLoad, run.Steps[0].ID)
	assert.Equal(t, StepExport, run.Steps[6].ID)
	for _, s := range run.Steps {
		assert.Equal(t, string(StepStatusCompleted), s.Status, s.ID)
	}
	assert.NotEmpty(t, run.Outputs)
}

func TestRunner_ParallelMatchesSequential(t *testing.T) {
	input := testutil.WriteCampaignCSV(t, t.TempDir(), "campaigns.csv", fixtureRows()...)

	run := func(parallel bool) *State {
		runner, err := NewRunner(newOptions(t, input, parallel))
		require.NoError(t, err)
		state, err := runner.Run(context.Background())
		require.NoError(t, err)
		return state
	}

	seq, par := run(false), run(true)
	assert.Equal(t, seq.Records, par.Records)
	assert.Equal(t, seq.Channel.Metrics, par.Channel.Metrics)
	assert.Equal(t, seq.Segment.Assignments, par.Segment.Assignments)
	assert.Equal(t, seq.Cohort.Assignments, par.Cohort.Assignments)
}

func TestRunner_SchemaErrorStopsRun(t *testing.T) {
	header := slices.DeleteFunc(slices.Clone(domain.RequiredColumns), func(c string) bool { return c == domain.ColROI })
	input := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(input, []byte(testutil.CampaignCSVWithHeader(header, testutil.DefaultRow("1"))), 0o644))

	opts := newOptions(t, input, true)
	runner, err := NewRunner(opts)
	require.NoError(t, err)

	state, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaError(err))
	assert.Equal(t, domain.RunStatusFailed, state.Status)

	assert.Equal(t, StepStatusFailed, state.Step(StepLoad).GetStatus())
	for _, id := range []string{StepClean, StepCohort, StepSegment, StepChannel, StepDashboard, StepExport} {
		assert.Equal(t, StepStatusSkipped, state.Step(id).GetStatus(), id)
	}
	assert.Nil(t, state.Cohort)
	assert.NoFileExists(t, opts.Paths.CleanedCSV)

	run := readManifest(t, opts.Paths)
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "missing required columns")
}

func TestRunner_FailingStepCancelsLevel(t *testing.T) {
	var ran atomic.Int32
	boom := errors.New("boom")

	registry := NewRegistry()
	for _, s := range []Step{
		NewFuncStep("a", "A", func(context.Context, *State) error { ran.Add(1); return nil }),
		NewFuncStep("b", "B", func(context.Context, *State) error { return boom }, "a"),
		NewFuncStep("c", "C", func(ctx context.Context, _ *State) error {
			<-ctx.Done()
			return ctx.Err()
		}, "a"),
		NewFuncStep("d", "D", func(context.Context, *State) error { ran.Add(1); return nil }, "b", "c"),
	} {
		require.NoError(t, registry.Register(s))
	}

	opts := newOptions(t, "unused.csv", true)
	runner, err := NewRunnerWithRegistry(opts, registry)
	require.NoError(t, err)

	state, err := runner.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step b")
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, StepStatusFailed, state.Step("b").GetStatus())
	assert.Equal(t, StepStatusSkipped, state.Step("d").GetStatus())
}

func TestRunner_CancelledContext(t *testing.T) {
	input := testutil.WriteCampaignCSV(t, t.TempDir(), "campaigns.csv", fixtureRows()...)
	runner, err := NewRunner(newOptions(t, input, false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StepStatusSkipped, state.Step(StepLoad).GetStatus())
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Options{Input: "x.csv"})
	require.Error(t, err)
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrTypeConfig, typ)

	opts := newOptions(t, "", true)
	_, err = NewRunner(opts)
	assert.Error(t, err)

	opts = newOptions(t, "x.csv", true)
	opts.Analysis.ReferenceDate = "June 1st"
	_, err = NewRunner(opts)
	assert.Error(t, err)
}
