package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/cohort"
	"campaignpulse/internal/config"
	"campaignpulse/internal/dataprocessing"
	apperrors "campaignpulse/internal/errors"
	"campaignpulse/internal/exporter"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/segment"
	"campaignpulse/pkg/contracts/domain"
)

// Options configures a Runner
type Options struct {
	Input    string
	Paths    *config.Paths
	Analysis config.AnalysisConfig
	Logger   *slog.Logger
	Metrics  *infrastructure.PipelineMetrics
	// Now is the clock used for run timestamps and a missing reference date
	Now func() time.Time
}

// Runner executes registered steps level by level
type Runner struct {
	opts     Options
	registry *Registry
	logger   *slog.Logger
	tracer   *RunTracer
	exporter *exporter.Exporter
}

// NewRunner creates a runner with the default step registration
func NewRunner(opts Options) (*Runner, error) {
	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}
	if err := r.registerDefaultSteps(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRunnerWithRegistry creates a runner over a caller-supplied registry
func NewRunnerWithRegistry(opts Options, registry *Registry) (*Runner, error) {
	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	r.registry = registry
	return r, nil
}

func newRunner(opts Options) (*Runner, error) {
	if opts.Paths == nil {
		return nil, apperrors.NewConfigError("pipeline requires output paths", nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := infrastructure.WithComponent(opts.Logger, "pipeline")
	return &Runner{
		opts:     opts,
		registry: NewRegistry(),
		logger:   logger,
		tracer:   NewRunTracer(opts.Metrics),
		exporter: exporter.New(opts.Paths, opts.Logger),
	}, nil
}

func (r *Runner) registerDefaultSteps() error {
	if r.opts.Input == "" {
		return apperrors.NewConfigError("pipeline requires an input file", nil)
	}
	ref, err := r.referenceDate()
	if err != nil {
		return err
	}
	a := r.opts.Analysis
	log := r.opts.Logger

	steps := []Step{
		NewLoadStep(dataprocessing.NewLoader(a.ChunkSize, log), r.opts.Input, r.tracer),
		NewCleanStep(dataprocessing.NewCleaner(log), r.tracer),
		NewCohortStep(cohort.NewEngine(log)),
		NewSegmentStep(segment.NewEngine(segment.Config{
			Clusters:      a.Clusters,
			Seed:          a.Seed,
			MaxIterations: a.MaxIterations,
			Tolerance:     a.Tolerance,
			ReferenceDate: ref,
		}, log)),
		NewChannelStep(channel.NewEngine(channel.Config{SignificanceLevel: a.SignificanceLevel}, log)),
		NewDashboardStep(),
		NewExportStep(r.opts.Paths, r.exporter, r.logger),
	}
	for _, s := range steps {
		if err := r.registry.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// referenceDate is the configured reference date, or zero to let the
// segment engine use the time of analysis
func (r *Runner) referenceDate() (time.Time, error) {
	if r.opts.Analysis.ReferenceDate == "" {
		return time.Time{}, nil
	}
	return r.opts.Analysis.Reference(r.opts.Now())
}

// Registry returns the runner's step registry
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes every registered step. The returned state is never nil; on
// failure it holds the steps that did complete and the run manifest is
// still written.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(infrastructure.EnsureTraceID(ctx), runID)

	ref, err := r.referenceDate()
	if err != nil {
		return nil, err
	}
	a := r.opts.Analysis
	state := NewState(runID, r.opts.Input, domain.RunParameters{
		Clusters:      a.Clusters,
		Seed:          a.Seed,
		ReferenceDate: ref,
		Parallel:      a.Parallel,
	})

	levels, err := r.registry.Levels()
	if err != nil {
		return nil, apperrors.NewConfigError("invalid step registration", err)
	}
	for _, level := range levels {
		for _, step := range level {
			state.addStep(step)
		}
	}

	ctx, span := r.tracer.TraceRun(ctx, state)
	defer span.End()

	state.Update(func(s *State) {
		s.Status = domain.RunStatusRunning
		s.StartTime = r.opts.Now()
	})
	r.logger.InfoContext(ctx, "run started",
		slog.String("input", r.opts.Input),
		slog.Int("steps", r.registry.Count()),
		slog.Int("levels", len(levels)),
		slog.Bool("parallel", a.Parallel))

	runErr := r.runLevels(ctx, state, levels)

	state.Update(func(s *State) {
		s.EndTime = r.opts.Now()
		if runErr != nil {
			s.Status = domain.RunStatusFailed
			s.Error = runErr
		} else {
			s.Status = domain.RunStatusCompleted
		}
	})
	r.tracer.RecordRunCompletion(ctx, span, state)

	if err := r.writeManifest(state); err != nil {
		r.logger.ErrorContext(ctx, "failed to write run manifest", slog.String("error", err.Error()))
		if runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		r.logger.ErrorContext(ctx, "run failed",
			slog.String("error", runErr.Error()),
			slog.Duration("duration", state.EndTime.Sub(state.StartTime)))
		return state, runErr
	}
	r.logger.InfoContext(ctx, "run completed",
		slog.Int("records", len(state.Records)),
		slog.Int("outputs", len(state.Outputs())),
		slog.Duration("duration", state.EndTime.Sub(state.StartTime)))
	return state, nil
}

func (r *Runner) runLevels(ctx context.Context, state *State, levels [][]Step) error {
	for i, level := range levels {
		var err error
		if r.opts.Analysis.Parallel && len(level) > 1 {
			err = r.runParallel(ctx, state, level)
		} else {
			err = r.runSequential(ctx, state, level)
		}
		if err != nil {
			r.skipRemaining(state, levels[i:])
			return err
		}
	}
	return nil
}

func (r *Runner) runSequential(ctx context.Context, state *State, level []Step) error {
	for _, step := range level {
		if err := r.runStep(ctx, state, step); err != nil {
			return err
		}
	}
	return nil
}

// runParallel runs a level's steps concurrently. The first failure cancels
// the others.
func (r *Runner) runParallel(ctx context.Context, state *State, level []Step) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, step := range level {
		g.Go(func() error {
			return r.runStep(gctx, state, step)
		})
	}
	return g.Wait()
}

func (r *Runner) runStep(ctx context.Context, state *State, step Step) error {
	st := state.Step(step.ID())
	if err := ctx.Err(); err != nil {
		st.Skip("run cancelled")
		return err
	}

	ctx, span := r.tracer.TraceStep(ctx, state.RunID, step)
	defer span.End()

	r.logger.DebugContext(ctx, "step started", slog.String("step", step.ID()))
	st.Start()
	start := time.Now()
	err := step.Run(ctx, state)
	duration := time.Since(start)
	r.tracer.RecordStepCompletion(ctx, span, step.ID(), duration, err)

	if err != nil {
		st.Fail(err)
		r.logger.ErrorContext(ctx, "step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return fmt.Errorf("step %s: %w", step.ID(), err)
	}

	st.Complete()
	r.logger.InfoContext(ctx, "step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

// skipRemaining marks every step that never started as skipped
func (r *Runner) skipRemaining(state *State, levels [][]Step) {
	for _, level := range levels {
		for _, step := range level {
			if st := state.Step(step.ID()); st.GetStatus() == StepStatusPending {
				st.Skip("previous step failed")
			}
		}
	}
}

func (r *Runner) writeManifest(state *State) error {
	if err := r.opts.Paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to create output directories", err)
	}
	_, err := r.exporter.ExportJSON(r.opts.Paths.RunManifest, "run", state.Manifest())
	return err
}
