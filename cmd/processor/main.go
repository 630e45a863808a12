package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaignpulse/internal/config"
	"campaignpulse/internal/infrastructure"
	"campaignpulse/internal/pipeline"
	"campaignpulse/internal/validation"
	"campaignpulse/pkg/contracts"
	"campaignpulse/pkg/contracts/domain"
)

// options holds the command line overrides of the loaded config
type options struct {
	in         string
	out        string
	k          int
	seed       uint64
	refDate    string
	sequential bool
	set        map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths.BaseDir)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		return 1
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create output directories", slog.String("error", err.Error()))
		return 1
	}

	validator := validation.NewInputValidator(logger)
	if err := validator.ValidateInputFile(cfg.Paths.InputFile); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err := validator.ValidateOutputDirectory(paths.OutputDir); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger.Info("Starting campaign analysis",
		slog.String("version", contracts.Version),
		slog.String("input", cfg.Paths.InputFile),
		slog.String("base_dir", paths.BaseDir),
		slog.Int("clusters", cfg.Analysis.Clusters),
		slog.Bool("parallel", cfg.Analysis.Parallel))

	runner, err := pipeline.NewRunner(pipeline.Options{
		Input:    cfg.Paths.InputFile,
		Paths:    paths,
		Analysis: cfg.Analysis,
		Logger:   logger,
		Now:      time.Now,
	})
	if err != nil {
		logger.Error("Failed to create pipeline", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	state, err := runner.Run(ctx)
	if state != nil {
		printSummary(stdout, state)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.in, "in", "", "input campaign file (.csv or .xlsx)")
	fs.StringVar(&opts.out, "out", "", "base directory for processed/ and output/")
	fs.IntVar(&opts.k, "k", config.DefaultClusters, "number of k-means clusters")
	fs.Uint64Var(&opts.seed, "seed", config.DefaultSeed, "k-means seed")
	fs.StringVar(&opts.refDate, "ref-date", "", "RFM reference date (YYYY-MM-DD), defaults to now")
	fs.BoolVar(&opts.sequential, "sequential", false, "run independent engines one after another")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// apply overrides cfg with the flags given explicitly and revalidates it
func (o *options) apply(cfg *config.Config) error {
	if o.set["in"] {
		cfg.Paths.InputFile = o.in
	}
	if o.set["out"] {
		cfg.Paths.BaseDir = o.out
	}
	if o.set["k"] {
		cfg.Analysis.Clusters = o.k
	}
	if o.set["seed"] {
		cfg.Analysis.Seed = o.seed
	}
	if o.set["ref-date"] {
		cfg.Analysis.ReferenceDate = o.refDate
	}
	if o.sequential {
		cfg.Analysis.Parallel = false
	}
	if cfg.Paths.InputFile == "" {
		return errors.New("an input file is required (-in)")
	}
	return cfg.Validate()
}

func printSummary(w io.Writer, state *pipeline.State) {
	summary := state.DataSummary()
	outputs := state.Outputs()

	state.View(func(s *pipeline.State) {
		fmt.Fprintf(w, "Run %s %s in %s\n", s.RunID, s.Status, s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
		fmt.Fprintf(w, "  Rows: %d loaded, %d kept, %d removed\n",
			summary.Cleaning.InitialRows, summary.Cleaning.FinalRows, summary.Cleaning.RowsRemoved)
		fmt.Fprintf(w, "  Repairs: %d missing, %d negative, %d out of range, %d duplicate\n",
			summary.Cleaning.RepairCount(domain.RepairMissing),
			summary.Cleaning.RepairCount(domain.RepairNegative),
			summary.Cleaning.RepairCount(domain.RepairOutOfRange),
			summary.Cleaning.RepairCount(domain.RepairDuplicate))
		if s.Segment != nil {
			fmt.Fprintf(w, "  Segments: %d RFM rows, %d clusters (requested %d)\n",
				len(s.Segment.RFM), s.Segment.K, s.Segment.RequestedK)
		}
		if s.Channel != nil {
			fmt.Fprintf(w, "  Channels: %d analyzed\n", len(s.Channel.Metrics))
		}
		if s.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", s.Error)
		}
	})

	fmt.Fprintf(w, "  Outputs: %d files\n", len(outputs))
}
