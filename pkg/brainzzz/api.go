// Package brainzzz is the in-process API over the incubator, the run store
// and the on-disk run artifacts.
package brainzzz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"brainzzz/internal/config"
	"brainzzz/internal/model"
	"brainzzz/internal/platform"
	"brainzzz/internal/stats"
	"brainzzz/internal/storage"
)

const (
	defaultOutputDir = "runs"
	defaultDBPath    = "brainzzz.db"
	defaultRunsLimit = 20
)

type Options struct {
	StoreKind string
	DBPath    string
	// OutputDir holds one artifact directory per run plus run_index.json.
	OutputDir string
	Logger    *slog.Logger
}

type Client struct {
	store       storage.Store
	outputDir   string
	logger      *slog.Logger
	initialized bool
}

type RunRequest struct {
	// Config defaults to the embedded defaults when nil.
	Config *config.Config
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	FinalBestFitness float64
	GenerationsRun   int
	ChampionID       string
	StopReason       string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Task             string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
	ChampionID       string
}

type StatsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type StatsSummary struct {
	RunID       string
	Generations []model.GenerationStats
	Summary     stats.Summary
}

type ChampionRequest struct {
	RunID  string
	Latest bool
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, outputDir: outputDir, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run evolves a population under req.Config, persists it to the store and
// writes the run's artifact directory and index entry.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return RunSummary{}, err
		}
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	inc, err := platform.NewIncubator(ctx, platform.Options{
		Config: cfg,
		Store:  c.store,
		Logger: c.logger,
	})
	if err != nil {
		return RunSummary{}, err
	}
	result, err := inc.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	artifacts := stats.RunArtifacts{
		Run:         result.Run,
		Config:      cfg,
		Generations: result.Generations,
	}
	if result.Champion.ID != "" {
		champion := result.Champion
		artifacts.Champion = &champion
	}
	runDir, err := stats.WriteRunArtifacts(c.outputDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.outputDir, stats.RunIndexEntry{
		RunID:            result.Run.ID,
		Task:             result.Run.Task,
		PopulationSize:   result.Run.PopulationSize,
		Generations:      result.Run.GenerationsRun,
		Seed:             result.Run.Seed,
		Workers:          cfg.Run.Workers,
		FinalBestFitness: result.Run.BestFitness,
		ChampionID:       result.Run.ChampionID,
		CreatedAtUTC:     result.Run.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            result.Run.ID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: stats.BestSeries(result.Generations),
		FinalBestFitness: result.Run.BestFitness,
		GenerationsRun:   result.Run.GenerationsRun,
		ChampionID:       result.Run.ChampionID,
		StopReason:       string(result.StopReason),
	}, nil
}

// Runs lists indexed runs, newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	entries, err := stats.ListRunIndex(c.outputDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Task:             e.Task,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			FinalBestFitness: e.FinalBestFitness,
			ChampionID:       e.ChampionID,
		})
	}
	return out, nil
}

// Stats returns a run's generation rows, from the store when it still holds
// the run and from generation_stats.csv otherwise.
func (c *Client) Stats(ctx context.Context, req StatsRequest) (StatsSummary, error) {
	if req.Limit < 0 {
		return StatsSummary{}, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "stats")
	if err != nil {
		return StatsSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return StatsSummary{}, err
	}

	generations, ok, err := c.store.GetGenerationStats(ctx, runID)
	if err != nil {
		return StatsSummary{}, err
	}
	if !ok {
		generations, ok, err = stats.ReadGenerationStats(c.outputDir, runID)
		if err != nil {
			return StatsSummary{}, err
		}
	}
	if !ok {
		return StatsSummary{}, fmt.Errorf("generation stats not found for run id: %s", runID)
	}

	summary := stats.Summarize(generations)
	if req.Limit > 0 && len(generations) > req.Limit {
		generations = generations[:req.Limit]
	}
	return StatsSummary{RunID: runID, Generations: generations, Summary: summary}, nil
}

// Champion returns the best-ever brain snapshot of a run.
func (c *Client) Champion(ctx context.Context, req ChampionRequest) (model.BrainRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "champion")
	if err != nil {
		return model.BrainRecord{}, err
	}
	if err := c.Init(ctx); err != nil {
		return model.BrainRecord{}, err
	}

	if run, ok, err := c.store.GetRun(ctx, runID); err != nil {
		return model.BrainRecord{}, err
	} else if ok && run.ChampionID != "" {
		champion, ok, err := c.store.GetBrain(ctx, run.ChampionID)
		if err != nil {
			return model.BrainRecord{}, err
		}
		if ok {
			return champion, nil
		}
	}

	champion, ok, err := stats.ReadChampion(c.outputDir, runID)
	if err != nil {
		return model.BrainRecord{}, err
	}
	if !ok {
		return model.BrainRecord{}, fmt.Errorf("champion not found for run id: %s", runID)
	}
	return champion, nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.outputDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}
