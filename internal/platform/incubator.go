package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"brainzzz/internal/brain"
	"brainzzz/internal/config"
	"brainzzz/internal/evo"
	"brainzzz/internal/model"
	"brainzzz/internal/storage"
	"brainzzz/internal/task"
)

type StopReason string

const (
	StopReasonGenerations StopReason = "generations"
	StopReasonFitnessGoal StopReason = "fitness_goal"
)

type Options struct {
	Config *config.Config
	// Store must already be initialized. A fresh memory store is used when
	// nil.
	Store  storage.Store
	Logger *slog.Logger
	Now    func() time.Time
}

// Incubator runs the generational loop: evaluate every brain on the task
// manager, evolve, repeat, then persist the evaluated population.
type Incubator struct {
	cfg     *config.Config
	store   storage.Store
	logger  *slog.Logger
	tasks   *task.Manager
	now     func() time.Time
	workers int
}

type Result struct {
	Run         model.RunRecord
	Generations []model.GenerationStats
	// Champion is a snapshot of the fittest brain seen in any generation,
	// taken right after its evaluation.
	Champion   model.BrainRecord
	Population []*brain.Brain
	StopReason StopReason
}

func NewIncubator(ctx context.Context, opts Options) (*Incubator, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		mem := storage.NewMemoryStore()
		if err := mem.Init(ctx); err != nil {
			return nil, err
		}
		store = mem
	}
	tasks, err := opts.Config.TaskManager(logger)
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.Config.Run.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Incubator{
		cfg:     opts.Config,
		store:   store,
		logger:  logger,
		tasks:   tasks,
		now:     now,
		workers: workers,
	}, nil
}

// Tasks exposes the task manager the incubator evaluates against.
func (inc *Incubator) Tasks() *task.Manager { return inc.tasks }

func (inc *Incubator) Run(ctx context.Context) (Result, error) {
	cfg := inc.cfg
	runID := cfg.Run.ID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := inc.logger.With("run_id", runID)

	rng := rand.New(rand.NewSource(cfg.Run.Seed))
	population, err := evo.CreatePopulation(rng, cfg.Evolution.PopulationSize, cfg.Genome, cfg.Growth)
	if err != nil {
		return Result{}, fmt.Errorf("create population: %w", err)
	}
	engine, err := evo.NewEngine(cfg.Evolution, rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return Result{}, err
	}
	logger.Info("run started",
		"tasks", cfg.TaskNames(),
		"population", len(population),
		"generations", cfg.Run.Generations,
		"seed", cfg.Run.Seed,
		"workers", inc.workers,
	)

	var (
		generations []model.GenerationStats
		champion    model.BrainRecord
		evaluated   []*brain.Brain
		reason      = StopReasonGenerations
	)
	for gen := 1; gen <= cfg.Run.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("run %s stopped before generation %d: %w", runID, gen, err)
		}

		rows := inc.evaluate(population)
		if best, ok := evo.BestBrain(population); ok && (champion.ID == "" || best.Fitness() > champion.Fitness) {
			champion = best.Record(runID, gen)
		}

		next, err := engine.EvolvePopulation(population)
		if err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		history := engine.History()
		latest := history[len(history)-1]
		generations = append(generations, latest)
		logger.Info("generation evaluated", "stats", latest)
		for _, perf := range inc.tasks.PopulationPerformance(rows) {
			logger.Debug("task performance", "generation", gen, "task", perf.Task, "mean", perf.Mean, "best", perf.Best)
		}

		if cfg.Run.AdaptiveRates {
			mutation, crossover := engine.AdjustParameters(population, cfg.Run.TargetDiversity)
			logger.Debug("rates adjusted", "mutation_rate", mutation, "crossover_rate", crossover)
		}

		evaluated = population
		population = next
		if cfg.Run.FitnessGoal > 0 && latest.BestFitness > cfg.Run.FitnessGoal {
			reason = StopReasonFitnessGoal
			logger.Info("fitness goal reached", "generation", gen, "best", latest.BestFitness)
			break
		}
	}

	run := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CreatedAt:       inc.now().UTC(),
		Seed:            cfg.Run.Seed,
		Task:            cfg.TaskNames(),
		PopulationSize:  cfg.Evolution.PopulationSize,
		GenerationsRun:  len(generations),
		BestFitness:     champion.Fitness,
		ChampionID:      champion.ID,
		StoppedEarly:    reason == StopReasonFitnessGoal,
		FinalPopulation: runID + ":final",
	}
	champion.VersionedRecord = storage.Versioned()
	if err := inc.persist(ctx, run, evaluated, champion, generations); err != nil {
		return Result{}, err
	}
	logger.Info("run finished",
		"generations", run.GenerationsRun,
		"best", run.BestFitness,
		"champion", run.ChampionID,
		"reason", string(reason),
	)

	return Result{
		Run:         run,
		Generations: generations,
		Champion:    champion,
		Population:  evaluated,
		StopReason:  reason,
	}, nil
}

// evaluate scores every brain in parallel. Each job touches only its own
// brain, and the task manager is read-only during a run.
func (inc *Incubator) evaluate(population []*brain.Brain) [][]float64 {
	rows := make([][]float64, len(population))
	p := pool.New().WithMaxGoroutines(inc.workers)
	for i, b := range population {
		p.Go(func() {
			scores := inc.tasks.EvaluateBrain(b)
			b.EvaluateFitness([]float64{inc.tasks.OverallScore(scores)})
			b.ApplyGrowthPenalty()
			rows[i] = scores
		})
	}
	p.Wait()
	return rows
}

func (inc *Incubator) persist(ctx context.Context, run model.RunRecord, population []*brain.Brain, champion model.BrainRecord, generations []model.GenerationStats) error {
	ids := make([]string, 0, len(population))
	for _, b := range population {
		rec := b.Record(run.ID, run.GenerationsRun)
		rec.VersionedRecord = storage.Versioned()
		if err := inc.store.SaveBrain(ctx, rec); err != nil {
			return fmt.Errorf("save brain %s: %w", rec.ID, err)
		}
		ids = append(ids, rec.ID)
	}
	// the champion snapshot wins over a later snapshot of the same brain
	if champion.ID != "" {
		if err := inc.store.SaveBrain(ctx, champion); err != nil {
			return fmt.Errorf("save champion: %w", err)
		}
	}
	if err := inc.store.SavePopulation(ctx, model.PopulationRecord{
		VersionedRecord: storage.Versioned(),
		ID:              run.FinalPopulation,
		RunID:           run.ID,
		Generation:      run.GenerationsRun,
		BrainIDs:        ids,
	}); err != nil {
		return fmt.Errorf("save population: %w", err)
	}
	if err := inc.store.SaveGenerationStats(ctx, run.ID, generations); err != nil {
		return fmt.Errorf("save generation stats: %w", err)
	}
	if err := inc.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}
