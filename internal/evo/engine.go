package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
	"brainzzz/internal/model"
)

// MaxHistory bounds the number of generation summaries an engine keeps.
const MaxHistory = 1000

type Config struct {
	PopulationSize   int     `yaml:"population_size" ini:"population_size"`
	MutationRate     float64 `yaml:"mutation_rate" ini:"mutation_rate"`
	CrossoverRate    float64 `yaml:"crossover_rate" ini:"crossover_rate"`
	EliteSize        int     `yaml:"elite_size" ini:"elite_size"`
	Selection        string  `yaml:"selection" ini:"selection"`
	TournamentSize   int     `yaml:"tournament_size" ini:"tournament_size"`
	Crossover        string  `yaml:"crossover" ini:"crossover"`
	MutationStrength float64 `yaml:"mutation_strength" ini:"mutation_strength"`
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:   50,
		MutationRate:     0.1,
		CrossoverRate:    0.7,
		EliteSize:        5,
		Selection:        "tournament",
		TournamentSize:   3,
		Crossover:        "uniform",
		MutationStrength: 0.1,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0, got %d", genotype.ErrInvalidParameter, c.PopulationSize)
	}
	if c.EliteSize < 0 || c.EliteSize > c.PopulationSize {
		return fmt.Errorf("%w: elite size must be in [0,%d], got %d", genotype.ErrInvalidParameter, c.PopulationSize, c.EliteSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0,1], got %v", genotype.ErrInvalidParameter, c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate must be in [0,1], got %v", genotype.ErrInvalidParameter, c.CrossoverRate)
	}
	return nil
}

// Engine derives one generation from the previous one. It is driven by a
// single goroutine.
type Engine struct {
	cfg       Config
	rng       *rand.Rand
	selector  Selector
	crossover Crossover
	mutation  Mutation

	generation int
	history    []model.GenerationStats
}

func NewEngine(cfg Config, rng *rand.Rand) (*Engine, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	selector, err := NewSelector(cfg.Selection, cfg.TournamentSize)
	if err != nil {
		return nil, err
	}
	crossover, err := NewCrossover(cfg.Crossover)
	if err != nil {
		return nil, err
	}
	mutation, err := NewMutation(cfg.MutationStrength)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		rng:       rng,
		selector:  selector,
		crossover: crossover,
		mutation:  mutation,
	}, nil
}

// Config returns the current parameters, including rates changed by
// AdjustParameters.
func (e *Engine) Config() Config { return e.cfg }

// EvolvePopulation records statistics for population, keeps the EliteSize
// fittest brains untouched and fills the rest with offspring. Offspring come
// from crossover with probability CrossoverRate, else from a clone of the
// first parent, are mutated with probability MutationRate, and start with
// fitness 0 and the first parent's age plus one.
func (e *Engine) EvolvePopulation(population []*brain.Brain) ([]*brain.Brain, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	e.recordGeneration(population)
	if len(population) < 2 {
		return append([]*brain.Brain(nil), population...), nil
	}

	ranked := append([]*brain.Brain(nil), population...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness() > ranked[j].Fitness()
	})

	elite := min(e.cfg.EliteSize, len(ranked))
	next := make([]*brain.Brain, 0, e.cfg.PopulationSize)
	next = append(next, ranked[:elite]...)

	for len(next) < e.cfg.PopulationSize {
		parent1, err := e.selector.Select(e.rng, ranked)
		if err != nil {
			return nil, fmt.Errorf("select first parent: %w", err)
		}
		parent2, err := e.selector.Select(e.rng, ranked)
		if err != nil {
			return nil, fmt.Errorf("select second parent: %w", err)
		}

		var offspring *brain.Brain
		if e.rng.Float64() < e.cfg.CrossoverRate {
			offspring, err = e.crossover.Cross(e.rng, parent1, parent2)
		} else {
			offspring, err = parent1.Clone(rand.New(rand.NewSource(e.rng.Int63())))
		}
		if err != nil {
			return nil, fmt.Errorf("create offspring: %w", err)
		}
		if e.rng.Float64() < e.cfg.MutationRate {
			if err := e.mutation.Mutate(e.rng, offspring); err != nil {
				return nil, fmt.Errorf("mutate offspring: %w", err)
			}
		}
		offspring.SetFitness(0)
		offspring.SetAge(parent1.Age() + 1)
		next = append(next, offspring)
	}
	return next[:e.cfg.PopulationSize], nil
}

func (e *Engine) recordGeneration(population []*brain.Brain) {
	e.generation++
	s := Summarize(population)
	s.Generation = e.generation
	s.Diversity = DiversityScore(population)
	s.MutationRate = e.cfg.MutationRate
	s.CrossoverRate = e.cfg.CrossoverRate
	e.history = append(e.history, s)
	if len(e.history) > MaxHistory {
		e.history = append([]model.GenerationStats(nil), e.history[len(e.history)-MaxHistory:]...)
	}
}

// Summarize computes fitness, size and GP statistics for population.
func Summarize(population []*brain.Brain) model.GenerationStats {
	if len(population) == 0 {
		return model.GenerationStats{}
	}
	fitness := make([]float64, len(population))
	nodes := make([]float64, len(population))
	gp := make([]float64, len(population))
	for i, b := range population {
		fitness[i] = b.Fitness()
		nodes[i] = float64(b.NumNodes())
		gp[i] = b.GP()
	}
	mean, std := stat.PopMeanStdDev(fitness, nil)
	if len(fitness) == 1 {
		std = 0
	}
	return model.GenerationStats{
		PopulationSize: len(population),
		BestFitness:    floats.Max(fitness),
		MeanFitness:    mean,
		WorstFitness:   floats.Min(fitness),
		StdFitness:     std,
		MeanNodes:      stat.Mean(nodes, nil),
		MeanGP:         stat.Mean(gp, nil),
	}
}

// DiversityScore averages the spread of node counts and GP, each as
// population std over max(1, mean), capped at 1.
func DiversityScore(population []*brain.Brain) float64 {
	if len(population) < 2 {
		return 0
	}
	nodes := make([]float64, len(population))
	gp := make([]float64, len(population))
	for i, b := range population {
		nodes[i] = float64(b.NumNodes())
		gp[i] = b.GP()
	}
	return math.Min(1, (spread(nodes)+spread(gp))/2)
}

func spread(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	return std / math.Max(1, mean)
}

// AdjustParameters nudges the mutation and crossover rates toward the
// target diversity band [0.5*target, 1.5*target].
func (e *Engine) AdjustParameters(population []*brain.Brain, target float64) (mutationRate, crossoverRate float64) {
	diversity := DiversityScore(population)
	switch {
	case diversity < target*0.5:
		e.cfg.MutationRate = math.Min(0.3, e.cfg.MutationRate*1.2)
		e.cfg.CrossoverRate = math.Max(0.5, e.cfg.CrossoverRate*0.9)
	case diversity > target*1.5:
		e.cfg.MutationRate = math.Max(0.05, e.cfg.MutationRate*0.8)
		e.cfg.CrossoverRate = math.Min(0.9, e.cfg.CrossoverRate*1.1)
	}
	return e.cfg.MutationRate, e.cfg.CrossoverRate
}

// Statistics summarizes the recorded generations.
type Statistics struct {
	TotalGenerations      int
	CurrentPopulationSize int
	BestFitnessEver       float64
	CurrentBestFitness    float64
	CurrentMeanFitness    float64
	FitnessImprovement    float64
	ConvergenceRate       float64
}

func (e *Engine) Statistics() (Statistics, bool) {
	if len(e.history) == 0 {
		return Statistics{}, false
	}
	best := e.bestHistory()
	latest := e.history[len(e.history)-1]
	out := Statistics{
		TotalGenerations:      len(e.history),
		CurrentPopulationSize: latest.PopulationSize,
		BestFitnessEver:       floats.Max(best),
		CurrentBestFitness:    latest.BestFitness,
		CurrentMeanFitness:    latest.MeanFitness,
		ConvergenceRate:       convergenceRate(best),
	}
	if len(best) > 1 {
		out.FitnessImprovement = best[len(best)-1] - best[0]
	}
	return out, true
}

// convergenceRate is the mean change in best fitness over the last nine
// generation steps, 0 until ten generations are recorded.
func convergenceRate(best []float64) float64 {
	if len(best) < 10 {
		return 0
	}
	changes := make([]float64, 0, 9)
	n := len(best)
	for i := 1; i < 10; i++ {
		changes = append(changes, best[n-i]-best[n-i-1])
	}
	return stat.Mean(changes, nil)
}

func (e *Engine) bestHistory() []float64 {
	best := make([]float64, len(e.history))
	for i, s := range e.history {
		best[i] = s.BestFitness
	}
	return best
}

// History returns a copy of the recorded generation summaries.
func (e *Engine) History() []model.GenerationStats {
	return append([]model.GenerationStats(nil), e.history...)
}

func (e *Engine) ResetHistory() {
	e.history = nil
	e.generation = 0
}

// BestBrain returns the fittest brain, first wins on ties.
func BestBrain(population []*brain.Brain) (*brain.Brain, bool) {
	if len(population) == 0 {
		return nil, false
	}
	best := population[0]
	for _, b := range population[1:] {
		if b.Fitness() > best.Fitness() {
			best = b
		}
	}
	return best, true
}
