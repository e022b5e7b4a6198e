package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
)

var ErrEmptyPopulation = errors.New("population is empty")

// Selector chooses one parent from a fitness-scored population.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, population []*brain.Brain) (*brain.Brain, error)
}

// TournamentSelector samples Size distinct brains and returns the fittest.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Select(rng *rand.Rand, population []*brain.Brain) (*brain.Brain, error) {
	if err := checkSelectArgs(rng, population); err != nil {
		return nil, err
	}
	size := s.Size
	if size < 2 {
		size = 2
	}
	if size > len(population) {
		size = len(population)
	}

	var best *brain.Brain
	for _, i := range rng.Perm(len(population))[:size] {
		candidate := population[i]
		if best == nil || candidate.Fitness() > best.Fitness() {
			best = candidate
		}
	}
	return best, nil
}

// RouletteSelector picks with probability proportional to max(0, fitness)
// and falls back to a uniform pick when no brain has positive fitness.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, population []*brain.Brain) (*brain.Brain, error) {
	if err := checkSelectArgs(rng, population); err != nil {
		return nil, err
	}
	total := 0.0
	for _, b := range population {
		total += math.Max(0, b.Fitness())
	}
	if total <= 0 {
		return population[rng.Intn(len(population))], nil
	}

	target := rng.Float64() * total
	cumulative := 0.0
	for _, b := range population {
		cumulative += math.Max(0, b.Fitness())
		if cumulative > target {
			return b, nil
		}
	}
	return population[len(population)-1], nil
}

// RankSelector weights brains by their position in ascending fitness order,
// so the worst brain has weight 1 and the best has weight n.
type RankSelector struct{}

func (RankSelector) Name() string {
	return "rank"
}

func (RankSelector) Select(rng *rand.Rand, population []*brain.Brain) (*brain.Brain, error) {
	if err := checkSelectArgs(rng, population); err != nil {
		return nil, err
	}
	sorted := append([]*brain.Brain(nil), population...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness() < sorted[j].Fitness()
	})

	n := len(sorted)
	target := rng.Float64() * float64(n*(n+1)/2)
	cumulative := 0.0
	for i, b := range sorted {
		cumulative += float64(i + 1)
		if cumulative > target {
			return b, nil
		}
	}
	return sorted[n-1], nil
}

// NewSelector resolves a strategy by name. tournamentSize only applies to
// "tournament".
func NewSelector(name string, tournamentSize int) (Selector, error) {
	switch name {
	case "", "tournament":
		if tournamentSize < 2 {
			return nil, fmt.Errorf("%w: tournament size must be >= 2, got %d", genotype.ErrInvalidParameter, tournamentSize)
		}
		return TournamentSelector{Size: tournamentSize}, nil
	case "roulette":
		return RouletteSelector{}, nil
	case "rank":
		return RankSelector{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown selection strategy %q", genotype.ErrInvalidParameter, name)
	}
}

func checkSelectArgs(rng *rand.Rand, population []*brain.Brain) error {
	if rng == nil {
		return errors.New("random source is required")
	}
	if len(population) == 0 {
		return ErrEmptyPopulation
	}
	return nil
}
