package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
	"brainzzz/internal/growth"
)

// Layout describes the starting genome shape and GP endowment of a fresh
// population. Hidden size and initial GP are drawn uniformly per brain.
type Layout struct {
	Inputs    int     `yaml:"inputs" ini:"inputs"`
	Outputs   int     `yaml:"outputs" ini:"outputs"`
	MinHidden int     `yaml:"min_hidden" ini:"min_hidden"`
	MaxHidden int     `yaml:"max_hidden" ini:"max_hidden"`
	MinGP     float64 `yaml:"min_gp" ini:"min_gp"`
	MaxGP     float64 `yaml:"max_gp" ini:"max_gp"`
}

func DefaultLayout() Layout {
	return Layout{Inputs: 2, Outputs: 1, MinHidden: 3, MaxHidden: 3, MinGP: 5, MaxGP: 15}
}

func (l Layout) Validate() error {
	if l.Inputs <= 0 || l.Outputs <= 0 {
		return fmt.Errorf("%w: layout needs inputs and outputs, got %d/%d", genotype.ErrInvalidParameter, l.Inputs, l.Outputs)
	}
	if l.MinHidden < 0 || l.MaxHidden < l.MinHidden {
		return fmt.Errorf("%w: hidden range [%d,%d]", genotype.ErrInvalidParameter, l.MinHidden, l.MaxHidden)
	}
	if l.MinGP < 0 || l.MaxGP < l.MinGP {
		return fmt.Errorf("%w: gp range [%v,%v]", genotype.ErrInvalidParameter, l.MinGP, l.MaxGP)
	}
	return nil
}

// CreatePopulation builds size brains, each with its own copy of rules and
// its own random source derived from rng.
func CreatePopulation(rng *rand.Rand, size int, layout Layout, rules growth.Rules) ([]*brain.Brain, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", genotype.ErrInvalidParameter, size)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	population := make([]*brain.Brain, 0, size)
	for i := 0; i < size; i++ {
		brainRNG := rand.New(rand.NewSource(rng.Int63()))
		hidden := randInclusive(rng, layout.MinHidden, layout.MaxHidden)
		genome, err := genotype.NewGenome(brainRNG, layout.Inputs, layout.Outputs, hidden)
		if err != nil {
			return nil, fmt.Errorf("brain %d genome: %w", i, err)
		}
		b, err := brain.New(genome, rules, brainRNG)
		if err != nil {
			return nil, fmt.Errorf("brain %d: %w", i, err)
		}
		b.SetGP(uniform(rng, layout.MinGP, layout.MaxGP))
		population = append(population, b)
	}
	return population, nil
}
