package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
	"brainzzz/internal/growth"
)

// Crossover recombines two parents into one offspring. The offspring starts
// as a clone of the first parent; gene values are taken from the second
// parent by list position, never by id, so ids and endpoints of the first
// parent are kept and referential integrity holds for any pair of parents.
type Crossover interface {
	Name() string
	Cross(rng *rand.Rand, parent1, parent2 *brain.Brain) (*brain.Brain, error)
}

// UniformCrossover takes each node and each connection value set from either
// parent with equal probability.
type UniformCrossover struct{}

func (UniformCrossover) Name() string { return "uniform" }

func (UniformCrossover) Cross(rng *rand.Rand, parent1, parent2 *brain.Brain) (*brain.Brain, error) {
	return cross(rng, parent1, parent2, func(child, donor *genotype.Genome) {
		for i := range child.Nodes {
			if rng.Float64() < 0.5 && i < len(donor.Nodes) {
				copyNodeValues(&child.Nodes[i], donor.Nodes[i])
			}
		}
		for i := range child.Connections {
			if rng.Float64() < 0.5 && i < len(donor.Connections) {
				child.Connections[i].Weight = donor.Connections[i].Weight
				child.Connections[i].Plasticity = donor.Connections[i].Plasticity
			}
		}
	})
}

// SinglePointCrossover copies node values from the second parent at and
// after one random index in [0, max(1, n/2)].
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string { return "single_point" }

func (SinglePointCrossover) Cross(rng *rand.Rand, parent1, parent2 *brain.Brain) (*brain.Brain, error) {
	return cross(rng, parent1, parent2, func(child, donor *genotype.Genome) {
		n := len(child.Nodes)
		point := randInclusive(rng, 0, max(1, n/2))
		copyNodeRange(child, donor, point, n)
	})
}

// TwoPointCrossover copies node values from the second parent between
// p1 in [0, max(1, n/3)] and p2 in [2n/3, max(2n/3+1, n)].
type TwoPointCrossover struct{}

func (TwoPointCrossover) Name() string { return "two_point" }

func (TwoPointCrossover) Cross(rng *rand.Rand, parent1, parent2 *brain.Brain) (*brain.Brain, error) {
	return cross(rng, parent1, parent2, func(child, donor *genotype.Genome) {
		n := len(child.Nodes)
		p1 := randInclusive(rng, 0, max(1, n/3))
		p2 := randInclusive(rng, 2*n/3, max(2*n/3+1, n))
		copyNodeRange(child, donor, p1, p2)
	})
}

// NewCrossover resolves a strategy by name.
func NewCrossover(name string) (Crossover, error) {
	switch name {
	case "", "uniform":
		return UniformCrossover{}, nil
	case "single_point":
		return SinglePointCrossover{}, nil
	case "two_point":
		return TwoPointCrossover{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown crossover strategy %q", genotype.ErrInvalidParameter, name)
	}
}

// CrossRules takes growth probability, complexity penalty and both global
// ceilings from the second policy with equal probability each.
func CrossRules(rng *rand.Rand, r1, r2 growth.Rules) growth.Rules {
	out := r1.Clone()
	if rng.Float64() < 0.5 {
		out.GrowthProbability = r2.GrowthProbability
	}
	if rng.Float64() < 0.5 {
		out.ComplexityPenalty = r2.ComplexityPenalty
	}
	if rng.Float64() < 0.5 {
		out.MaxNodes = r2.MaxNodes
	}
	if rng.Float64() < 0.5 {
		out.MaxConnections = r2.MaxConnections
	}
	return out
}

func cross(rng *rand.Rand, parent1, parent2 *brain.Brain, recombine func(child, donor *genotype.Genome)) (*brain.Brain, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if parent1 == nil || parent2 == nil {
		return nil, errors.New("both parents are required")
	}
	offspring, err := parent1.Clone(rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return nil, err
	}
	genome := parent1.Genome().Clone()
	recombine(genome, parent2.Genome())
	if err := offspring.ReplaceGenome(genome, CrossRules(rng, parent1.Rules(), parent2.Rules())); err != nil {
		return nil, fmt.Errorf("crossover offspring: %w", err)
	}
	return offspring, nil
}

func copyNodeRange(child, donor *genotype.Genome, from, to int) {
	for i := from; i < to && i < len(child.Nodes); i++ {
		if i < len(donor.Nodes) {
			copyNodeValues(&child.Nodes[i], donor.Nodes[i])
		}
	}
}

func copyNodeValues(dst *genotype.NodeGene, src genotype.NodeGene) {
	dst.Bias = src.Bias
	dst.Threshold = src.Threshold
	dst.Plasticity = src.Plasticity
}

func randInclusive(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
