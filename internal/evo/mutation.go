package evo

import (
	"errors"
	"fmt"
	"math/rand"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
	"brainzzz/internal/nn"
)

// Mutation applies genome perturbation, growth-policy jitter and a direct
// structural addition to a brain. Structural change therefore has two
// independent paths: the genome's own rate/2 roll inside Genome.Mutate and
// the strength/10 rolls here.
type Mutation struct {
	Strength float64
}

func NewMutation(strength float64) (Mutation, error) {
	if strength < 0 || strength > 1 {
		return Mutation{}, fmt.Errorf("%w: mutation strength %v outside [0,1]", genotype.ErrInvalidParameter, strength)
	}
	return Mutation{Strength: strength}, nil
}

func (m Mutation) Mutate(rng *rand.Rand, b *brain.Brain) error {
	if rng == nil {
		return errors.New("random source is required")
	}
	if m.Strength < 0 || m.Strength > 1 {
		return fmt.Errorf("%w: mutation strength %v outside [0,1]", genotype.ErrInvalidParameter, m.Strength)
	}
	g := b.Genome()
	if err := g.Mutate(rng, m.Strength); err != nil {
		return fmt.Errorf("mutate genome: %w", err)
	}

	rules := b.Rules()
	if rng.Float64() < m.Strength {
		rules.GrowthProbability = nn.Sat(rules.GrowthProbability+uniform(rng, -0.05, 0.05), 0.5, 0.01)
	}
	if rng.Float64() < m.Strength {
		rules.ComplexityPenalty = nn.Sat(rules.ComplexityPenalty+uniform(rng, -0.005, 0.005), 0.1, 0.001)
	}
	b.SetRules(rules)

	if rng.Float64() < m.Strength*0.1 && len(g.Nodes) < rules.MaxNodes {
		g.AddNode(rng, genotype.KindHidden, genotype.ActivationSigmoid)
	}
	if rng.Float64() < m.Strength*0.1 && len(g.Connections) < rules.MaxConnections && len(g.Nodes) >= 2 {
		from := g.Nodes[rng.Intn(len(g.Nodes))].ID
		to := g.Nodes[rng.Intn(len(g.Nodes))].ID
		if from != to {
			if _, err := g.AddConnection(rng, from, to); err != nil && !errors.Is(err, genotype.ErrDuplicateConnection) {
				return fmt.Errorf("mutate structure: %w", err)
			}
		}
	}
	return b.Rebuild()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
