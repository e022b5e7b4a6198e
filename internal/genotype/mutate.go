package genotype

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// Structural mutation ceilings.
	MaxMutationNodes       = 50
	MaxMutationConnections = 200

	biasDelta       = 0.1
	thresholdDelta  = 0.05
	plasticityDelta = 0.1
	weightDelta     = 0.2
)

type structuralMutation int

const (
	mutateAddNode structuralMutation = iota
	mutateAddConnection
	mutateRemoveConnection
)

// Mutate perturbs every node and connection with probability rate, then with
// probability rate/2 draws one of three structural mutations uniformly; a
// drawn mutation that is capped is skipped. Only ErrDuplicateConnection from
// a random add-connection attempt is tolerated.
func (g *Genome) Mutate(rng *rand.Rand, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrInvalidParameter, rate)
	}
	if rng == nil {
		return ErrNoRandomSource
	}

	for i := range g.Nodes {
		if rng.Float64() >= rate {
			continue
		}
		n := &g.Nodes[i]
		n.Bias += uniform(rng, -biasDelta, biasDelta)
		n.Threshold += uniform(rng, -thresholdDelta, thresholdDelta)
		n.Plasticity += uniform(rng, -plasticityDelta, plasticityDelta)
	}
	for i := range g.Connections {
		if rng.Float64() >= rate {
			continue
		}
		c := &g.Connections[i]
		c.Weight += uniform(rng, -weightDelta, weightDelta)
		c.Plasticity += uniform(rng, -plasticityDelta, plasticityDelta)
	}

	if rng.Float64() >= rate*0.5 {
		return nil
	}
	return g.mutateStructure(rng)
}

// mutateStructure draws one of the three structural mutations uniformly and
// does nothing when the drawn one is capped or has no material to work on.
func (g *Genome) mutateStructure(rng *rand.Rand) error {
	switch structuralMutation(rng.Intn(3)) {
	case mutateAddNode:
		if len(g.Nodes) >= MaxMutationNodes {
			return nil
		}
		g.AddNode(rng, KindHidden, ActivationSigmoid)
	case mutateAddConnection:
		if len(g.Connections) >= MaxMutationConnections || len(g.Nodes) < 2 {
			return nil
		}
		from := g.Nodes[rng.Intn(len(g.Nodes))].ID
		to := g.Nodes[rng.Intn(len(g.Nodes))].ID
		if from == to {
			return nil
		}
		if _, err := g.AddConnection(rng, from, to); err != nil && !errors.Is(err, ErrDuplicateConnection) {
			return fmt.Errorf("structural mutation: %w", err)
		}
	case mutateRemoveConnection:
		if len(g.Connections) <= 1 {
			return nil
		}
		victim := g.Connections[rng.Intn(len(g.Connections))].ID
		if err := g.RemoveConnection(victim); err != nil {
			return fmt.Errorf("structural mutation: %w", err)
		}
	}
	return nil
}
