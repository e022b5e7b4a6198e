package growth

import (
	"math/rand"

	"brainzzz/internal/genotype"
)

const maxEndpointAttempts = 32

// SelectSplitTarget picks a random hidden or memory node to split.
func SelectSplitTarget(rng *rand.Rand, g *genotype.Genome) (int, bool) {
	var candidates []int
	for _, n := range g.Nodes {
		if n.Kind == genotype.KindHidden || n.Kind == genotype.KindMemory {
			candidates = append(candidates, n.ID)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[rng.Intn(len(candidates))], true
}

// SelectConnectionEndpoints picks a source that is not an output and a
// distinct target that is not an input, with no enabled edge between them.
func SelectConnectionEndpoints(rng *rand.Rand, g *genotype.Genome) (int, int, bool) {
	var sources, targets []int
	for _, n := range g.Nodes {
		if n.Kind != genotype.KindOutput {
			sources = append(sources, n.ID)
		}
		if n.Kind != genotype.KindInput {
			targets = append(targets, n.ID)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return 0, 0, false
	}
	for attempt := 0; attempt < maxEndpointAttempts; attempt++ {
		from := sources[rng.Intn(len(sources))]
		to := targets[rng.Intn(len(targets))]
		if from == to || g.Connected(from, to) {
			continue
		}
		return from, to, true
	}
	return 0, 0, false
}
