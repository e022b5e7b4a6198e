package brain

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"brainzzz/internal/genotype"
	"brainzzz/internal/growth"
	"brainzzz/internal/model"
	"brainzzz/internal/nn"
)

// CloneDamping scales GP and fitness carried into a clone.
const CloneDamping = 0.8

// Brain owns a genome, its own growth policy and the phenotype derived from
// the genome. It is not safe for concurrent use; distinct brains share no
// mutable state.
type Brain struct {
	id  string
	rng *rand.Rand

	genome    *genotype.Genome
	rules     growth.Rules
	phenotype *nn.Phenotype

	gp      float64
	fitness float64
	age     int
	steps   int

	activations []float64
	history     [][]float64
	growths     map[growth.Action]int
}

// New wraps genome and a private copy of rules. The brain keeps rng for its
// growth decisions.
func New(genome *genotype.Genome, rules growth.Rules, rng *rand.Rand) (*Brain, error) {
	if genome == nil {
		return nil, errors.New("genome is required")
	}
	if rng == nil {
		return nil, genotype.ErrNoRandomSource
	}
	phenotype, err := nn.NewPhenotype(genome)
	if err != nil {
		return nil, fmt.Errorf("build phenotype: %w", err)
	}
	return &Brain{
		id:          uuid.NewString(),
		rng:         rng,
		genome:      genome,
		rules:       rules.Clone(),
		phenotype:   phenotype,
		activations: make([]float64, phenotype.NumNodes()),
		growths:     make(map[growth.Action]int),
	}, nil
}

// ProcessInput writes input over the leading activation slots, advances the
// network one step, grows when the policy allows it and returns the output
// activations.
func (b *Brain) ProcessInput(input []float64) ([]float64, error) {
	if len(input) > len(b.activations) {
		return nil, fmt.Errorf("%w: input length %d exceeds %d nodes", genotype.ErrInvalidParameter, len(input), len(b.activations))
	}
	copy(b.activations, input)

	next, err := b.phenotype.ComputeActivations(b.activations)
	if err != nil {
		return nil, err
	}
	b.activations = next
	b.steps++
	b.history = append(b.history, append([]float64(nil), next...))

	if b.rules.CanGrow(b.rng, b) {
		if action, ok := b.rules.SelectGrowthType(b.rng, b); ok {
			if err := b.grow(action); err != nil {
				return nil, err
			}
		}
	}
	return b.phenotype.OutputActivations(b.activations), nil
}

func (b *Brain) grow(action growth.Action) error {
	var (
		applied bool
		err     error
	)
	switch action {
	case growth.ActionAddNode:
		applied, err = b.growNode()
	case growth.ActionSplitNode:
		applied, err = b.growSplit()
	case growth.ActionAddConnection:
		applied, err = b.growConnection()
	default:
		return fmt.Errorf("%w: %q", growth.ErrUnknownAction, action)
	}
	if err != nil {
		return fmt.Errorf("grow %s: %w", action, err)
	}
	if !applied {
		return nil
	}
	b.gp = math.Max(0, b.gp-b.rules.CostOf(action))
	b.growths[action]++
	return nil
}

func (b *Brain) growNode() (bool, error) {
	id := b.genome.AddNode(b.rng, genotype.KindHidden, genotype.ActivationSigmoid)
	return true, b.rebuild(map[int]float64{id: 0})
}

func (b *Brain) growSplit() (bool, error) {
	target, ok := growth.SelectSplitTarget(b.rng, b.genome)
	if !ok {
		return false, nil
	}
	prior := 0.0
	if i, ok := b.phenotype.IndexOf(target); ok {
		prior = b.activations[i]
	}
	first, second, err := b.genome.SplitNode(b.rng, target)
	if err != nil {
		return false, err
	}
	return true, b.rebuild(map[int]float64{first: prior / 2, second: prior / 2})
}

func (b *Brain) growConnection() (bool, error) {
	from, to, ok := growth.SelectConnectionEndpoints(b.rng, b.genome)
	if !ok {
		return false, nil
	}
	if _, err := b.genome.AddConnection(b.rng, from, to); err != nil {
		return false, err
	}
	return true, b.rebuild(nil)
}

// rebuild derives a fresh phenotype and carries activations across by node
// id. Nodes listed in seed take the given value; other new nodes start at 0.
func (b *Brain) rebuild(seed map[int]float64) error {
	phenotype, err := nn.NewPhenotype(b.genome)
	if err != nil {
		return err
	}
	next := make([]float64, phenotype.NumNodes())
	for i := range next {
		id, _ := phenotype.NodeID(i)
		if value, ok := seed[id]; ok {
			next[i] = value
			continue
		}
		if old, ok := b.phenotype.IndexOf(id); ok && old < len(b.activations) {
			next[i] = b.activations[old]
		}
	}
	b.phenotype = phenotype
	b.activations = next
	return nil
}

// Rebuild re-derives the phenotype after the genome was edited in place.
// Activations are reset.
func (b *Brain) Rebuild() error {
	phenotype, err := nn.NewPhenotype(b.genome)
	if err != nil {
		return err
	}
	b.phenotype = phenotype
	b.activations = make([]float64, phenotype.NumNodes())
	return nil
}

// EvaluateFitness sets fitness to the mean of scores and awards GP: ten
// times the fitness for a passing brain, otherwise at least 0.1.
func (b *Brain) EvaluateFitness(scores []float64) float64 {
	fitness := 0.0
	if len(scores) > 0 {
		for _, s := range scores {
			fitness += s
		}
		fitness /= float64(len(scores))
	}
	b.fitness = fitness
	if fitness > 0.5 {
		b.gp += fitness * 10
	} else {
		b.gp += math.Max(0.1, fitness*2)
	}
	return fitness
}

// ApplyGrowthPenalty charges GP for complexity above the penalty threshold.
func (b *Brain) ApplyGrowthPenalty() {
	b.gp = math.Max(0, b.gp-b.rules.GrowthPenalty(b))
}

// Clone deep-copies the genome and growth rules and keeps the age. GP and
// fitness are scaled by CloneDamping. A nil rng derives one from b.
func (b *Brain) Clone(rng *rand.Rand) (*Brain, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(b.rng.Int63()))
	}
	out, err := New(b.genome.Clone(), b.rules, rng)
	if err != nil {
		return nil, err
	}
	out.gp = b.gp * CloneDamping
	out.fitness = b.fitness * CloneDamping
	out.age = b.age
	return out, nil
}

// ReplaceGenome swaps in a new genome and rules and rebuilds the phenotype.
func (b *Brain) ReplaceGenome(genome *genotype.Genome, rules growth.Rules) error {
	phenotype, err := nn.NewPhenotype(genome)
	if err != nil {
		return err
	}
	b.genome = genome
	b.rules = rules.Clone()
	b.phenotype = phenotype
	b.activations = make([]float64, phenotype.NumNodes())
	return nil
}

func (b *Brain) ID() string                 { return b.id }
func (b *Brain) GP() float64                { return b.gp }
func (b *Brain) Fitness() float64           { return b.fitness }
func (b *Brain) Age() int                   { return b.age }
func (b *Brain) Steps() int                 { return b.steps }
func (b *Brain) NumNodes() int              { return b.phenotype.NumNodes() }
func (b *Brain) NetworkDensity() float64    { return b.phenotype.NetworkDensity() }
func (b *Brain) AveragePathLength() float64 { return b.phenotype.AveragePathLength() }

func (b *Brain) ConnectionCount() int { return len(b.genome.Connections) }

// Genome exposes the owned genome. Call Rebuild after editing it.
func (b *Brain) Genome() *genotype.Genome { return b.genome }

func (b *Brain) Phenotype() *nn.Phenotype { return b.phenotype }

// Rules returns a copy of the brain's growth policy.
func (b *Brain) Rules() growth.Rules { return b.rules.Clone() }

// SetRules replaces the growth policy with a copy of rules.
func (b *Brain) SetRules(rules growth.Rules) { b.rules = rules.Clone() }

// RNG is the brain's private random source.
func (b *Brain) RNG() *rand.Rand { return b.rng }

func (b *Brain) SetFitness(fitness float64) { b.fitness = fitness }
func (b *Brain) SetGP(gp float64)           { b.gp = math.Max(0, gp) }
func (b *Brain) AddGP(amount float64)       { b.SetGP(b.gp + amount) }
func (b *Brain) SetAge(age int)             { b.age = age }
func (b *Brain) IncrementAge()              { b.age++ }

func (b *Brain) Activations() []float64 {
	return append([]float64(nil), b.activations...)
}

// History returns copies of every activation snapshot in step order.
func (b *Brain) History() [][]float64 {
	out := make([][]float64, len(b.history))
	for i, snapshot := range b.history {
		out[i] = append([]float64(nil), snapshot...)
	}
	return out
}

// GrowthCount reports how many times action was applied.
func (b *Brain) GrowthCount(action growth.Action) int { return b.growths[action] }

func (b *Brain) String() string {
	return fmt.Sprintf("Brain(nodes=%d, connections=%d, fitness=%.3f, gp=%.3f, age=%d)",
		b.NumNodes(), b.ConnectionCount(), b.fitness, b.gp, b.age)
}

// Record captures the persisted state of the brain.
func (b *Brain) Record(runID string, generation int) model.BrainRecord {
	return model.BrainRecord{
		ID:         b.id,
		RunID:      runID,
		Generation: generation,
		Fitness:    b.fitness,
		GP:         b.gp,
		Age:        b.age,
		Steps:      b.steps,
		Genome:     b.genome.Record(),
		Rules:      b.rules.Record(),
	}
}

// FromRecord restores a brain with fresh activations.
func FromRecord(rec model.BrainRecord, rng *rand.Rand) (*Brain, error) {
	genome, err := genotype.FromRecord(rec.Genome)
	if err != nil {
		return nil, fmt.Errorf("brain %s genome: %w", rec.ID, err)
	}
	rules, err := growth.RulesFromRecord(rec.Rules)
	if err != nil {
		return nil, fmt.Errorf("brain %s rules: %w", rec.ID, err)
	}
	b, err := New(genome, rules, rng)
	if err != nil {
		return nil, err
	}
	if rec.ID != "" {
		b.id = rec.ID
	}
	b.fitness = rec.Fitness
	b.gp = math.Max(0, rec.GP)
	b.age = rec.Age
	b.steps = rec.Steps
	return b, nil
}
