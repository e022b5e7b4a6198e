package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"brainzzz/internal/genotype"
)

// chain returns input(0) -> hidden(1) -> output(2) with unit weights, zero
// bias and zero threshold.
func chain(t *testing.T) *genotype.Genome {
	t.Helper()
	g, err := genotype.NewGenome(rand.New(rand.NewSource(1)), 1, 1, 1)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	for i := range g.Nodes {
		g.Nodes[i].Bias = 0
		g.Nodes[i].Threshold = 0
	}
	g.Nodes[1].Activation = genotype.ActivationLinear
	g.Nodes[2].Activation = genotype.ActivationLinear
	for i := range g.Connections {
		g.Connections[i].Weight = 1
	}
	return g
}

func TestActivationFunctions(t *testing.T) {
	if got := Apply(genotype.ActivationSigmoid, 0); got != 0.5 {
		t.Fatalf("sigmoid(0)=%v", got)
	}
	if got := Apply(genotype.ActivationSigmoid, -1e6); got != 1/(1+math.Exp(500)) {
		t.Fatalf("sigmoid clip mismatch: %v", got)
	}
	if got := Apply(genotype.ActivationTanh, 0.3); got != math.Tanh(0.3) {
		t.Fatalf("tanh mismatch: %v", got)
	}
	if got := Apply(genotype.ActivationReLU, -2); got != 0 {
		t.Fatalf("relu(-2)=%v", got)
	}
	if got := Apply(genotype.ActivationLinear, -2); got != -2 {
		t.Fatalf("linear(-2)=%v", got)
	}
}

func TestComputeActivationsPropagatesOneStep(t *testing.T) {
	p, err := NewPhenotype(chain(t))
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	step1, err := p.ComputeActivations([]float64{0.7, 0, 0})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if step1[0] != 0.7 || step1[1] != 0.7 || step1[2] != 0 {
		t.Fatalf("unexpected first step: %v", step1)
	}
	step2, err := p.ComputeActivations(step1)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if step2[2] != 0.7 {
		t.Fatalf("expected output to receive hidden value, got %v", step2)
	}
	if out := p.OutputActivations(step2); len(out) != 1 || out[0] != 0.7 {
		t.Fatalf("unexpected outputs: %v", out)
	}
}

func TestComputeActivationsThresholdGate(t *testing.T) {
	g := chain(t)
	g.Nodes[1].Threshold = 0.5
	p, err := NewPhenotype(g)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	next, err := p.ComputeActivations([]float64{0.4, 0, 0})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if next[1] != 0 {
		t.Fatalf("expected hidden activation gated to 0, got %v", next[1])
	}
}

func TestComputeActivationsDeterministic(t *testing.T) {
	g, err := genotype.NewGenome(rand.New(rand.NewSource(3)), 3, 2, 5)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	p, err := NewPhenotype(g)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	current := []float64{0.2, -1, 0.9, 0.1, 0.3, 0.5, 0.7, 0.9, 0.4, 0.6}
	a, err := p.ComputeActivations(current)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := p.ComputeActivations(current)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs: %v vs %v", i, a[i], b[i])
		}
	}
	if current[0] != 0.2 || current[9] != 0.6 {
		t.Fatal("compute mutated its input")
	}
}

func TestComputeActivationsLengthMismatch(t *testing.T) {
	p, err := NewPhenotype(chain(t))
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	if _, err := p.ComputeActivations([]float64{1}); !errors.Is(err, genotype.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestIndexMapSurvivesSplitGaps(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g, err := genotype.NewGenome(rng, 2, 1, 2)
	if err != nil {
		t.Fatalf("new genome: %v", err)
	}
	if _, _, err := g.SplitNode(rng, 2); err != nil {
		t.Fatalf("split: %v", err)
	}
	p, err := NewPhenotype(g)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	if _, ok := p.IndexOf(2); ok {
		t.Fatal("retired id should not resolve")
	}
	idx, ok := p.IndexOf(4)
	if !ok || idx != 3 {
		t.Fatalf("output id 4 expected at index 3, got %d ok=%v", idx, ok)
	}
	if outs := p.OutputIndices(); len(outs) != 1 || outs[0] != 3 {
		t.Fatalf("unexpected output indices: %v", outs)
	}
	if id, ok := p.NodeID(5); !ok || id != 6 {
		t.Fatalf("index 5 expected id 6, got %d", id)
	}
}

func TestNewPhenotypeRejectsDanglingConnection(t *testing.T) {
	g := chain(t)
	g.Connections[0].To = 99
	if _, err := NewPhenotype(g); !errors.Is(err, genotype.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestNetworkDensityBounds(t *testing.T) {
	empty := &genotype.Genome{}
	p, err := NewPhenotype(empty)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	if p.NetworkDensity() != 0 || p.AveragePathLength() != 0 {
		t.Fatal("empty genome should have zero metrics")
	}

	rng := rand.New(rand.NewSource(5))
	single, _ := genotype.NewGenome(rng, 1, 0, 0)
	p, _ = NewPhenotype(single)
	if p.NetworkDensity() != 0 {
		t.Fatalf("single node density %v", p.NetworkDensity())
	}

	g, _ := genotype.NewGenome(rng, 2, 1, 1)
	for i := 0; i < 40; i++ {
		from := g.Nodes[rng.Intn(len(g.Nodes))].ID
		to := g.Nodes[rng.Intn(len(g.Nodes))].ID
		_, _ = g.AddConnection(rng, from, to)
	}
	// Parallel edge with a fresh id is accepted by the phenotype.
	g.Connections = append(g.Connections, genotype.ConnectionGene{ID: g.NextConnectionID() + 100, From: 0, To: 2, Weight: 1, Enabled: true})
	p, err = NewPhenotype(g)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	if d := p.NetworkDensity(); d < 0 || d > 1 {
		t.Fatalf("density out of bounds: %v", d)
	}
}

func TestAveragePathLength(t *testing.T) {
	p, err := NewPhenotype(chain(t))
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	// 0->1 (1), 1->2 (1), 0->2 (2)
	if got := p.AveragePathLength(); math.Abs(got-4.0/3.0) > 1e-12 {
		t.Fatalf("average path length=%v want 4/3", got)
	}
	if got := p.NetworkDensity(); math.Abs(got-2.0/6.0) > 1e-12 {
		t.Fatalf("density=%v want 1/3", got)
	}
}

func TestConnectionStrengthUsesPolarity(t *testing.T) {
	g := chain(t)
	g.Connections[0].Polarity = genotype.PolarityInhibitory
	g.Connections[0].Weight = 0.5
	p, err := NewPhenotype(g)
	if err != nil {
		t.Fatalf("new phenotype: %v", err)
	}
	if got := p.ConnectionStrength(0, 1); got != -0.5 {
		t.Fatalf("strength=%v want -0.5", got)
	}
	in, out := p.NodeConnections(1)
	if len(in) != 1 || in[0] != 0 || len(out) != 1 || out[0] != 2 {
		t.Fatalf("unexpected node connections in=%v out=%v", in, out)
	}
}
