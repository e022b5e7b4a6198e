package evo

import (
	"errors"
	"math/rand"
	"testing"

	"brainzzz/internal/brain"
	"brainzzz/internal/genotype"
	"brainzzz/internal/growth"
)

func divergentParents(t *testing.T, seed int64) (*brain.Brain, *brain.Brain) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g1, err := genotype.NewGenome(rng, 2, 1, 2)
	if err != nil {
		t.Fatalf("genome 1: %v", err)
	}
	g2, err := genotype.NewGenome(rng, 3, 2, 6)
	if err != nil {
		t.Fatalf("genome 2: %v", err)
	}
	for i := 0; i < 5; i++ {
		hidden := g2.NodesOfKind(genotype.KindHidden)
		if _, _, err := g2.SplitNode(rng, hidden[rng.Intn(len(hidden))]); err != nil {
			t.Fatalf("split: %v", err)
		}
	}
	r2 := growth.DefaultRules()
	r2.GrowthProbability = 0.42
	r2.MaxNodes = 77
	p1, err := brain.New(g1, growth.DefaultRules(), rand.New(rand.NewSource(seed+1)))
	if err != nil {
		t.Fatalf("parent 1: %v", err)
	}
	p2, err := brain.New(g2, r2, rand.New(rand.NewSource(seed+2)))
	if err != nil {
		t.Fatalf("parent 2: %v", err)
	}
	p1.SetGP(10)
	p1.SetAge(2)
	return p1, p2
}

func TestCrossoverKeepsReferentialIntegrity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, c := range []Crossover{UniformCrossover{}, SinglePointCrossover{}, TwoPointCrossover{}} {
		for seed := int64(0); seed < 10; seed++ {
			p1, p2 := divergentParents(t, seed)
			for _, pair := range [][2]*brain.Brain{{p1, p2}, {p2, p1}} {
				child, err := c.Cross(rng, pair[0], pair[1])
				if err != nil {
					t.Fatalf("%s: cross: %v", c.Name(), err)
				}
				if err := child.Genome().Validate(); err != nil {
					t.Fatalf("%s: offspring invalid: %v", c.Name(), err)
				}
				if child.NumNodes() != pair[0].NumNodes() || child.ConnectionCount() != pair[0].ConnectionCount() {
					t.Fatalf("%s: offspring should take structure from first parent", c.Name())
				}
			}
		}
	}
}

func TestCrossoverDoesNotAlterParents(t *testing.T) {
	p1, p2 := divergentParents(t, 20)
	before1 := p1.Genome().Clone()
	before2 := p2.Genome().Clone()
	child, err := UniformCrossover{}.Cross(rand.New(rand.NewSource(3)), p1, p2)
	if err != nil {
		t.Fatalf("cross: %v", err)
	}
	child.Genome().Nodes[0].Bias = 1000
	for i := range before1.Nodes {
		if p1.Genome().Nodes[i] != before1.Nodes[i] {
			t.Fatal("first parent changed")
		}
	}
	for i := range before2.Nodes {
		if p2.Genome().Nodes[i] != before2.Nodes[i] {
			t.Fatal("second parent changed")
		}
	}
}

func TestCrossoverOffspringScalars(t *testing.T) {
	p1, p2 := divergentParents(t, 30)
	child, err := SinglePointCrossover{}.Cross(rand.New(rand.NewSource(4)), p1, p2)
	if err != nil {
		t.Fatalf("cross: %v", err)
	}
	if child.GP() != 8 || child.Age() != 2 {
		t.Fatalf("offspring should be a damped clone of parent 1: gp=%v age=%d", child.GP(), child.Age())
	}
}

func TestCrossoverMixesValues(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p1, _ := divergentParents(t, 40)
	p2, err := p1.Clone(rand.New(rand.NewSource(6)))
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	for i := range p2.Genome().Nodes {
		p2.Genome().Nodes[i].Bias = 7
	}
	if err := p2.Rebuild(); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	fromSecond := 0
	for i := 0; i < 20; i++ {
		child, err := UniformCrossover{}.Cross(rng, p1, p2)
		if err != nil {
			t.Fatalf("cross: %v", err)
		}
		for _, n := range child.Genome().Nodes {
			if n.Bias == 7 {
				fromSecond++
			}
		}
	}
	total := 20 * p1.NumNodes()
	if fromSecond == 0 || fromSecond == total {
		t.Fatalf("uniform crossover should mix parents, %d of %d from second", fromSecond, total)
	}
}

func TestCrossRules(t *testing.T) {
	r1 := growth.DefaultRules()
	r2 := growth.DefaultRules()
	r2.GrowthProbability = 0.3
	r2.ComplexityPenalty = 0.05
	r2.MaxNodes = 10
	r2.MaxConnections = 20
	rng := rand.New(rand.NewSource(7))
	sawFirst, sawSecond := false, false
	for i := 0; i < 50; i++ {
		out := CrossRules(rng, r1, r2)
		switch out.MaxNodes {
		case r1.MaxNodes:
			sawFirst = true
		case r2.MaxNodes:
			sawSecond = true
		default:
			t.Fatalf("unexpected max nodes %d", out.MaxNodes)
		}
	}
	if !sawFirst || !sawSecond {
		t.Fatal("expected both parents to contribute max nodes")
	}
}

func TestNewCrossover(t *testing.T) {
	if _, err := NewCrossover("three_point"); !errors.Is(err, genotype.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	c, err := NewCrossover("two_point")
	if err != nil || c.Name() != "two_point" {
		t.Fatalf("unexpected crossover %v %v", c, err)
	}
}
