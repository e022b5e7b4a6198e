package nn

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"brainzzz/internal/genotype"
)

// Phenotype is the dense computational view of one genome version. Matrix
// index i is the i-th node gene in genome order; node ids are resolved
// through the index map and never used as positions.
type Phenotype struct {
	nodes []genotype.NodeGene
	index map[int]int

	// weights[from, to] and polarity[from, to]; nil when there are no nodes.
	weights  *mat.Dense
	polarity *mat.Dense

	bias       []float64
	threshold  []float64
	plasticity []float64

	edges    int
	topology *simple.DirectedGraph

	pathOnce sync.Once
	avgPath  float64
}

// NewPhenotype snapshots g. Later changes to g are not observed; rebuild
// after every structural change.
func NewPhenotype(g *genotype.Genome) (*Phenotype, error) {
	n := len(g.Nodes)
	p := &Phenotype{
		nodes:      append([]genotype.NodeGene(nil), g.Nodes...),
		index:      make(map[int]int, n),
		bias:       make([]float64, n),
		threshold:  make([]float64, n),
		plasticity: make([]float64, n),
		topology:   simple.NewDirectedGraph(),
	}
	for i, node := range g.Nodes {
		if _, dup := p.index[node.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", genotype.ErrInvalidReference, node.ID)
		}
		p.index[node.ID] = i
		p.bias[i] = node.Bias
		p.threshold[i] = node.Threshold
		p.plasticity[i] = node.Plasticity
		p.topology.AddNode(simple.Node(i))
	}
	if n == 0 {
		return p, nil
	}

	p.weights = mat.NewDense(n, n, nil)
	p.polarity = mat.NewDense(n, n, nil)
	for _, c := range g.Connections {
		from, ok := p.index[c.From]
		if !ok {
			return nil, fmt.Errorf("%w: connection %d source %d", genotype.ErrInvalidReference, c.ID, c.From)
		}
		to, ok := p.index[c.To]
		if !ok {
			return nil, fmt.Errorf("%w: connection %d target %d", genotype.ErrInvalidReference, c.ID, c.To)
		}
		if !c.Enabled {
			continue
		}
		// Parallel edges collapse onto one cell; the last one written wins.
		p.weights.Set(from, to, c.Weight)
		p.polarity.Set(from, to, c.Polarity.Sign())
		if from == to || p.topology.HasEdgeFromTo(int64(from), int64(to)) {
			continue
		}
		p.topology.SetEdge(p.topology.NewEdge(simple.Node(from), simple.Node(to)))
		p.edges++
	}
	return p, nil
}

func (p *Phenotype) NumNodes() int { return len(p.nodes) }

// ComputeActivations runs one synchronous step. Input nodes carry their
// current value through; every other node applies its transfer function to
// the weighted sum of incoming activations plus bias and is gated to zero
// below its threshold.
func (p *Phenotype) ComputeActivations(current []float64) ([]float64, error) {
	n := len(p.nodes)
	if len(current) != n {
		return nil, fmt.Errorf("%w: activation vector length %d, want %d", genotype.ErrInvalidParameter, len(current), n)
	}
	next := make([]float64, n)
	if n == 0 {
		return next, nil
	}

	var net mat.VecDense
	net.MulVec(p.weights.T(), mat.NewVecDense(n, append([]float64(nil), current...)))
	for i, node := range p.nodes {
		if node.Kind == genotype.KindInput {
			next[i] = current[i]
			continue
		}
		value := Apply(node.Activation, net.AtVec(i)+p.bias[i])
		if value < p.threshold[i] {
			value = 0
		}
		next[i] = value
	}
	return next, nil
}

// OutputActivations projects activations onto the output nodes in genome
// order.
func (p *Phenotype) OutputActivations(activations []float64) []float64 {
	indices := p.OutputIndices()
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		if i < len(activations) {
			out = append(out, activations[i])
		}
	}
	return out
}

// IndexOf maps a node id to its matrix position.
func (p *Phenotype) IndexOf(id int) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// NodeID maps a matrix position back to a node id.
func (p *Phenotype) NodeID(i int) (int, bool) {
	if i < 0 || i >= len(p.nodes) {
		return 0, false
	}
	return p.nodes[i].ID, true
}

func (p *Phenotype) InputIndices() []int  { return p.indicesOfKind(genotype.KindInput) }
func (p *Phenotype) OutputIndices() []int { return p.indicesOfKind(genotype.KindOutput) }
func (p *Phenotype) HiddenIndices() []int { return p.indicesOfKind(genotype.KindHidden) }
func (p *Phenotype) MemoryIndices() []int { return p.indicesOfKind(genotype.KindMemory) }

func (p *Phenotype) indicesOfKind(kind genotype.NodeKind) []int {
	var out []int
	for i, node := range p.nodes {
		if node.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

// NodeConnections lists the node ids with an enabled edge into and out of
// id.
func (p *Phenotype) NodeConnections(id int) (incoming, outgoing []int) {
	i, ok := p.index[id]
	if !ok {
		return nil, nil
	}
	for j := range p.nodes {
		if p.weights.At(j, i) != 0 || p.polarity.At(j, i) != 0 {
			incoming = append(incoming, p.nodes[j].ID)
		}
		if p.weights.At(i, j) != 0 || p.polarity.At(i, j) != 0 {
			outgoing = append(outgoing, p.nodes[j].ID)
		}
	}
	return incoming, outgoing
}

// ConnectionStrength is the signed weight of the from -> to edge, zero when
// either id is unknown or unconnected.
func (p *Phenotype) ConnectionStrength(from, to int) float64 {
	i, ok := p.index[from]
	if !ok {
		return 0
	}
	j, ok := p.index[to]
	if !ok {
		return 0
	}
	return p.weights.At(i, j) * p.polarity.At(i, j)
}

// NetworkDensity is the number of distinct directed edges between different
// nodes over n*(n-1). Parallel edges and self-loops do not count, which keeps
// the result in [0, 1].
func (p *Phenotype) NetworkDensity() float64 {
	n := len(p.nodes)
	if n <= 1 {
		return 0
	}
	return float64(p.edges) / float64(n*(n-1))
}

// AveragePathLength is the mean unit-cost shortest path over all ordered
// reachable pairs of distinct nodes, 0 when no pair is reachable. Computed
// once per phenotype.
func (p *Phenotype) AveragePathLength() float64 {
	p.pathOnce.Do(func() {
		p.avgPath = p.averagePathLength()
	})
	return p.avgPath
}

func (p *Phenotype) averagePathLength() float64 {
	n := len(p.nodes)
	if n <= 1 || p.edges == 0 {
		return 0
	}
	paths, _ := path.FloydWarshall(p.topology)
	total, count := 0.0, 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := paths.Weight(int64(i), int64(j))
			if math.IsInf(d, 1) {
				continue
			}
			total += d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
