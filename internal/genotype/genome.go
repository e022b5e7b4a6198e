package genotype

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidReference    = errors.New("invalid gene reference")
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrNoRandomSource      = errors.New("random source is required")
)

// NodeGene is one neuron of the encoding.
type NodeGene struct {
	ID         int
	Kind       NodeKind
	Activation Activation
	Bias       float64
	Threshold  float64
	Plasticity float64
}

// ConnectionGene is one directed synapse between two node ids.
type ConnectionGene struct {
	ID         int
	From       int
	To         int
	Weight     float64
	Enabled    bool
	Plasticity float64
	Polarity   Polarity
}

// Genome owns ordered node and connection genes and the id counters that
// allocate them. Ids are retired on removal and never handed out again.
type Genome struct {
	Nodes       []NodeGene
	Connections []ConnectionGene

	nextNodeID       int
	nextConnectionID int
}

// NewGenome builds the fixed starting layout: inputs, then hidden, then
// outputs, with every input wired to every hidden node and every hidden node
// wired to every output.
func NewGenome(rng *rand.Rand, inputs, outputs, hidden int) (*Genome, error) {
	if inputs < 0 || outputs < 0 || hidden < 0 {
		return nil, fmt.Errorf("%w: layout sizes must be >= 0 (inputs=%d outputs=%d hidden=%d)", ErrInvalidParameter, inputs, outputs, hidden)
	}
	if rng == nil {
		return nil, ErrNoRandomSource
	}
	g := &Genome{
		Nodes:       make([]NodeGene, 0, inputs+hidden+outputs),
		Connections: make([]ConnectionGene, 0, inputs*hidden+hidden*outputs),
	}

	inputIDs := make([]int, 0, inputs)
	for i := 0; i < inputs; i++ {
		inputIDs = append(inputIDs, g.AddNode(rng, KindInput, ActivationLinear))
	}
	hiddenIDs := make([]int, 0, hidden)
	for i := 0; i < hidden; i++ {
		hiddenIDs = append(hiddenIDs, g.AddNode(rng, KindHidden, ActivationSigmoid))
	}
	outputIDs := make([]int, 0, outputs)
	for i := 0; i < outputs; i++ {
		outputIDs = append(outputIDs, g.AddNode(rng, KindOutput, ActivationSigmoid))
	}

	for _, from := range inputIDs {
		for _, to := range hiddenIDs {
			if _, err := g.AddConnection(rng, from, to); err != nil {
				return nil, err
			}
		}
	}
	for _, from := range hiddenIDs {
		for _, to := range outputIDs {
			if _, err := g.AddConnection(rng, from, to); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// NextNodeID returns the id the next AddNode call will allocate.
func (g *Genome) NextNodeID() int { return g.nextNodeID }

// NextConnectionID returns the id the next AddConnection call will allocate.
func (g *Genome) NextConnectionID() int { return g.nextConnectionID }

// AddNode appends a node with randomized bias, threshold and plasticity.
// rng must not be nil.
func (g *Genome) AddNode(rng *rand.Rand, kind NodeKind, activation Activation) int {
	id := g.nextNodeID
	g.nextNodeID++
	g.Nodes = append(g.Nodes, NodeGene{
		ID:         id,
		Kind:       kind,
		Activation: activation,
		Bias:       uniform(rng, -0.5, 0.5),
		Threshold:  uniform(rng, 0.3, 0.7),
		Plasticity: uniform(rng, 0.5, 1.5),
	})
	return id
}

// AddConnection wires from -> to. An enabled connection between the same
// pair is rejected with ErrDuplicateConnection.
func (g *Genome) AddConnection(rng *rand.Rand, from, to int) (int, error) {
	if !g.HasNode(from) {
		return 0, fmt.Errorf("%w: connection source node %d", ErrInvalidReference, from)
	}
	if !g.HasNode(to) {
		return 0, fmt.Errorf("%w: connection target node %d", ErrInvalidReference, to)
	}
	if g.Connected(from, to) {
		return 0, fmt.Errorf("%w: %d -> %d", ErrDuplicateConnection, from, to)
	}
	if rng == nil {
		return 0, ErrNoRandomSource
	}
	polarity := PolarityExcitatory
	if rng.Intn(2) == 1 {
		polarity = PolarityInhibitory
	}
	return g.appendConnection(ConnectionGene{
		From:       from,
		To:         to,
		Weight:     uniform(rng, -2, 2),
		Enabled:    true,
		Plasticity: uniform(rng, 0.5, 1.5),
		Polarity:   polarity,
	}), nil
}

func (g *Genome) appendConnection(c ConnectionGene) int {
	c.ID = g.nextConnectionID
	g.nextConnectionID++
	g.Connections = append(g.Connections, c)
	return c.ID
}

// SplitNode replaces id with two hidden sigmoid nodes joined by a new
// connection: incoming edges of id now target the first, outgoing edges now
// leave the second. A split hidden or memory node is removed from the node
// list; input and output nodes keep their slot so the input prefix and the
// output projection do not shift.
func (g *Genome) SplitNode(rng *rand.Rand, id int) (int, int, error) {
	idx := g.nodeIndex(id)
	if idx < 0 {
		return 0, 0, fmt.Errorf("%w: split node %d", ErrInvalidReference, id)
	}
	if rng == nil {
		return 0, 0, ErrNoRandomSource
	}
	kind := g.Nodes[idx].Kind

	first := g.AddNode(rng, KindHidden, ActivationSigmoid)
	second := g.AddNode(rng, KindHidden, ActivationSigmoid)
	for i := range g.Connections {
		c := &g.Connections[i]
		if c.To == id {
			c.To = first
		}
		if c.From == id {
			c.From = second
		}
	}
	if _, err := g.AddConnection(rng, first, second); err != nil {
		return 0, 0, err
	}

	if kind == KindHidden || kind == KindMemory {
		g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)
	}
	return first, second, nil
}

// RemoveConnection drops the connection gene with the given id.
func (g *Genome) RemoveConnection(id int) error {
	for i := range g.Connections {
		if g.Connections[i].ID == id {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: connection %d", ErrInvalidReference, id)
}

// Clone returns a structurally independent deep copy.
func (g *Genome) Clone() *Genome {
	out := &Genome{
		Nodes:            make([]NodeGene, len(g.Nodes)),
		Connections:      make([]ConnectionGene, len(g.Connections)),
		nextNodeID:       g.nextNodeID,
		nextConnectionID: g.nextConnectionID,
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Connections, g.Connections)
	return out
}

// HasNode reports whether a node with the given id exists.
func (g *Genome) HasNode(id int) bool {
	return g.nodeIndex(id) >= 0
}

// Node returns the gene with the given id.
func (g *Genome) Node(id int) (NodeGene, bool) {
	idx := g.nodeIndex(id)
	if idx < 0 {
		return NodeGene{}, false
	}
	return g.Nodes[idx], true
}

// Connection returns the connection gene with the given id.
func (g *Genome) Connection(id int) (ConnectionGene, bool) {
	for _, c := range g.Connections {
		if c.ID == id {
			return c, true
		}
	}
	return ConnectionGene{}, false
}

// Connected reports whether an enabled from -> to connection exists.
func (g *Genome) Connected(from, to int) bool {
	for _, c := range g.Connections {
		if c.Enabled && c.From == from && c.To == to {
			return true
		}
	}
	return false
}

// ConnectionsTo returns every connection targeting id, enabled or not.
func (g *Genome) ConnectionsTo(id int) []ConnectionGene {
	var out []ConnectionGene
	for _, c := range g.Connections {
		if c.To == id {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsFrom returns every connection leaving id, enabled or not.
func (g *Genome) ConnectionsFrom(id int) []ConnectionGene {
	var out []ConnectionGene
	for _, c := range g.Connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// NodesOfKind returns ids of nodes of the given kind in genome order.
func (g *Genome) NodesOfKind(kind NodeKind) []int {
	var ids []int
	for _, n := range g.Nodes {
		if n.Kind == kind {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// EnabledConnections counts connections that take part in the forward pass.
func (g *Genome) EnabledConnections() int {
	count := 0
	for _, c := range g.Connections {
		if c.Enabled {
			count++
		}
	}
	return count
}

// Validate checks id uniqueness, counter monotonicity and that every
// connection references existing nodes.
func (g *Genome) Validate() error {
	nodes := make(map[int]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %d", ErrInvalidReference, n.ID)
		}
		if n.ID >= g.nextNodeID {
			return fmt.Errorf("%w: node id %d not below counter %d", ErrInvalidReference, n.ID, g.nextNodeID)
		}
		nodes[n.ID] = struct{}{}
	}
	conns := make(map[int]struct{}, len(g.Connections))
	for _, c := range g.Connections {
		if _, dup := conns[c.ID]; dup {
			return fmt.Errorf("%w: duplicate connection id %d", ErrInvalidReference, c.ID)
		}
		if c.ID >= g.nextConnectionID {
			return fmt.Errorf("%w: connection id %d not below counter %d", ErrInvalidReference, c.ID, g.nextConnectionID)
		}
		conns[c.ID] = struct{}{}
		if _, ok := nodes[c.From]; !ok {
			return fmt.Errorf("%w: connection %d source %d", ErrInvalidReference, c.ID, c.From)
		}
		if _, ok := nodes[c.To]; !ok {
			return fmt.Errorf("%w: connection %d target %d", ErrInvalidReference, c.ID, c.To)
		}
	}
	return nil
}

func (g *Genome) nodeIndex(id int) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
