package genotype

import (
	"fmt"

	"brainzzz/internal/model"
)

// Record converts the genome into its persisted form.
func (g *Genome) Record() model.GenomeRecord {
	rec := model.GenomeRecord{
		Nodes:            make([]model.NodeRecord, 0, len(g.Nodes)),
		Connections:      make([]model.ConnectionRecord, 0, len(g.Connections)),
		NextNodeID:       g.nextNodeID,
		NextConnectionID: g.nextConnectionID,
	}
	for _, n := range g.Nodes {
		rec.Nodes = append(rec.Nodes, model.NodeRecord{
			ID:         n.ID,
			Kind:       n.Kind.String(),
			Activation: n.Activation.String(),
			Bias:       n.Bias,
			Threshold:  n.Threshold,
			Plasticity: n.Plasticity,
		})
	}
	for _, c := range g.Connections {
		rec.Connections = append(rec.Connections, model.ConnectionRecord{
			ID:         c.ID,
			From:       c.From,
			To:         c.To,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Plasticity: c.Plasticity,
			Polarity:   c.Polarity.String(),
		})
	}
	return rec
}

// FromRecord rebuilds a genome and validates it.
func FromRecord(rec model.GenomeRecord) (*Genome, error) {
	g := &Genome{
		Nodes:            make([]NodeGene, 0, len(rec.Nodes)),
		Connections:      make([]ConnectionGene, 0, len(rec.Connections)),
		nextNodeID:       rec.NextNodeID,
		nextConnectionID: rec.NextConnectionID,
	}
	for _, n := range rec.Nodes {
		kind, err := ParseNodeKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		activation, err := ParseActivation(n.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		g.Nodes = append(g.Nodes, NodeGene{
			ID:         n.ID,
			Kind:       kind,
			Activation: activation,
			Bias:       n.Bias,
			Threshold:  n.Threshold,
			Plasticity: n.Plasticity,
		})
	}
	for _, c := range rec.Connections {
		polarity, err := ParsePolarity(c.Polarity)
		if err != nil {
			return nil, fmt.Errorf("connection %d: %w", c.ID, err)
		}
		g.Connections = append(g.Connections, ConnectionGene{
			ID:         c.ID,
			From:       c.From,
			To:         c.To,
			Weight:     c.Weight,
			Enabled:    c.Enabled,
			Plasticity: c.Plasticity,
			Polarity:   polarity,
		})
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
