package genotype

import "fmt"

type NodeKind int

const (
	KindInput NodeKind = iota
	KindHidden
	KindOutput
	KindMemory
)

var nodeKindNames = map[NodeKind]string{
	KindInput:  "input",
	KindHidden: "hidden",
	KindOutput: "output",
	KindMemory: "memory",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("node_kind(%d)", int(k))
}

func ParseNodeKind(name string) (NodeKind, error) {
	for kind, n := range nodeKindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown node kind %q", ErrInvalidParameter, name)
}

// Activation is the closed set of node transfer functions.
type Activation int

const (
	ActivationSigmoid Activation = iota
	ActivationTanh
	ActivationReLU
	ActivationLinear
)

var activationNames = map[Activation]string{
	ActivationSigmoid: "sigmoid",
	ActivationTanh:    "tanh",
	ActivationReLU:    "relu",
	ActivationLinear:  "linear",
}

func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activation(%d)", int(a))
}

func ParseActivation(name string) (Activation, error) {
	for activation, n := range activationNames {
		if n == name {
			return activation, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown activation %q", ErrInvalidParameter, name)
}

type Polarity int

const (
	PolarityExcitatory Polarity = iota
	PolarityInhibitory
)

func (p Polarity) String() string {
	if p == PolarityInhibitory {
		return "inhibitory"
	}
	return "excitatory"
}

// Sign is +1 for excitatory and -1 for inhibitory connections.
func (p Polarity) Sign() float64 {
	if p == PolarityInhibitory {
		return -1
	}
	return 1
}

func ParsePolarity(name string) (Polarity, error) {
	switch name {
	case "excitatory":
		return PolarityExcitatory, nil
	case "inhibitory":
		return PolarityInhibitory, nil
	default:
		return 0, fmt.Errorf("%w: unknown polarity %q", ErrInvalidParameter, name)
	}
}
