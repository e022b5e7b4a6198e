package growth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"brainzzz/internal/model"
)

// Action names a structural growth step.
type Action string

const (
	ActionAddNode       Action = "add_node"
	ActionSplitNode     Action = "split_node"
	ActionAddConnection Action = "add_connection"
)

// Complexity thresholds.
const (
	MaxGrowthComplexity = 0.8
	PenaltyComplexity   = 0.5
)

var ErrUnknownAction = errors.New("unknown growth action")

// Subject is what growth policy needs to know about a growing entity.
type Subject interface {
	GP() float64
	NumNodes() int
	NetworkDensity() float64
	AveragePathLength() float64
}

// Rule is one weighted growth action.
type Rule struct {
	Name        Action  `yaml:"name" json:"name" ini:"-"`
	Cost        float64 `yaml:"cost" json:"cost" ini:"cost"`
	Probability float64 `yaml:"probability" json:"probability" ini:"probability"`
	MinGP       float64 `yaml:"min_gp" json:"min_gp" ini:"min_gp"`
	MaxNodes    int     `yaml:"max_nodes" json:"max_nodes" ini:"max_nodes"`
}

// Rules is a value-like growth policy. Every brain holds its own copy.
type Rules struct {
	Actions           []Rule  `yaml:"actions" json:"actions" ini:"-"`
	MaxNodes          int     `yaml:"max_nodes" json:"max_nodes" ini:"max_nodes"`
	MaxConnections    int     `yaml:"max_connections" json:"max_connections" ini:"max_connections"`
	GrowthCost        float64 `yaml:"growth_cost" json:"growth_cost" ini:"growth_cost"`
	GrowthProbability float64 `yaml:"growth_probability" json:"growth_probability" ini:"growth_probability"`
	ComplexityPenalty float64 `yaml:"complexity_penalty" json:"complexity_penalty" ini:"complexity_penalty"`
}

func DefaultRules() Rules {
	return Rules{
		Actions: []Rule{
			{Name: ActionAddNode, Cost: 10, Probability: 0.4, MinGP: 10, MaxNodes: 50},
			{Name: ActionSplitNode, Cost: 15, Probability: 0.3, MinGP: 15, MaxNodes: 40},
			{Name: ActionAddConnection, Cost: 5, Probability: 0.3, MinGP: 5, MaxNodes: 100},
		},
		MaxNodes:          100,
		MaxConnections:    500,
		GrowthCost:        5,
		GrowthProbability: 0.1,
		ComplexityPenalty: 0.01,
	}
}

// Clone returns a copy that shares no action storage with r.
func (r Rules) Clone() Rules {
	out := r
	out.Actions = append([]Rule(nil), r.Actions...)
	return out
}

func (r Rules) Validate() error {
	if r.MaxNodes <= 0 {
		return fmt.Errorf("max nodes must be > 0, got %d", r.MaxNodes)
	}
	if r.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be > 0, got %d", r.MaxConnections)
	}
	if r.GrowthCost < 0 {
		return fmt.Errorf("growth cost must be >= 0, got %v", r.GrowthCost)
	}
	if r.GrowthProbability < 0 || r.GrowthProbability > 1 {
		return fmt.Errorf("growth probability must be in [0,1], got %v", r.GrowthProbability)
	}
	if r.ComplexityPenalty < 0 {
		return fmt.Errorf("complexity penalty must be >= 0, got %v", r.ComplexityPenalty)
	}
	seen := make(map[Action]struct{}, len(r.Actions))
	for _, action := range r.Actions {
		if _, ok := seen[action.Name]; ok {
			return fmt.Errorf("duplicate growth action %q", action.Name)
		}
		seen[action.Name] = struct{}{}
		switch action.Name {
		case ActionAddNode, ActionSplitNode, ActionAddConnection:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, action.Name)
		}
		if action.Cost < 0 || action.Probability < 0 || action.MinGP < 0 {
			return fmt.Errorf("growth action %q has negative cost, probability or min gp", action.Name)
		}
	}
	return nil
}

// ComplexityScore blends normalized size, density and path length into a
// value that is in [0,1] while the node count stays under MaxNodes.
func (r Rules) ComplexityScore(s Subject) float64 {
	nodes := 0.0
	if r.MaxNodes > 0 {
		nodes = float64(s.NumNodes()) / float64(r.MaxNodes)
	}
	path := math.Min(s.AveragePathLength()/10, 1)
	return 0.4*nodes + 0.3*s.NetworkDensity() + 0.3*path
}

// CanGrow runs the deterministic gates first and only then rolls the
// growth probability, so an ineligible subject never consumes randomness.
func (r Rules) CanGrow(rng *rand.Rand, s Subject) bool {
	if !r.eligible(s) {
		return false
	}
	return rng.Float64() < r.GrowthProbability
}

func (r Rules) eligible(s Subject) bool {
	if s.GP() < r.GrowthCost {
		return false
	}
	if s.NumNodes() >= r.MaxNodes {
		return false
	}
	return r.ComplexityScore(s) <= MaxGrowthComplexity
}

// SelectGrowthType draws one eligible action weighted by probability.
func (r Rules) SelectGrowthType(rng *rand.Rand, s Subject) (Action, bool) {
	available := make([]Rule, 0, len(r.Actions))
	total := 0.0
	for _, action := range r.Actions {
		if r.applicable(s, action) {
			available = append(available, action)
			total += action.Probability
		}
	}
	if len(available) == 0 || total <= 0 {
		return "", false
	}

	roll := rng.Float64() * total
	cumulative := 0.0
	for _, action := range available {
		cumulative += action.Probability
		if roll < cumulative {
			return action.Name, true
		}
	}
	return available[len(available)-1].Name, true
}

// GrowthPenalty is the GP a subject loses for being over-complex.
func (r Rules) GrowthPenalty(s Subject) float64 {
	score := r.ComplexityScore(s)
	if score <= PenaltyComplexity {
		return 0
	}
	return (score - PenaltyComplexity) * r.ComplexityPenalty
}

// CostOf returns the GP cost of an action, or the base growth cost for an
// unknown one.
func (r Rules) CostOf(name Action) float64 {
	if action, ok := r.Rule(name); ok {
		return action.Cost
	}
	return r.GrowthCost
}

func (r Rules) Rule(name Action) (Rule, bool) {
	for _, action := range r.Actions {
		if action.Name == name {
			return action, true
		}
	}
	return Rule{}, false
}

func (r Rules) CanApply(s Subject, name Action) bool {
	action, ok := r.Rule(name)
	if !ok {
		return false
	}
	return r.applicable(s, action)
}

func (r Rules) applicable(s Subject, action Rule) bool {
	return s.GP() >= action.MinGP && s.NumNodes() < action.MaxNodes
}

// AvailableActions lists applicable actions in rule order.
func (r Rules) AvailableActions(s Subject) []Action {
	var out []Action
	for _, action := range r.Actions {
		if r.applicable(s, action) {
			out = append(out, action.Name)
		}
	}
	return out
}

// OptimalAction picks the applicable action the subject can afford the most
// times over.
func (r Rules) OptimalAction(s Subject) (Action, bool) {
	var best Action
	bestRatio := 0.0
	for _, name := range r.AvailableActions(s) {
		cost := r.CostOf(name)
		if cost <= 0 {
			continue
		}
		if ratio := s.GP() / cost; ratio > bestRatio {
			bestRatio = ratio
			best = name
		}
	}
	return best, best != ""
}

// AddRule appends or replaces the action with rule.Name.
func (r *Rules) AddRule(rule Rule) {
	for i := range r.Actions {
		if r.Actions[i].Name == rule.Name {
			r.Actions[i] = rule
			return
		}
	}
	r.Actions = append(r.Actions, rule)
}

func (r *Rules) RemoveRule(name Action) bool {
	for i := range r.Actions {
		if r.Actions[i].Name == name {
			r.Actions = append(r.Actions[:i], r.Actions[i+1:]...)
			return true
		}
	}
	return false
}

// Statistics is a read-only snapshot of growth policy against a subject.
type Statistics struct {
	Eligible          bool
	AvailableActions  []Action
	ComplexityScore   float64
	GrowthProbability float64
	MaxNodes          int
	CurrentNodes      int
	GP                float64
	OptimalAction     Action
}

// Statistics reports the deterministic growth state; it does not roll the
// growth probability.
func (r Rules) Statistics(s Subject) Statistics {
	optimal, _ := r.OptimalAction(s)
	return Statistics{
		Eligible:          r.eligible(s),
		AvailableActions:  r.AvailableActions(s),
		ComplexityScore:   r.ComplexityScore(s),
		GrowthProbability: r.GrowthProbability,
		MaxNodes:          r.MaxNodes,
		CurrentNodes:      s.NumNodes(),
		GP:                s.GP(),
		OptimalAction:     optimal,
	}
}

func (r Rules) Record() model.GrowthRulesRecord {
	rec := model.GrowthRulesRecord{
		Actions:           make([]model.GrowthActionRecord, 0, len(r.Actions)),
		MaxNodes:          r.MaxNodes,
		MaxConnections:    r.MaxConnections,
		GrowthCost:        r.GrowthCost,
		GrowthProbability: r.GrowthProbability,
		ComplexityPenalty: r.ComplexityPenalty,
	}
	for _, action := range r.Actions {
		rec.Actions = append(rec.Actions, model.GrowthActionRecord{
			Name:        string(action.Name),
			Cost:        action.Cost,
			Probability: action.Probability,
			MinGP:       action.MinGP,
			MaxNodes:    action.MaxNodes,
		})
	}
	return rec
}

func RulesFromRecord(rec model.GrowthRulesRecord) (Rules, error) {
	r := Rules{
		Actions:           make([]Rule, 0, len(rec.Actions)),
		MaxNodes:          rec.MaxNodes,
		MaxConnections:    rec.MaxConnections,
		GrowthCost:        rec.GrowthCost,
		GrowthProbability: rec.GrowthProbability,
		ComplexityPenalty: rec.ComplexityPenalty,
	}
	for _, action := range rec.Actions {
		r.Actions = append(r.Actions, Rule{
			Name:        Action(action.Name),
			Cost:        action.Cost,
			Probability: action.Probability,
			MinGP:       action.MinGP,
			MaxNodes:    action.MaxNodes,
		})
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}
