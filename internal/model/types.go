package model

import (
	"log/slog"
	"time"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type NodeRecord struct {
	ID         int     `json:"id"`
	Kind       string  `json:"kind"`
	Activation string  `json:"activation"`
	Bias       float64 `json:"bias"`
	Threshold  float64 `json:"threshold"`
	Plasticity float64 `json:"plasticity"`
}

type ConnectionRecord struct {
	ID         int     `json:"id"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Plasticity float64 `json:"plasticity"`
	Polarity   string  `json:"polarity"`
}

type GenomeRecord struct {
	Nodes            []NodeRecord       `json:"nodes"`
	Connections      []ConnectionRecord `json:"connections"`
	NextNodeID       int                `json:"next_node_id"`
	NextConnectionID int                `json:"next_connection_id"`
}

type GrowthActionRecord struct {
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Probability float64 `json:"probability"`
	MinGP       float64 `json:"min_gp"`
	MaxNodes    int     `json:"max_nodes"`
}

type GrowthRulesRecord struct {
	Actions           []GrowthActionRecord `json:"actions"`
	MaxNodes          int                  `json:"max_nodes"`
	MaxConnections    int                  `json:"max_connections"`
	GrowthCost        float64              `json:"growth_cost"`
	GrowthProbability float64              `json:"growth_probability"`
	ComplexityPenalty float64              `json:"complexity_penalty"`
}

type BrainRecord struct {
	VersionedRecord
	ID         string            `json:"id"`
	RunID      string            `json:"run_id"`
	Generation int               `json:"generation"`
	Fitness    float64           `json:"fitness"`
	GP         float64           `json:"gp"`
	Age        int               `json:"age"`
	Steps      int               `json:"steps"`
	Genome     GenomeRecord      `json:"genome"`
	Rules      GrowthRulesRecord `json:"rules"`
}

type PopulationRecord struct {
	VersionedRecord
	ID         string   `json:"id"`
	RunID      string   `json:"run_id"`
	Generation int      `json:"generation"`
	BrainIDs   []string `json:"brain_ids"`
}

// GenerationStats is one row of a run's per-generation summary.
type GenerationStats struct {
	Generation     int     `json:"generation" csv:"generation"`
	PopulationSize int     `json:"population_size" csv:"population_size"`
	BestFitness    float64 `json:"best_fitness" csv:"best_fitness"`
	MeanFitness    float64 `json:"mean_fitness" csv:"mean_fitness"`
	WorstFitness   float64 `json:"worst_fitness" csv:"worst_fitness"`
	StdFitness     float64 `json:"std_fitness" csv:"std_fitness"`
	MeanNodes      float64 `json:"mean_nodes" csv:"mean_nodes"`
	MeanGP         float64 `json:"mean_gp" csv:"mean_gp"`
	Diversity      float64 `json:"diversity" csv:"diversity"`
	MutationRate   float64 `json:"mutation_rate" csv:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate" csv:"crossover_rate"`
}

func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.PopulationSize),
		slog.Float64("best", s.BestFitness),
		slog.Float64("mean", s.MeanFitness),
		slog.Float64("worst", s.WorstFitness),
		slog.Float64("mean_nodes", s.MeanNodes),
		slog.Float64("diversity", s.Diversity),
	)
}

type RunRecord struct {
	VersionedRecord
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Seed            int64     `json:"seed"`
	Task            string    `json:"task"`
	PopulationSize  int       `json:"population_size"`
	GenerationsRun  int       `json:"generations_run"`
	BestFitness     float64   `json:"best_fitness"`
	ChampionID      string    `json:"champion_id"`
	StoppedEarly    bool      `json:"stopped_early"`
	FinalPopulation string    `json:"final_population_id"`
}
