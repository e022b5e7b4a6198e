package storage

import (
	"context"

	"brainzzz/internal/model"
)

// Store persists runs, brain snapshots, populations and per-generation
// statistics. Get methods report a missing record with found=false.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveBrain(ctx context.Context, brain model.BrainRecord) error
	GetBrain(ctx context.Context, id string) (model.BrainRecord, bool, error)
	SavePopulation(ctx context.Context, population model.PopulationRecord) error
	GetPopulation(ctx context.Context, id string) (model.PopulationRecord, bool, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
}
