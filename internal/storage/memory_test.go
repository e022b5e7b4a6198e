package storage

import (
	"context"
	"testing"
	"time"

	"brainzzz/internal/model"
)

func sampleBrain(id string) model.BrainRecord {
	return model.BrainRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		RunID:           "run-1",
		Generation:      4,
		Fitness:         0.75,
		GP:              12.5,
		Genome: model.GenomeRecord{
			Nodes: []model.NodeRecord{
				{ID: 0, Kind: "input", Activation: "linear"},
				{ID: 1, Kind: "output", Activation: "sigmoid", Threshold: 0.4, Plasticity: 1},
			},
			Connections: []model.ConnectionRecord{
				{ID: 0, From: 0, To: 1, Weight: 1.5, Enabled: true, Plasticity: 1, Polarity: "excitatory"},
			},
			NextNodeID:       2,
			NextConnectionID: 1,
		},
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "r"}); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestMemoryStoreRunsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"run-b", "run-a", "run-c"} {
		run := model.RunRecord{VersionedRecord: Versioned(), ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Task: "xor"}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "run-b" || runs[2].ID != "run-c" {
		t.Fatalf("runs should be ordered by creation time: %+v", runs)
	}

	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok || run.Task != "xor" {
		t.Fatalf("unexpected run %+v ok=%v err=%v", run, ok, err)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreBrainAndPopulationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveBrain(ctx, sampleBrain("b1")); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	brain, ok, err := store.GetBrain(ctx, "b1")
	if err != nil || !ok {
		t.Fatalf("get brain ok=%v err=%v", ok, err)
	}
	if brain.GP != 12.5 || len(brain.Genome.Connections) != 1 {
		t.Fatalf("unexpected brain: %+v", brain)
	}

	ids := []string{"b1", "b2"}
	population := model.PopulationRecord{VersionedRecord: Versioned(), ID: "p1", RunID: "run-1", Generation: 3, BrainIDs: ids}
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}
	ids[0] = "changed"
	loaded, ok, err := store.GetPopulation(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("get population ok=%v err=%v", ok, err)
	}
	if loaded.BrainIDs[0] != "b1" || loaded.Generation != 3 {
		t.Fatalf("population should be stored by value: %+v", loaded)
	}
}

func TestMemoryStoreGenerationStatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.GenerationStats{
		{Generation: 1, BestFitness: 0.5, MeanFitness: 0.3},
		{Generation: 2, BestFitness: 0.6, MeanFitness: 0.4},
	}
	if err := store.SaveGenerationStats(ctx, "run-1", input); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	output, ok, err := store.GetGenerationStats(ctx, "run-1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if !ok || len(output) != 2 || output[1].BestFitness != 0.6 {
		t.Fatalf("unexpected stats: %+v", output)
	}
	if _, ok, _ := store.GetGenerationStats(ctx, "run-2"); ok {
		t.Fatal("expected no stats for unknown run")
	}
}
