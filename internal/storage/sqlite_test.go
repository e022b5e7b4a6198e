//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"brainzzz/internal/model"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "brainzzz.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	if err := store.SaveBrain(ctx, sampleBrain("b1")); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	brain, ok, err := store.GetBrain(ctx, "b1")
	if err != nil || !ok || brain.Fitness != 0.75 {
		t.Fatalf("unexpected brain %+v ok=%v err=%v", brain, ok, err)
	}

	population := model.PopulationRecord{VersionedRecord: Versioned(), ID: "p1", BrainIDs: []string{"b1"}}
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}
	population.Generation = 9
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("upsert population: %v", err)
	}
	loaded, ok, err := store.GetPopulation(ctx, "p1")
	if err != nil || !ok || loaded.Generation != 9 {
		t.Fatalf("unexpected population %+v ok=%v err=%v", loaded, ok, err)
	}

	stats := []model.GenerationStats{{Generation: 1, BestFitness: 0.4}}
	if err := store.SaveGenerationStats(ctx, "run-1", stats); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	got, ok, err := store.GetGenerationStats(ctx, "run-1")
	if err != nil || !ok || len(got) != 1 || got[0].BestFitness != 0.4 {
		t.Fatalf("unexpected stats %+v ok=%v err=%v", got, ok, err)
	}

	if _, ok, err := store.GetBrain(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing brain, ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreListRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestSQLite(t)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"late", "early"} {
		run := model.RunRecord{VersionedRecord: Versioned(), ID: id, CreatedAt: base.Add(-time.Duration(i) * time.Hour)}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "early" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, _, err := store.GetRun(context.Background(), "r"); err == nil {
		t.Fatal("expected error before init")
	}
}
