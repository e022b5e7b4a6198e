package brainzzz

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brainzzz/internal/config"
)

func newTestClient(t *testing.T, outputDir string) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind: "memory",
		OutputDir: outputDir,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallConfig(t *testing.T, runID string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Run.ID = runID
	cfg.Run.Generations = 3
	cfg.Run.FitnessGoal = 0
	cfg.Run.Workers = 2
	cfg.Evolution.PopulationSize = 6
	cfg.Evolution.EliteSize = 1
	return cfg
}

func TestClientRunRunsStatsChampion(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "runs")
	client := newTestClient(t, out)

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig(t, "run-a")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-a" || summary.GenerationsRun != 3 || len(summary.BestByGeneration) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.StopReason != "generations" || summary.ChampionID == "" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, name := range []string{"run.json", "config.yaml", "generation_stats.csv", "champion.json"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, name)); err != nil {
			t.Fatalf("expected artifact %s: %v", name, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-a" || runs[0].Task != "xor" || runs[0].Population != 6 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	st, err := client.Stats(ctx, StatsRequest{Latest: true, Limit: 2})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.RunID != "run-a" || len(st.Generations) != 2 || st.Summary.Generations != 3 {
		t.Fatalf("unexpected stats %+v", st)
	}

	champion, err := client.Champion(ctx, ChampionRequest{RunID: "run-a"})
	if err != nil {
		t.Fatalf("champion: %v", err)
	}
	if champion.ID != summary.ChampionID || champion.Fitness != summary.FinalBestFitness {
		t.Fatalf("unexpected champion %s %v", champion.ID, champion.Fitness)
	}
}

func TestClientReadsArtifactsWithoutStore(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	summary, err := newTestClient(t, out).Run(ctx, RunRequest{Config: smallConfig(t, "run-b")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	fresh := newTestClient(t, out)
	st, err := fresh.Stats(ctx, StatsRequest{RunID: "run-b"})
	if err != nil {
		t.Fatalf("stats from artifacts: %v", err)
	}
	if len(st.Generations) != 3 || math.Abs(st.Summary.FinalBest-summary.BestByGeneration[2]) > 1e-12 {
		t.Fatalf("unexpected stats %+v", st)
	}
	champion, err := fresh.Champion(ctx, ChampionRequest{Latest: true})
	if err != nil {
		t.Fatalf("champion from artifacts: %v", err)
	}
	if champion.ID != summary.ChampionID {
		t.Fatalf("expected champion %s, got %s", summary.ChampionID, champion.ID)
	}
}

func TestClientRequestValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	if _, err := client.Stats(ctx, StatsRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected error for run id with latest")
	}
	if _, err := client.Stats(ctx, StatsRequest{}); err == nil || !strings.Contains(err.Error(), "requires run id") {
		t.Fatalf("expected missing run id error, got %v", err)
	}
	if _, err := client.Stats(ctx, StatsRequest{RunID: "x", Limit: -1}); err == nil {
		t.Fatal("expected negative limit error")
	}
	if _, err := client.Champion(ctx, ChampionRequest{Latest: true}); err == nil || !strings.Contains(err.Error(), "no runs available") {
		t.Fatalf("expected no runs error, got %v", err)
	}
	if _, err := client.Champion(ctx, ChampionRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected missing champion error")
	}
	if _, err := New(Options{StoreKind: "postgres"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty run list, got %v %v", runs, err)
	}
}
