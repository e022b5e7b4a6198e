package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brainzzz/internal/growth"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Evolution.PopulationSize != 50 || cfg.Run.Generations != 100 || cfg.Run.FitnessGoal != 0.95 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Growth.Actions) != len(growth.DefaultRules().Actions) {
		t.Fatalf("expected default growth actions, got %+v", cfg.Growth.Actions)
	}
	if cfg.TaskNames() != "xor" {
		t.Fatalf("unexpected task names %q", cfg.TaskNames())
	}
}

func TestLoadYAMLOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, "run.yaml", `
run:
  generations: 7
evolution:
  population_size: 12
  elite_size: 2
tasks:
  - name: sequence
    weight: 2
    sequence_length: 2
genome:
  inputs: 2
  outputs: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.Generations != 7 || cfg.Run.Seed != 42 {
		t.Fatalf("unexpected run section %+v", cfg.Run)
	}
	if cfg.Evolution.PopulationSize != 12 || cfg.Evolution.MutationRate != 0.1 {
		t.Fatalf("unexpected evolution section %+v", cfg.Evolution)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].SequenceLength != 2 {
		t.Fatalf("tasks should be replaced, got %+v", cfg.Tasks)
	}
}

func TestLoadINI(t *testing.T) {
	path := writeFile(t, "run.ini", `
[run]
seed = 7
generations = 3
workers = 2

[evolution]
population_size = 10
elite_size = 1
selection = rank

[growth]
growth_probability = 0.25

[action.add_connection]
cost = 2
probability = 1

[task.xor]
weight = 0.5

[log]
format = json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.Seed != 7 || cfg.Run.Generations != 3 || cfg.Run.Workers != 2 {
		t.Fatalf("unexpected run section %+v", cfg.Run)
	}
	if cfg.Evolution.Selection != "rank" || cfg.Evolution.PopulationSize != 10 {
		t.Fatalf("unexpected evolution section %+v", cfg.Evolution)
	}
	if cfg.Growth.GrowthProbability != 0.25 || cfg.Growth.MaxNodes != 100 {
		t.Fatalf("unexpected growth section %+v", cfg.Growth)
	}
	if len(cfg.Growth.Actions) != 1 {
		t.Fatalf("action sections should replace the list, got %+v", cfg.Growth.Actions)
	}
	a := cfg.Growth.Actions[0]
	if a.Name != growth.ActionAddConnection || a.Cost != 2 || a.Probability != 1 || a.MinGP != 5 {
		t.Fatalf("action should start from its default, got %+v", a)
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Weight != 0.5 {
		t.Fatalf("unexpected tasks %+v", cfg.Tasks)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"generations": "run:\n  generations: 0\n",
		"task":        "tasks:\n  - name: maze\n",
		"no tasks":    "tasks: []\n",
		"layout":      "tasks:\n  - name: sequence\n    sequence_length: 3\n",
		"level":       "log:\n  level: loud\n",
		"format":      "log:\n  format: xml\n",
		"elite":       "evolution:\n  elite_size: 500\n",
		"action":      "growth:\n  actions:\n    - name: grow_wings\n",
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, "bad.yaml", body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Run.ID = "run-x"
	cfg.Evolution.Crossover = "two_point"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Run.ID != "run-x" || again.Evolution.Crossover != "two_point" || len(again.Growth.Actions) != 3 {
		t.Fatalf("unexpected round trip %+v", again)
	}
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestTaskManagerFromConfig(t *testing.T) {
	cfg, err := Load(writeFile(t, "tasks.yaml", "genome:\n  inputs: 3\n  outputs: 3\ntasks:\n  - name: xor\n    weight: 1\n  - name: sequence\n    weight: 2\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := cfg.TaskManager(nil)
	if err != nil {
		t.Fatalf("task manager: %v", err)
	}
	if got := m.Statistics().TotalTasks; got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
	if cfg.TaskNames() != "xor+sequence" {
		t.Fatalf("unexpected names %q", cfg.TaskNames())
	}
}
