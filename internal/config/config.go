// Package config loads run configuration from YAML or INI files layered over
// embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"brainzzz/internal/evo"
	"brainzzz/internal/growth"
	"brainzzz/internal/task"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Run       RunConfig     `yaml:"run"`
	Genome    evo.Layout    `yaml:"genome"`
	Growth    growth.Rules  `yaml:"growth"`
	Evolution evo.Config    `yaml:"evolution"`
	Tasks     []TaskConfig  `yaml:"tasks"`
	Storage   StorageConfig `yaml:"storage"`
	Log       LogConfig     `yaml:"log"`
}

// RunConfig controls the generational loop.
type RunConfig struct {
	ID          string  `yaml:"id" ini:"id"`
	Seed        int64   `yaml:"seed" ini:"seed"`
	Generations int     `yaml:"generations" ini:"generations"`
	FitnessGoal float64 `yaml:"fitness_goal" ini:"fitness_goal"` // <= 0 disables the early stop
	Workers     int     `yaml:"workers" ini:"workers"`
	// AdaptiveRates retunes mutation and crossover toward TargetDiversity
	// after every generation.
	AdaptiveRates   bool    `yaml:"adaptive_rates" ini:"adaptive_rates"`
	TargetDiversity float64 `yaml:"target_diversity" ini:"target_diversity"`
	OutputDir       string  `yaml:"output_dir" ini:"output_dir"`
}

type TaskConfig struct {
	Name           string  `yaml:"name" ini:"-"`
	Weight         float64 `yaml:"weight" ini:"weight"`
	SequenceLength int     `yaml:"sequence_length,omitempty" ini:"sequence_length"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" ini:"backend"`
	SQLitePath string `yaml:"sqlite_path" ini:"sqlite_path"`
}

type LogConfig struct {
	Level  string `yaml:"level" ini:"level"`
	Format string `yaml:"format" ini:"format"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load merges the file at path over the embedded defaults. Files ending in
// .ini are read as INI, everything else as YAML. An empty path yields the
// defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ini":
			err = loadINI(path, cfg)
		default:
			err = loadYAML(path, cfg)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	// only overwrites fields present in the file
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Run.Generations <= 0 {
		return fmt.Errorf("run generations must be > 0, got %d", c.Run.Generations)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("run workers must be >= 0, got %d", c.Run.Workers)
	}
	if c.Run.FitnessGoal > 1 {
		return fmt.Errorf("fitness goal must be <= 1, got %v", c.Run.FitnessGoal)
	}
	if c.Run.AdaptiveRates && c.Run.TargetDiversity <= 0 {
		return fmt.Errorf("target diversity must be > 0 with adaptive rates, got %v", c.Run.TargetDiversity)
	}
	if err := c.Genome.Validate(); err != nil {
		return fmt.Errorf("genome: %w", err)
	}
	if err := c.Growth.Validate(); err != nil {
		return fmt.Errorf("growth: %w", err)
	}
	if err := c.Evolution.Validate(); err != nil {
		return fmt.Errorf("evolution: %w", err)
	}
	if len(c.Tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}
	for _, tc := range c.Tasks {
		t, err := tc.Build()
		if err != nil {
			return err
		}
		if tc.Weight < 0 {
			return fmt.Errorf("task %s weight must be >= 0, got %v", tc.Name, tc.Weight)
		}
		info := t.Info()
		if c.Genome.Inputs < info.InputSize || c.Genome.Outputs < info.OutputSize {
			return fmt.Errorf("task %s needs %d inputs and %d outputs, genome has %d/%d",
				info.Name, info.InputSize, info.OutputSize, c.Genome.Inputs, c.Genome.Outputs)
		}
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	return nil
}

// Build creates the task described by tc.
func (tc TaskConfig) Build() (task.Task, error) {
	length := tc.SequenceLength
	if length == 0 {
		length = 3
	}
	return task.ByName(tc.Name, length)
}

// TaskManager registers every configured task.
func (c *Config) TaskManager(logger *slog.Logger) (*task.Manager, error) {
	m := task.NewManager(logger)
	for _, tc := range c.Tasks {
		t, err := tc.Build()
		if err != nil {
			return nil, err
		}
		m.AddTask(t, tc.Weight)
	}
	return m, nil
}

// TaskNames joins the configured task names with "+".
func (c *Config) TaskNames() string {
	names := make([]string, len(c.Tasks))
	for i, tc := range c.Tasks {
		names[i] = strings.ToLower(tc.Name)
	}
	return strings.Join(names, "+")
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unsupported log level: %s", l.Level)
	}
	return level, nil
}

// Logger builds a text or JSON slog logger writing to w.
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
