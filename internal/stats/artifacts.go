// Package stats writes and reads per-run artifact directories and the run
// index kept next to them.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"brainzzz/internal/config"
	"brainzzz/internal/model"
)

const (
	runIndexFile        = "run_index.json"
	configFile          = "config.yaml"
	runFile             = "run.json"
	generationStatsFile = "generation_stats.csv"
	championFile        = "champion.json"
)

type RunArtifacts struct {
	Run         model.RunRecord
	Config      *config.Config
	Generations []model.GenerationStats
	Champion    *model.BrainRecord
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Task             string  `json:"task"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	ChampionID       string  `json:"champion_id,omitempty"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes the run directory under baseDir and returns its
// path. Champion and Config are optional.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Run.ID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if artifacts.Config != nil {
		if err := artifacts.Config.WriteYAML(filepath.Join(runDir, configFile)); err != nil {
			return "", err
		}
	}
	if err := WriteGenerationStats(runDir, artifacts.Generations); err != nil {
		return "", err
	}
	if artifacts.Champion != nil {
		if err := writeJSON(filepath.Join(runDir, championFile), artifacts.Champion); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

// WriteGenerationStats writes generation_stats.csv with a header row.
func WriteGenerationStats(runDir string, generations []model.GenerationStats) error {
	file, err := os.Create(filepath.Join(runDir, generationStatsFile))
	if err != nil {
		return fmt.Errorf("creating %s: %w", generationStatsFile, err)
	}
	defer file.Close()

	if generations == nil {
		generations = []model.GenerationStats{}
	}
	if err := gocsv.Marshal(generations, file); err != nil {
		return fmt.Errorf("writing %s: %w", generationStatsFile, err)
	}
	return nil
}

func ReadGenerationStats(baseDir, runID string) ([]model.GenerationStats, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, generationStatsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	var generations []model.GenerationStats
	if err := gocsv.Unmarshal(file, &generations); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []model.GenerationStats{}, true, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", generationStatsFile, err)
	}
	return generations, true, nil
}

func ReadRun(baseDir, runID string) (model.RunRecord, bool, error) {
	var run model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, runFile), &run)
	return run, ok, err
}

func ReadChampion(baseDir, runID string) (model.BrainRecord, bool, error) {
	var champion model.BrainRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, championFile), &champion)
	return champion, ok, err
}

// ReadRunConfig loads the config.yaml written for runID.
func ReadRunConfig(baseDir, runID string) (*config.Config, bool, error) {
	path := filepath.Join(baseDir, runID, configFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// AppendRunIndex adds entry to run_index.json, replacing an entry with the
// same run id in place. The file keeps append order.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}
	return entries, nil
}

// ListRunIndex returns index entries newest first by parsed creation time.
// Equal timestamps keep later-appended entries first; unparseable timestamps
// sort as oldest.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry   RunIndexEntry
		created time.Time
		idx     int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		created, _ := time.Parse(time.RFC3339Nano, entries[i].CreatedAtUTC)
		indexed[i] = indexedEntry{entry: entries[i], created: created, idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].created.Equal(indexed[j].created) {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].created.After(indexed[j].created)
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
