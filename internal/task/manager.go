package task

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SamplesPerTask is the count passed to GenerateTestData by EvaluateBrain.
const SamplesPerTask = 10

// ByName builds a registered task. sequenceLength is only used by the
// sequence task.
func ByName(name string, sequenceLength int) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xor":
		return XORTask{}, nil
	case "sequence":
		return NewSequenceTask(sequenceLength)
	default:
		return nil, fmt.Errorf("unsupported task: %s", name)
	}
}

type entry struct {
	task   Task
	weight float64
}

// Manager holds weighted tasks. It is safe for concurrent evaluation once
// its tasks are registered.
type Manager struct {
	mu     sync.RWMutex
	tasks  []entry
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// AddTask registers t with weight, replacing any task with the same name.
func (m *Manager) AddTask(t Task, weight float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.tasks {
		if e.task.Name() == t.Name() {
			m.logger.Warn("task already registered, replacing", "task", t.Name())
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
	m.tasks = append(m.tasks, entry{task: t, weight: weight})
	m.logger.Info("task added", "task", t.Name(), "weight", weight)
}

func (m *Manager) RemoveTask(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.tasks {
		if e.task.Name() == name {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			m.logger.Info("task removed", "task", name)
			return true
		}
	}
	return false
}

// Tasks returns the registered tasks in registration order.
func (m *Manager) Tasks() []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, len(m.tasks))
	for i, e := range m.tasks {
		out[i] = e.task
	}
	return out
}

// EvaluateBrain scores solver on every task in registration order.
func (m *Manager) EvaluateBrain(solver Solver) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scores := make([]float64, len(m.tasks))
	for i, e := range m.tasks {
		scores[i] = e.task.EvaluateSolution(solver, e.task.GenerateTestData(SamplesPerTask))
	}
	return scores
}

// OverallScore is the weighted mean of scores, aligned with registration
// order. A zero total weight falls back to the plain mean.
func (m *Manager) OverallScore(scores []float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := min(len(scores), len(m.tasks))
	if n == 0 {
		return 0
	}
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = m.tasks[i].weight
	}
	if floats.Sum(weights) == 0 {
		return stat.Mean(scores[:n], nil)
	}
	return stat.Mean(scores[:n], weights)
}

type TaskStats struct {
	Info   Info    `json:"info"`
	Weight float64 `json:"weight"`
}

type Statistics struct {
	TotalTasks        int         `json:"total_tasks"`
	AverageDifficulty float64     `json:"average_difficulty"`
	Tasks             []TaskStats `json:"tasks"`
}

func (m *Manager) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Statistics{TotalTasks: len(m.tasks)}
	if len(m.tasks) == 0 {
		return out
	}
	total := 0.0
	for _, e := range m.tasks {
		info := e.task.Info()
		total += info.Difficulty
		out.Tasks = append(out.Tasks, TaskStats{Info: info, Weight: e.weight})
	}
	out.AverageDifficulty = total / float64(len(m.tasks))
	return out
}

// Performance summarizes one task's scores across a population.
type Performance struct {
	Task  string  `json:"task"`
	Mean  float64 `json:"mean"`
	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
	Std   float64 `json:"std"`
}

// PopulationPerformance summarizes per-task scores, one row per brain as
// returned by EvaluateBrain.
func (m *Manager) PopulationPerformance(rows [][]float64) []Performance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(rows) == 0 {
		return nil
	}
	out := make([]Performance, 0, len(m.tasks))
	for i, e := range m.tasks {
		column := make([]float64, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				column = append(column, row[i])
			}
		}
		if len(column) == 0 {
			continue
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if len(column) == 1 {
			std = 0
		}
		out = append(out, Performance{
			Task:  e.task.Name(),
			Mean:  mean,
			Best:  floats.Max(column),
			Worst: floats.Min(column),
			Std:   std,
		})
	}
	return out
}

// RecommendedTasks orders tasks by score*(1-score)*difficulty, highest
// first, favoring tasks the solver handles only partly.
func (m *Manager) RecommendedTasks(scores []float64) []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type ranked struct {
		task  Task
		value float64
	}
	list := make([]ranked, 0, len(m.tasks))
	for i, e := range m.tasks {
		s := 0.0
		if i < len(scores) {
			s = scores[i]
		}
		list = append(list, ranked{task: e.task, value: s * (1 - s) * e.task.Info().Difficulty})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].value > list[j].value })
	out := make([]Task, len(list))
	for i, r := range list {
		out[i] = r.task
	}
	return out
}
