// Package task defines the evaluator contract brains are scored against and
// ships the XOR and sequence-memory tasks.
package task

import (
	"fmt"
)

// Case is one input vector and the output expected for it.
type Case struct {
	Input    []float64
	Expected []float64
}

// Solver is anything that maps an input vector to an output vector. A
// *brain.Brain is a Solver; each call may advance its internal state.
type Solver interface {
	ProcessInput(input []float64) ([]float64, error)
}

// Info describes a task for reports and manager statistics.
type Info struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Difficulty     float64 `json:"difficulty"`
	InputSize      int     `json:"input_size"`
	OutputSize     int     `json:"output_size"`
	TestCases      int     `json:"test_cases"`
	RequiresMemory bool    `json:"requires_memory"`
}

type Task interface {
	Name() string
	Info() Info
	// GenerateTestData returns a finite, restartable set of cases. Tasks
	// with fixed data ignore count.
	GenerateTestData(count int) []Case
	// EvaluateSolution scores solver on cases in [0,1].
	EvaluateSolution(solver Solver, cases []Case) float64
}

// Score feeds each case through solver and converts the mean per-case
// squared error over the first width outputs into max(0, 1-mean). A case
// whose output is shorter than width, or whose evaluation fails or panics,
// counts as error 1.
func Score(solver Solver, cases []Case, width int) float64 {
	if len(cases) == 0 || width <= 0 {
		return 0
	}
	total := 0.0
	for _, c := range cases {
		e, err := caseError(solver, c, width)
		if err != nil {
			total += 1
			continue
		}
		total += e
	}
	return max(0, 1-total/float64(len(cases)))
}

func caseError(solver Solver, c Case, width int) (e float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("solver panicked: %v", r)
		}
	}()
	if len(c.Expected) < width {
		return 0, fmt.Errorf("case expects %d values, task width is %d", len(c.Expected), width)
	}
	out, err := solver.ProcessInput(append([]float64(nil), c.Input...))
	if err != nil {
		return 0, err
	}
	if len(out) < width {
		return 0, fmt.Errorf("solver returned %d outputs, need %d", len(out), width)
	}
	sum := 0.0
	for i := 0; i < width; i++ {
		d := out[i] - c.Expected[i]
		sum += d * d
	}
	return sum / float64(width), nil
}

func copyCases(cases []Case) []Case {
	out := make([]Case, len(cases))
	for i, c := range cases {
		out[i] = Case{
			Input:    append([]float64(nil), c.Input...),
			Expected: append([]float64(nil), c.Expected...),
		}
	}
	return out
}
