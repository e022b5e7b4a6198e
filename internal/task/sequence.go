package task

import (
	"fmt"
	"math/rand"
)

const sequenceSeed = 42

var sequencePatterns = [][]float64{
	{0, 1, 0},
	{1, 0, 1},
	{0, 0, 1},
	{1, 1, 0},
}

// SequenceTask asks a solver to echo a binary pattern of a fixed length.
// Its data is four fixed patterns plus six drawn from a seeded source, so
// every instance of the same length sees identical cases.
type SequenceTask struct {
	length int
	cases  []Case
}

func NewSequenceTask(length int) (*SequenceTask, error) {
	if length <= 0 {
		return nil, fmt.Errorf("sequence length must be > 0, got %d", length)
	}
	t := &SequenceTask{length: length}
	for _, p := range sequencePatterns {
		seq := make([]float64, length)
		for i := range seq {
			seq[i] = p[i%len(p)]
		}
		t.cases = append(t.cases, echoCase(seq))
	}
	rng := rand.New(rand.NewSource(sequenceSeed))
	for i := 0; i < 6; i++ {
		seq := make([]float64, length)
		for j := range seq {
			seq[j] = float64(rng.Intn(2))
		}
		t.cases = append(t.cases, echoCase(seq))
	}
	return t, nil
}

func echoCase(seq []float64) Case {
	return Case{Input: seq, Expected: append([]float64(nil), seq...)}
}

func (t *SequenceTask) Name() string { return "sequence" }

func (t *SequenceTask) Length() int { return t.length }

func (t *SequenceTask) Info() Info {
	return Info{
		Name:           "sequence",
		Type:           "sequence_memory",
		Description:    fmt.Sprintf("reproduce a binary pattern of length %d", t.length),
		Difficulty:     0.6,
		InputSize:      t.length,
		OutputSize:     t.length,
		TestCases:      len(t.cases),
		RequiresMemory: true,
	}
}

func (t *SequenceTask) GenerateTestData(int) []Case { return copyCases(t.cases) }

func (t *SequenceTask) EvaluateSolution(solver Solver, cases []Case) float64 {
	return Score(solver, cases, t.length)
}
