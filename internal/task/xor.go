package task

// XORTask scores a two-input, one-output solver on the XOR truth table.
type XORTask struct{}

var xorCases = []Case{
	{Input: []float64{0, 0}, Expected: []float64{0}},
	{Input: []float64{0, 1}, Expected: []float64{1}},
	{Input: []float64{1, 0}, Expected: []float64{1}},
	{Input: []float64{1, 1}, Expected: []float64{0}},
}

func (XORTask) Name() string { return "xor" }

func (XORTask) Info() Info {
	return Info{
		Name:        "xor",
		Type:        "classification",
		Description: "classify two binary inputs by exclusive or",
		Difficulty:  0.3,
		InputSize:   2,
		OutputSize:  1,
		TestCases:   len(xorCases),
	}
}

func (XORTask) GenerateTestData(int) []Case { return copyCases(xorCases) }

func (XORTask) EvaluateSolution(solver Solver, cases []Case) float64 {
	return Score(solver, cases, 1)
}
