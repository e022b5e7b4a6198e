package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"brainzzz/internal/model"
)

// Summary condenses a run's best-fitness series.
type Summary struct {
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestEver    float64 `json:"best_ever"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	Improvement float64 `json:"improvement"`
	FinalMean   float64 `json:"final_mean"`
	FinalNodes  float64 `json:"final_mean_nodes"`
}

func BestSeries(generations []model.GenerationStats) []float64 {
	best := make([]float64, len(generations))
	for i, g := range generations {
		best[i] = g.BestFitness
	}
	return best
}

// RunningBest is the best fitness seen up to and including each generation.
func RunningBest(generations []model.GenerationStats) []float64 {
	out := BestSeries(generations)
	for i := 1; i < len(out); i++ {
		out[i] = max(out[i], out[i-1])
	}
	return out
}

func Summarize(generations []model.GenerationStats) Summary {
	if len(generations) == 0 {
		return Summary{}
	}
	best := BestSeries(generations)
	mean, std := stat.PopMeanStdDev(best, nil)
	if len(best) == 1 {
		std = 0
	}
	last := generations[len(generations)-1]
	return Summary{
		Generations: len(generations),
		InitialBest: best[0],
		FinalBest:   best[len(best)-1],
		BestEver:    floats.Max(best),
		BestMean:    mean,
		BestStd:     std,
		Improvement: best[len(best)-1] - best[0],
		FinalMean:   last.MeanFitness,
		FinalNodes:  last.MeanNodes,
	}
}
