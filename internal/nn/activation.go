package nn

import (
	"math"

	"brainzzz/internal/genotype"
)

const sigmoidClip = 500.0

// Apply evaluates the transfer function a at x. Unknown values fall back to
// sigmoid.
func Apply(a genotype.Activation, x float64) float64 {
	switch a {
	case genotype.ActivationTanh:
		return math.Tanh(x)
	case genotype.ActivationReLU:
		return math.Max(0, x)
	case genotype.ActivationLinear:
		return x
	default:
		return Sigmoid(x)
	}
}

// Sigmoid is the logistic function with its argument clipped to [-500, 500].
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-Sat(x, sigmoidClip, -sigmoidClip)))
}

// Sat clamps value to [min, max].
func Sat(value, max, min float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}
