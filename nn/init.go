package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer fills data, the row-major values of a parameter.
type Initializer func(data []float64, fanIn, fanOut int)

// truncation is the number of standard deviations TruncatedNormal keeps.
const truncation = 2.0

// KaimingNormal draws from N(0, 2/fanIn), the He initialization for ReLU
// networks.
func KaimingNormal(r *rand.Rand) Initializer {
	return func(data []float64, fanIn, _ int) {
		dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2.0 / float64(fanIn)), Src: r}
		for i := range data {
			data[i] = dist.Rand()
		}
	}
}

// XavierUniform draws from U(-a, a) with a = sqrt(6 / (fanIn + fanOut)).
func XavierUniform(r *rand.Rand) Initializer {
	return func(data []float64, fanIn, fanOut int) {
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: r}
		for i := range data {
			data[i] = dist.Rand()
		}
	}
}

// UniformFanIn draws from U(-1/sqrt(fanIn), 1/sqrt(fanIn)), the usual
// default for fully connected layers.
func UniformFanIn(r *rand.Rand) Initializer {
	return func(data []float64, fanIn, _ int) {
		bound := 1 / math.Sqrt(float64(fanIn))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: r}
		for i := range data {
			data[i] = dist.Rand()
		}
	}
}

// TruncatedNormal draws from N(mean, std²) and redraws every value outside
// mean ± 2·std.
func TruncatedNormal(r *rand.Rand, mean, std float64) Initializer {
	return func(data []float64, _, _ int) {
		dist := distuv.Normal{Mu: mean, Sigma: std, Src: r}
		lo, hi := mean-truncation*std, mean+truncation*std
		for i := range data {
			v := dist.Rand()
			for v < lo || v > hi {
				v = dist.Rand()
			}
			data[i] = v
		}
	}
}

// Constant sets every value to v.
func Constant(v float64) Initializer {
	return func(data []float64, _, _ int) {
		for i := range data {
			data[i] = v
		}
	}
}
