package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter returns indices sampled from a categorical
// distribution over (0, 1, 2, ... N-1).
type CategoricalStarter struct {
	seed uint64
	rand distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter sampling index i
// with probability proportional to weights[i]
func NewCategoricalStarter(weights []float64, seed uint64) (CategoricalStarter,
	error) {
	if len(weights) == 0 {
		return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: " +
			"no weights given")
	}
	for i, w := range weights {
		if w < 0 {
			return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: "+
				"weight %d is negative (%v)", i, w)
		}
	}
	if floats.Sum(weights) <= 0 {
		return CategoricalStarter{}, fmt.Errorf("newCategoricalStarter: " +
			"weights must have positive mass")
	}

	source := rand.NewSource(seed)
	return CategoricalStarter{seed, distuv.NewCategorical(weights, source)}, nil
}

// NewUniformStarter returns a CategoricalStarter that samples uniformly
// from (0, 1, 2, ... n-1)
func NewUniformStarter(n int, seed uint64) (CategoricalStarter, error) {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0 / float64(n)
	}
	return NewCategoricalStarter(weights, seed)
}

// Start returns a sampled index
func (c CategoricalStarter) Start() int {
	return int(c.rand.Rand())
}
