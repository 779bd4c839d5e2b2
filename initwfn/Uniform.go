package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// UniformConfig implements a configuration of a weight initializer that
// draws weights from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}

// Sample draws n weights uniformly from [Low, High) using src
func (u UniformConfig) Sample(src rand.Source, n int) []float64 {
	dist := distuv.Uniform{Min: u.Low, Max: u.High, Src: src}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	return weights
}

// Validate returns an error if the bounds are reversed
func (u UniformConfig) Validate() error {
	if u.Low > u.High {
		return fmt.Errorf("validate: low %v > high %v", u.Low, u.High)
	}
	return nil
}
