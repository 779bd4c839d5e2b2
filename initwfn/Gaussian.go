package initwfn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
)

// GaussianConfig implements a configuration of a weight initializer that
// draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	config := GaussianConfig{
		Mean:   mean,
		StdDev: stddev,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GaussianConfig) Create() G.InitWFn {
	return G.Gaussian(g.Mean, g.StdDev)
}

// Sample draws n weights from the gaussian using src
func (g GaussianConfig) Sample(src rand.Source, n int) []float64 {
	dist := distuv.Normal{Mu: g.Mean, Sigma: g.StdDev, Src: src}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	return weights
}

// Validate returns an error if the standard deviation is negative
func (g GaussianConfig) Validate() error {
	if g.StdDev < 0 {
		return errNegative("standard deviation", g.StdDev)
	}
	return nil
}
