package initwfn

import (
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
)

// ZeroesConfig implements a configuration of a zero weight initializer
type ZeroesConfig struct{}

// NewZeroes returns a new zeroes weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of the weight initializer created using this
// config
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// Sample returns n zeroes
func (z ZeroesConfig) Sample(_ rand.Source, n int) []float64 {
	return fill(0, n)
}

// Validate always returns nil
func (z ZeroesConfig) Validate() error { return nil }

// OnesConfig implements a configuration of a weight initializer that
// initializes all weights to 1.
type OnesConfig struct{}

// NewOnes returns a new ones weight initializer
func NewOnes() (*InitWFn, error) {
	return newInitWFn(OnesConfig{})
}

// Type returns the type of the weight initializer created using this
// config
func (o OnesConfig) Type() Type {
	return Ones
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (o OnesConfig) Create() G.InitWFn {
	return G.Ones()
}

// Sample returns n ones
func (o OnesConfig) Sample(_ rand.Source, n int) []float64 {
	return fill(1, n)
}

// Validate always returns nil
func (o OnesConfig) Validate() error { return nil }

// ConstantConfig implements a configuration of a weight initializer
// that initializes all weights to a constant value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

// Type returns the type of the weight initializer created using this
// config
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create creates the Gorgonia weight initializer from this
// initializer config
func (c ConstantConfig) Create() G.InitWFn {
	return G.ValuesOf(c.Value)
}

// Sample returns n copies of Value
func (c ConstantConfig) Sample(_ rand.Source, n int) []float64 {
	return fill(c.Value, n)
}

// Validate always returns nil
func (c ConstantConfig) Validate() error { return nil }

func fill(v float64, n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = v
	}
	return weights
}
