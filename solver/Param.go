package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is a learnable parameter tensor paired with a gradient tensor
// of the same shape. Param implements the G.ValueGrad interface so that
// Gorgonia Solvers can update parameters whose gradients are computed
// outside of a computational graph.
type Param struct {
	name  string
	value *tensor.Dense
	grad  *tensor.Dense
}

// NewParam returns a new Param wrapping value with a zeroed gradient
func NewParam(name string, value *tensor.Dense) (*Param, error) {
	if value.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("newParam: parameter %v must have dtype "+
			"float64, have %v", name, value.Dtype())
	}

	grad := tensor.New(
		tensor.WithShape(value.Shape().Clone()...),
		tensor.Of(tensor.Float64),
	)
	return &Param{name: name, value: value, grad: grad}, nil
}

// Name returns the name of the parameter
func (p *Param) Name() string {
	return p.name
}

// Value returns the parameter values
func (p *Param) Value() G.Value {
	return p.value
}

// Grad returns the gradient of the parameter
func (p *Param) Grad() (G.Value, error) {
	return p.grad, nil
}

// Data returns the backing slice of the parameter values
func (p *Param) Data() []float64 {
	return p.value.Data().([]float64)
}

// GradData returns the backing slice of the parameter gradient
func (p *Param) GradData() []float64 {
	return p.grad.Data().([]float64)
}

// ZeroGrad sets the gradient to zero
func (p *Param) ZeroGrad() {
	p.grad.Zero()
}
