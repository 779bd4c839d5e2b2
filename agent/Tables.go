package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// ActionProbabilityTable returns the action probabilities of p in every
// state for every goal as a tensor of shape [states, goals, actions]
func ActionProbabilityTable(p Policy) (*tensor.Dense, error) {
	spec := p.Spec()

	table := tensor.New(
		tensor.WithShape(spec.States, spec.Goals, spec.Actions),
		tensor.Of(tensor.Float64),
	)
	data := table.Data().([]float64)

	for s := 0; s < spec.States; s++ {
		for g := 0; g < spec.Goals; g++ {
			probs, err := p.ActionProbabilities(s, g)
			if err != nil {
				return nil, fmt.Errorf("actionProbabilityTable: %w", err)
			}
			offset := (s*spec.Goals + g) * spec.Actions
			copy(data[offset:offset+spec.Actions], probs)
		}
	}
	return table, nil
}

// ValueTable returns the values of a in every state for every goal as
// a matrix of shape [states, goals]
func ValueTable(a Agent) (*mat.Dense, error) {
	return stateGoalTable(a, a.Value)
}

// ActionInfoTable returns the action information of p in every state
// for every goal as a matrix of shape [states, goals]
func ActionInfoTable(p Policy) (*mat.Dense, error) {
	return stateGoalTable(p, p.ActionInformation)
}

func stateGoalTable(p Policy, f func(int, int) (float64, error)) (*mat.Dense,
	error) {
	spec := p.Spec()
	table := mat.NewDense(spec.States, spec.Goals, nil)

	for s := 0; s < spec.States; s++ {
		for g := 0; g < spec.Goals; g++ {
			v, err := f(s, g)
			if err != nil {
				return nil, fmt.Errorf("stateGoalTable: %w", err)
			}
			table.Set(s, g, v)
		}
	}
	return table, nil
}
