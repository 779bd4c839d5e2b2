package reinforce

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/utils/matutils"
	"gonum.org/v1/gonum/floats"
)

// probTolerance is the tolerance allowed for each distribution of a
// Frozen policy to sum to 1
const probTolerance = 1e-6

// Frozen is a fixed tabular goal-conditioned policy. A Frozen policy has
// no value function and cannot be trained.
type Frozen struct {
	spec  environment.Spec
	probs []float64 // [goals, states, actions]
}

// NewFrozen returns a new Frozen policy. The action probabilities in
// probs are indexed by (goal, state, action) in row-major order, and
// each (goal, state) distribution must sum to 1.
func NewFrozen(spec environment.Spec, probs []float64) (*Frozen, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("newFrozen: %v", err)
	}

	n := spec.Goals * spec.States * spec.Actions
	if len(probs) != n {
		return nil, fmt.Errorf("newFrozen: expected %d probabilities, got %d",
			n, len(probs))
	}
	if !matutils.AllFinite(probs) {
		return nil, fmt.Errorf("newFrozen: probabilities must be finite")
	}

	for start := 0; start < n; start += spec.Actions {
		dist := probs[start : start+spec.Actions]
		if floats.Min(dist) < 0 {
			return nil, fmt.Errorf("newFrozen: negative probability in "+
				"distribution %v", dist)
		}
		if sum := floats.Sum(dist); math.Abs(sum-1) > probTolerance {
			return nil, fmt.Errorf("newFrozen: distribution %v sums to %v",
				dist, sum)
		}
	}

	p := make([]float64, n)
	copy(p, probs)
	return &Frozen{spec: spec, probs: p}, nil
}

// Freeze returns a Frozen policy with the current action probabilities
// of e
func Freeze(e *Estimator) (*Frozen, error) {
	spec := e.Spec()
	probs := make([]float64, 0, spec.Goals*spec.States*spec.Actions)

	for g := 0; g < spec.Goals; g++ {
		for s := 0; s < spec.States; s++ {
			probs = append(probs, probabilities(e.logProbs(s, g))...)
		}
	}
	frozen, err := NewFrozen(spec, probs)
	if err != nil {
		return nil, fmt.Errorf("freeze: %v", err)
	}
	return frozen, nil
}

// Spec returns the sizes of the state, goal, and action spaces
func (f *Frozen) Spec() environment.Spec {
	return f.spec
}

// ActionProbabilities returns the stored distribution over actions at
// (state, goal)
func (f *Frozen) ActionProbabilities(state, goal int) ([]float64, error) {
	if err := f.spec.CheckStateGoal(state, goal); err != nil {
		return nil, fmt.Errorf("actionProbabilities: %w", err)
	}

	start := (goal*f.spec.States + state) * f.spec.Actions
	probs := make([]float64, f.spec.Actions)
	copy(probs, f.probs[start:start+f.spec.Actions])
	return probs, nil
}

// ActionInformation returns the KL divergence in bits between the
// policy at (state, goal) and the goal-averaged policy at state
func (f *Frozen) ActionInformation(state, goal int) (float64, error) {
	if err := f.spec.CheckStateGoal(state, goal); err != nil {
		return 0, fmt.Errorf("actionInformation: %w", err)
	}

	goalProbs := make([][]float64, f.spec.Goals)
	for g := range goalProbs {
		goalProbs[g], _ = f.ActionProbabilities(state, g)
	}
	return actionInformation(goalProbs, goal), nil
}

// Value always returns agent.ErrNoValue
func (f *Frozen) Value(state, goal int) (float64, error) {
	return 0, fmt.Errorf("value: %w", agent.ErrNoValue)
}

// Update always returns agent.ErrNotTrainable and does no work
func (f *Frozen) Update(agent.Update) (float64, error) {
	return 0, fmt.Errorf("update: %w", agent.ErrNotTrainable)
}

// Trainable returns false
func (f *Frozen) Trainable() bool {
	return false
}

// Finite returns true, Frozen policies are validated on creation
func (f *Frozen) Finite() bool {
	return true
}
