package experiment

import (
	"fmt"

	"github.com/samuelfneumann/inforeg/environment"
	ts "github.com/samuelfneumann/inforeg/timestep"
	"gonum.org/v1/gonum/mat"
)

// StateGoalCounter provides the state-goal visitation counts used by
// the state-information term of an agent's loss
type StateGoalCounter interface {
	// Counts returns the counts, of shape [states, goals]. The returned
	// matrix must not be modified.
	Counts() mat.Matrix

	// Observe records the states visited in an episode pursuing goal
	Observe(goal int, episode []ts.Transition)
}

// VisitCounts counts the visits to each state when pursuing each goal.
// Every count starts at a positive prior so that no state-goal pair
// has zero probability.
type VisitCounts struct {
	spec   environment.Spec
	counts *mat.Dense
}

// NewVisitCounts returns a new VisitCounts for the state and goal
// spaces of spec, with every count starting at prior
func NewVisitCounts(spec environment.Spec, prior float64) (*VisitCounts,
	error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("newVisitCounts: %v", err)
	}
	if prior <= 0 {
		return nil, fmt.Errorf("newVisitCounts: prior must be positive, "+
			"have %v", prior)
	}

	data := make([]float64, spec.States*spec.Goals)
	for i := range data {
		data[i] = prior
	}

	return &VisitCounts{
		spec:   spec,
		counts: mat.NewDense(spec.States, spec.Goals, data),
	}, nil
}

// Counts returns the visitation counts
func (v *VisitCounts) Counts() mat.Matrix {
	return v.counts
}

// Observe counts every state of the episode, including the state the
// episode ended in. States or goals outside of their spaces are
// ignored.
func (v *VisitCounts) Observe(goal int, episode []ts.Transition) {
	if v.spec.CheckGoal(goal) != nil || len(episode) == 0 {
		return
	}

	for _, t := range episode {
		v.add(t.State, goal)
	}
	v.add(episode[len(episode)-1].NextState, goal)
}

func (v *VisitCounts) add(state, goal int) {
	if v.spec.CheckState(state) != nil {
		return
	}
	v.counts.Set(state, goal, v.counts.At(state, goal)+1)
}
