// Package agent defines an agent interface for tabular goal-conditioned
// agents
package agent

import (
	"errors"

	"github.com/samuelfneumann/inforeg/environment"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMissingCounts is returned when the state-information term is
	// enabled but no state-goal visitation counts were given
	ErrMissingCounts = errors.New("state-goal visitation counts required")

	// ErrCountShape is returned when the state-goal visitation counts do
	// not have shape [states, goals]
	ErrCountShape = errors.New("state-goal visitation counts have wrong " +
		"shape")

	// ErrNotTrainable is returned when updating an agent whose parameters
	// are frozen
	ErrNotTrainable = errors.New("agent is not trainable")

	// ErrNoValue is returned when asking an agent without a value
	// function for a value
	ErrNoValue = errors.New("agent has no value function")
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which gives a distribution over actions in each state for each goal.
// The Policy and Learner share the same weights so that any changes the
// Learner makes are reflected in the Policy.
type Agent interface {
	Learner
	Policy
}

// Policy represents a goal-conditioned policy over a finite action space
type Policy interface {
	// ActionProbabilities returns the distribution over actions in the
	// state when pursuing goal. The returned slice sums to 1.
	ActionProbabilities(state, goal int) ([]float64, error)

	// ActionInformation returns the information in bits that the policy
	// at state carries about goal. This is the KL divergence between the
	// goal-conditioned policy and the goal-averaged policy at state.
	ActionInformation(state, goal int) (float64, error)

	// Spec returns the sizes of the state, goal, and action spaces
	Spec() environment.Spec
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Value returns the estimated return from state when pursuing goal
	Value(state, goal int) (float64, error)

	// Update performs a single update to the learner, returning the loss
	// before the update
	Update(u Update) (float64, error)

	// Trainable returns whether Update changes the weights
	Trainable() bool

	// Finite returns whether all weights are finite
	Finite() bool
}

// Update describes a single learning update from one time step of an
// episode
type Update struct {
	State  int
	Goal   int
	Action int

	// Return is the discounted return following the action
	Return float64

	LearningRate    float64
	EntropyScale    float64
	ValueScale      float64
	ActionInfoScale float64
	StateInfoScale  float64

	// StateGoalCounts are the state-goal visitation counts of shape
	// [states, goals]. They are only read if the state-information term
	// is enabled.
	StateGoalCounts mat.Matrix

	// NextState is the state the action led to. It is only read if the
	// state-information term is enabled.
	NextState int
}
