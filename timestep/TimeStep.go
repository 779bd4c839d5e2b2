// Package timestep implements timesteps of the agent-environment interaction
package timestep

import "fmt"

// StepType denotes the type of step that a TimeStep can be, either the first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in a goal-conditioned
// environment. The Goal is fixed for the whole episode.
type TimeStep struct {
	StepType
	State  int
	Goal   int
	Reward float64
	Number int

	// ActionInfo is the action-information (in bits) of the policy at
	// the state from which the action leading to this TimeStep was
	// taken. It is filled in by the trainer, environments leave it 0.
	ActionInfo float64
}

// New returns a new TimeStep
func New(t StepType, state, goal int, r float64, n int) TimeStep {
	return TimeStep{StepType: t, State: state, Goal: goal, Reward: r, Number: n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  State: %d  |  Goal: %d  |  " +
		"Reward:  %.2f  |  Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.State, t.Goal, t.Reward, t.Number)
}

// Transition is a single (state, action, reward, next state) tuple
// recorded during an episode
type Transition struct {
	State     int
	Action    int
	Reward    float64
	NextState int
}
