package environment

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned whenever a state, goal, or action index
// lies outside of its declared space
var ErrOutOfBounds = errors.New("index out of bounds")

// Spec implements an environment specification, which tells the size of
// the finite state, goal, and action spaces of an environment
type Spec struct {
	States  int
	Goals   int
	Actions int
}

// NewSpec constructs a new environment specification
func NewSpec(states, goals, actions int) (Spec, error) {
	s := Spec{States: states, Goals: goals, Actions: actions}
	return s, s.Validate()
}

// Validate returns an error if any of the spaces is empty
func (s Spec) Validate() error {
	if s.States < 1 || s.Goals < 1 || s.Actions < 1 {
		return fmt.Errorf("validate: all spaces must be non-empty, have "+
			"(states, goals, actions) = (%d, %d, %d)", s.States, s.Goals,
			s.Actions)
	}
	return nil
}

// CheckState returns an error wrapping ErrOutOfBounds if state is not in
// the state space
func (s Spec) CheckState(state int) error {
	if state < 0 || state >= s.States {
		return fmt.Errorf("state %d not in [0, %d): %w", state, s.States,
			ErrOutOfBounds)
	}
	return nil
}

// CheckGoal returns an error wrapping ErrOutOfBounds if goal is not in
// the goal space
func (s Spec) CheckGoal(goal int) error {
	if goal < 0 || goal >= s.Goals {
		return fmt.Errorf("goal %d not in [0, %d): %w", goal, s.Goals,
			ErrOutOfBounds)
	}
	return nil
}

// CheckAction returns an error wrapping ErrOutOfBounds if action is not
// in the action space
func (s Spec) CheckAction(action int) error {
	if action < 0 || action >= s.Actions {
		return fmt.Errorf("action %d not in [0, %d): %w", action, s.Actions,
			ErrOutOfBounds)
	}
	return nil
}

// CheckStateGoal checks both a state and a goal
func (s Spec) CheckStateGoal(state, goal int) error {
	if err := s.CheckState(state); err != nil {
		return err
	}
	return s.CheckGoal(goal)
}

func (s Spec) String() string {
	return fmt.Sprintf("Spec | States: %d  |  Goals: %d  |  Actions: %d",
		s.States, s.Goals, s.Actions)
}
