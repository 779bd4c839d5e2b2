// Package environment outlines the interfaces and structs needed to
// implement discrete, goal-conditioned environments
package environment

import (
	"github.com/samuelfneumann/inforeg/timestep"
)

// Starter implements a distribution over indices and samples from it.
// Environments use Starters to pick starting states and goals.
type Starter interface {
	Start() int
}

// Ender determines whether an episode should be cut off at some
// timestep
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment with finite state,
// goal, and action spaces. The goal of an episode is chosen on Reset()
// and stays fixed until the next Reset().
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep, holding the starting state and the goal
	Reset() (timestep.TimeStep, error)

	// Step takes an action in the environment, returning the next
	// TimeStep and whether the episode has ended
	Step(action int) (timestep.TimeStep, bool, error)

	// Spec returns the sizes of the state, goal, and action spaces
	Spec() Spec
}
