// Package gridworld implements 2D multi-goal gridworld environments
package gridworld

import (
	"fmt"

	"github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/timestep"
	"github.com/samuelfneumann/inforeg/utils/matutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Actions available in a GridWorld. Up moves towards row 0, which is
// the top row of the grid, and Down towards the last row.
const (
	Left int = iota
	Right
	Up
	Down

	numActions
)

// GridWorld represents a multi-goal gridworld environment
//
// A gridworld is represented as a flattened matrix, but in this
// implementation only the matrix dimensions and current agent position
// are tracked. State i corresponds to cell (row, col) = (i / c, i % c).
// At the start of each episode a goal is sampled, and the episode ends
// once the agent enters any goal cell. Only the cell of the sampled
// goal is rewarded positively.
type GridWorld struct {
	*Goals
	goalStarter  environment.Starter
	stateStarter environment.Starter
	r, c         int
	position     int
	goal         int

	// Probability with which the agent's action is replaced by a
	// uniformly random action
	pRand float64
	rng   *rand.Rand

	currentStep timestep.TimeStep
}

// New creates a new gridworld with r rows and c columns and the task
// goals. The goal of each episode is sampled using goalDist, which may
// be nil for a uniform distribution over goals. Starting positions are
// sampled uniformly over cells which are not goals.
func New(r, c int, goals *Goals, goalDist []float64, pRand float64,
	seed uint64) (*GridWorld, error) {
	if r < 1 || c < 1 {
		return nil, fmt.Errorf("new: grid must have at least one row and "+
			"column, have (%d, %d)", r, c)
	}
	if goals.r != r || goals.c != c {
		return nil, fmt.Errorf("new: goals defined on (%d, %d) grid but "+
			"grid is (%d, %d)", goals.r, goals.c, r, c)
	}
	if pRand < 0 || pRand > 1 {
		return nil, fmt.Errorf("new: pRand must be in [0, 1], have %v", pRand)
	}

	if goalDist == nil {
		goalDist = make([]float64, goals.Len())
		for i := range goalDist {
			goalDist[i] = 1.0
		}
	}
	if len(goalDist) != goals.Len() {
		return nil, fmt.Errorf("new: goal distribution has %d entries but "+
			"there are %d goals", len(goalDist), goals.Len())
	}
	goalStarter, err := environment.NewCategoricalStarter(goalDist, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create goal starter: %v", err)
	}

	startWeights := make([]float64, r*c)
	for i := range startWeights {
		if !goals.IsGoal(i) {
			startWeights[i] = 1.0
		}
	}
	stateStarter, err := environment.NewCategoricalStarter(startWeights,
		seed+1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create state starter: %v", err)
	}

	g := &GridWorld{
		Goals:        goals,
		goalStarter:  goalStarter,
		stateStarter: stateStarter,
		r:            r,
		c:            c,
		pRand:        pRand,
		rng:          rand.New(rand.NewSource(seed + 2)),
	}
	return g, nil
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.r, g.c
}

// At checks the value at position (i, j) in the gridworld. A value of 1.0
// indicates that the agent is at position (i, j).
func (g *GridWorld) At(i, j int) float64 {
	if cToInd(j, i, g.c) == g.position {
		return 1.0
	}
	return 0.0
}

// Spec returns the environment specification
func (g *GridWorld) Spec() environment.Spec {
	return environment.Spec{
		States:  g.r * g.c,
		Goals:   g.Goals.Len(),
		Actions: numActions,
	}
}

// Reset resets the environment, sampling a new goal and starting
// position
func (g *GridWorld) Reset() (timestep.TimeStep, error) {
	g.goal = g.goalStarter.Start()
	g.position = g.stateStarter.Start()

	startStep := timestep.New(timestep.First, g.position, g.goal, 0, 0)
	g.currentStep = startStep
	return startStep, nil
}

// Step takes one step in the environment
func (g *GridWorld) Step(action int) (timestep.TimeStep, bool, error) {
	if g.currentStep.Last() {
		return g.currentStep, true, fmt.Errorf("step: episode has ended, " +
			"call Reset() first")
	}
	if action < 0 || action >= numActions {
		return g.currentStep, false, fmt.Errorf("step: action %d not in "+
			"[0, %d): %w", action, numActions, environment.ErrOutOfBounds)
	}

	if g.pRand > 0 && g.rng.Float64() < g.pRand {
		action = g.rng.Intn(numActions)
	}

	next, hitWall := g.move(g.position, action)
	g.position = next

	reward := g.GetReward(next, g.goal, hitWall)
	number := g.currentStep.Number + 1
	stepType := timestep.Mid
	if g.AtGoal(next) {
		stepType = timestep.Last
	}

	step := timestep.New(stepType, next, g.goal, reward, number)
	g.currentStep = step

	return step, stepType == timestep.Last, nil
}

// move returns the position reached by taking action from position, and
// whether the move was blocked by the edge of the grid
func (g *GridWorld) move(position, action int) (int, bool) {
	x, y := indToC(position, g.c)

	switch action {
	case Left:
		x--
	case Right:
		x++
	case Up:
		y--
	case Down:
		y++
	}

	if x < 0 || x >= g.c || y < 0 || y >= g.r {
		return position, true
	}
	return cToInd(x, y, g.c), false
}

// Coordinates returns the (x, y) coordinates of the agent
func (g *GridWorld) Coordinates() (int, int) {
	return indToC(g.position, g.c)
}

// CurrentGoal returns the goal of the current episode
func (g *GridWorld) CurrentGoal() int {
	return g.goal
}

func (g *GridWorld) String() string {
	str := "GridWorld | At: %v  |   Goal: %v  |  Bounds: (%d, %d)"
	x, y := g.Coordinates()
	position := matutils.Format(mat.NewDense(1, 2, []float64{float64(x),
		float64(y)}))

	return fmt.Sprintf(str, position, g.goal, g.r, g.c)
}

func cToInd(x, y, c int) int {
	return y*c + x
}

func indToC(i, c int) (int, int) {
	y := i / c
	x := i - (y * c)
	return x, y
}
