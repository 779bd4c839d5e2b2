package gridworld

import (
	"fmt"

	"github.com/samuelfneumann/inforeg/utils/matutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Goals represents the task of reaching one of several goal cells in a
// GridWorld. Each episode has exactly one correct goal, reaching any
// other goal is penalized.
type Goals struct {
	locations []int // state index of each goal
	r, c      int   // total rows and columns in environment

	correctReward   float64
	incorrectReward float64
	timeStepReward  float64
	wallReward      float64
}

// NewGoals creates and returns a new multi-goal task, given that the
// gridworld has r rows and c columns. Goal i is located at state index
// locations[i].
func NewGoals(locations []int, r, c int, correct, incorrect, step,
	wall float64) (*Goals, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("newGoals: at least one goal is required")
	}

	seen := make(map[int]bool, len(locations))
	for i, loc := range locations {
		// Ensure that the goal is within the proper bounds
		if loc < 0 || loc >= r*c {
			return nil, fmt.Errorf("newGoals: goal %d at %d outside of "+
				"grid with %d cells", i, loc, r*c)
		}
		if seen[loc] {
			return nil, fmt.Errorf("newGoals: goal %d duplicates location %d",
				i, loc)
		}
		seen[loc] = true
	}
	if len(locations) == r*c {
		return nil, fmt.Errorf("newGoals: no free cell to start in")
	}

	locs := make([]int, len(locations))
	copy(locs, locations)
	return &Goals{locs, r, c, correct, incorrect, step, wall}, nil
}

// GetReward returns the reward for entering state next while pursuing
// goal. If hitWall is true, the agent bumped into the edge of the grid.
func (g *Goals) GetReward(next, goal int, hitWall bool) float64 {
	if next == g.locations[goal] {
		return g.correctReward
	}
	if g.IsGoal(next) {
		return g.incorrectReward
	}
	if hitWall {
		return g.wallReward
	}
	return g.timeStepReward
}

// AtGoal returns whether state is any goal state, in which case the
// episode is over
func (g *Goals) AtGoal(state int) bool {
	return g.IsGoal(state)
}

// IsGoal returns whether state is the location of some goal
func (g *Goals) IsGoal(state int) bool {
	for _, loc := range g.locations {
		if loc == state {
			return true
		}
	}
	return false
}

// Location returns the state index of goal i
func (g *Goals) Location(i int) int {
	return g.locations[i]
}

// Locations returns the state index of every goal
func (g *Goals) Locations() []int {
	locs := make([]int, len(g.locations))
	copy(locs, g.locations)
	return locs
}

// Len returns the number of goals
func (g *Goals) Len() int {
	return len(g.locations)
}

// String returns the goal coordinates as a string
func (g *Goals) String() string {
	coords := make([]float64, 0, 2*len(g.locations))
	for _, loc := range g.locations {
		x, y := indToC(loc, g.c)
		coords = append(coords, float64(x), float64(y))
	}
	return matutils.Format(mat.NewDense(len(g.locations), 2, coords))
}

// Min returns the minimum reward attainable in the Task
func (g *Goals) Min() float64 {
	rewards := []float64{g.timeStepReward, g.correctReward,
		g.incorrectReward, g.wallReward}
	return floats.Min(rewards)
}

// Max returns the maximum reward attainable in the Task
func (g *Goals) Max() float64 {
	rewards := []float64{g.timeStepReward, g.correctReward,
		g.incorrectReward, g.wallReward}
	return floats.Max(rewards)
}
