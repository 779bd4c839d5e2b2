// Package envconfig provides configuration structs for configuring
// multi-goal gridworld environments with default rewards and goal
// locations. Environment configurations in this package are YAML and
// JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/environment/gridworld"
)

// Defaults for the 8x4 two-goal gridworld
const (
	DefaultRows       = 8
	DefaultCols       = 4
	DefaultRCorrect   = 1.0
	DefaultRIncorrect = -1.0
	DefaultRStep      = 0.0
	DefaultRWall      = -0.1
	DefaultPRand      = 0.0
)

// DefaultGoalLocs are the state indices of the goals in the default
// gridworld
var DefaultGoalLocs = []int{1, 2}

// Config implements a specific configuration of a multi-goal gridworld
type Config struct {
	Rows       int       `yaml:"rows" json:"rows"`
	Cols       int       `yaml:"cols" json:"cols"`
	RCorrect   float64   `yaml:"rcorrect" json:"rcorrect"`
	RIncorrect float64   `yaml:"rincorrect" json:"rincorrect"`
	RStep      float64   `yaml:"rstep" json:"rstep"`
	RWall      float64   `yaml:"rwall" json:"rwall"`
	PRand      float64   `yaml:"prand" json:"prand"`
	GoalLocs   []int     `yaml:"goallocs" json:"goallocs"`
	GoalDist   []float64 `yaml:"goaldist,omitempty" json:"goaldist,omitempty"`
}

// Default returns the default gridworld configuration
func Default() Config {
	locs := make([]int, len(DefaultGoalLocs))
	copy(locs, DefaultGoalLocs)

	return Config{
		Rows:       DefaultRows,
		Cols:       DefaultCols,
		RCorrect:   DefaultRCorrect,
		RIncorrect: DefaultRIncorrect,
		RStep:      DefaultRStep,
		RWall:      DefaultRWall,
		PRand:      DefaultPRand,
		GoalLocs:   locs,
	}
}

// Validate returns an error describing whether or not the configuration
// is valid
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("validate: grid must have at least one row and "+
			"column, have (%d, %d)", c.Rows, c.Cols)
	}
	if len(c.GoalLocs) == 0 {
		return fmt.Errorf("validate: at least one goal location required")
	}
	if c.GoalDist != nil && len(c.GoalDist) != len(c.GoalLocs) {
		return fmt.Errorf("validate: goal distribution has %d entries but "+
			"there are %d goals", len(c.GoalDist), len(c.GoalLocs))
	}
	if c.PRand < 0 || c.PRand > 1 {
		return fmt.Errorf("validate: prand must be in [0, 1], have %v",
			c.PRand)
	}
	return nil
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	goals, err := gridworld.NewGoals(c.GoalLocs, c.Rows, c.Cols, c.RCorrect,
		c.RIncorrect, c.RStep, c.RWall)
	if err != nil {
		return nil, fmt.Errorf("create: could not create goals: %v", err)
	}

	var goalDist []float64
	if len(c.GoalDist) > 0 {
		goalDist = c.GoalDist
	}

	g, err := gridworld.New(c.Rows, c.Cols, goals, goalDist, c.PRand, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return g, nil
}
