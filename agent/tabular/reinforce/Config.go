package reinforce

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/inforeg/agent"
	env "github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/initwfn"
	"github.com/samuelfneumann/inforeg/solver"
)

func init() {
	// Register Config types so that they can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.TabularREINFORCE, Config{})
	agent.Register(agent.FrozenTabular, FrozenConfig{})
}

// Default hyperparameters
const (
	DefaultInitMean   = 0.0
	DefaultInitStdDev = 0.1

	// DefaultStepSize is the step size of the default solver. Updates
	// are always taken at the learning rate of the agent.Update.
	DefaultStepSize = 1e-3
)

// Config implements a configuration for a tabular REINFORCE Estimator
type Config struct {
	UseActionInfo bool
	UseStateInfo  bool

	// Initialization algorithm for logits and values. Gaussian with
	// standard deviation 0.1 if nil.
	InitWFn *initwfn.InitWFn

	// Solver for learning weights. Adam if nil.
	Solver *solver.Solver
}

// withDefaults returns a copy of c with default initializer and solver
// filled in
func (c Config) withDefaults() Config {
	if c.InitWFn == nil {
		c.InitWFn, _ = initwfn.NewGaussian(DefaultInitMean, DefaultInitStdDev)
	}
	if c.Solver == nil {
		c.Solver, _ = solver.NewDefaultAdam(DefaultStepSize, 1)
	}
	return c
}

// Validate returns an error describing whether or not the
// configuration is valid or not.
func (c Config) Validate() error {
	if c.InitWFn != nil && c.InitWFn.Config == nil {
		return fmt.Errorf("validate: weight initializer has no configuration")
	}
	if c.Solver != nil && c.Solver.Config == nil {
		return fmt.Errorf("validate: solver has no configuration")
	}
	if c.Solver != nil && c.Solver.LearningRate() <= 0 {
		return fmt.Errorf("validate: solver step size must be positive, "+
			"have %v", c.Solver.LearningRate())
	}
	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*Estimator)
	return ok
}

// CreateAgent creates a new Estimator based on the configuration
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e.Spec(), c, seed)
}

// FrozenConfig implements a configuration of a Frozen policy, created by
// freezing an Estimator saved at Checkpoint
type FrozenConfig struct {
	Checkpoint string
}

// Validate returns an error if no checkpoint is given
func (f FrozenConfig) Validate() error {
	if f.Checkpoint == "" {
		return fmt.Errorf("validate: no checkpoint given")
	}
	return nil
}

// ValidAgent returns whether a is a Frozen policy
func (f FrozenConfig) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*Frozen)
	return ok
}

// CreateAgent loads the Estimator at the checkpoint and freezes it. The
// seed is ignored.
func (f FrozenConfig) CreateAgent(e env.Environment, _ uint64) (agent.Agent,
	error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	est, err := Load(f.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}
	if est.Spec() != e.Spec() {
		return nil, fmt.Errorf("createAgent: checkpoint has %v but "+
			"environment has %v", est.Spec(), e.Spec())
	}
	return Freeze(est)
}

// Load loads a gob encoded Estimator from the file at path
func Load(path string) (*Estimator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	defer file.Close()

	var est Estimator
	if err := gob.NewDecoder(file).Decode(&est); err != nil {
		return nil, fmt.Errorf("load: could not decode %v: %v", path, err)
	}
	return &est, nil
}
