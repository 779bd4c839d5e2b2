// Package experiment implements functionality for running an experiment
package experiment

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/experiment/trackers"
)

var (
	// ErrNonFinite is returned when the policy of an agent produces a
	// non-finite action distribution during an experiment
	ErrNonFinite = errors.New("non-finite action probabilities")

	// ErrFinished is returned when running an episode of an experiment
	// that has already run all of its episodes
	ErrFinished = errors.New("experiment has finished")
)

// Interface Experiment outlines structs that can run experiments.
// Experiments will track environment TimeSteps, caching each TimeStep's
// data in Trackers to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes, while the RunEpisode() function will run a single
// episode.
type Experiment interface {
	// Run runs all remaining episodes and returns the statistics of
	// every episode run so far
	Run() (Stats, error)
	RunEpisode() error

	// Agent returns the agent being trained
	Agent() agent.Agent

	// Save all tracked data to disk
	Save() error

	// Adds a new trackers.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t trackers.Tracker)
}

// Config represents a configuration of a REINFORCE experiment
type Config struct {
	NumEpisodes      int     `yaml:"numepisodes" json:"numepisodes"`
	MaxEpisodeLength int     `yaml:"maxepisodelength" json:"maxepisodelength"`
	Discount         float64 `yaml:"discount" json:"discount"`

	// Per-episode schedules. A single value is used for every episode.
	LearningRate    Schedule `yaml:"learningrate" json:"learningrate"`
	EntropyScale    Schedule `yaml:"entropyscale" json:"entropyscale"`
	ValueScale      Schedule `yaml:"valuescale" json:"valuescale"`
	ActionInfoScale Schedule `yaml:"actioninfoscale" json:"actioninfoscale"`
	StateInfoScale  Schedule `yaml:"stateinfoscale" json:"stateinfoscale"`

	// CountPrior is the pseudo-count every state-goal pair starts with
	// when visitation counts are kept. Zero means unset and is replaced
	// by DefaultCountPrior.
	CountPrior float64 `yaml:"countprior" json:"countprior"`

	Seed    uint64 `yaml:"seed" json:"seed"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// DefaultCountPrior is the count prior of a Config which sets none
const DefaultCountPrior = 1.0

// WithDefaults returns a copy of c with unset scales set to 0 and an
// unset count prior set to DefaultCountPrior
func (c Config) WithDefaults() Config {
	for _, s := range []*Schedule{&c.EntropyScale, &c.ValueScale,
		&c.ActionInfoScale, &c.StateInfoScale} {
		if len(*s) == 0 {
			*s = Constant(0)
		}
	}
	if c.CountPrior == 0 {
		c.CountPrior = DefaultCountPrior
	}
	return c
}

// Validate returns an error if the Config cannot be used to run an
// experiment
func (c Config) Validate() error {
	if c.NumEpisodes < 1 {
		return fmt.Errorf("validate: need at least one episode, have %d",
			c.NumEpisodes)
	}
	if c.MaxEpisodeLength < 1 {
		return fmt.Errorf("validate: max episode length must be positive, "+
			"have %d", c.MaxEpisodeLength)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], have %v",
			c.Discount)
	}
	if c.CountPrior < 0 {
		return fmt.Errorf("validate: count prior must be non-negative, "+
			"have %v", c.CountPrior)
	}

	schedules := map[string]Schedule{
		"learning rate":     c.LearningRate,
		"entropy scale":     c.EntropyScale,
		"value scale":       c.ValueScale,
		"action info scale": c.ActionInfoScale,
		"state info scale":  c.StateInfoScale,
	}
	for name, s := range schedules {
		if len(s) == 0 && name != "learning rate" {
			continue
		}
		if err := s.Validate(c.NumEpisodes); err != nil {
			return fmt.Errorf("validate: %v: %w", name, err)
		}
	}
	return nil
}
