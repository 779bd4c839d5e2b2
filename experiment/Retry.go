package experiment

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// ErrRetriesExhausted is returned when no attempt of a retried
// experiment finished with finite parameters
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig configures RunUntilFinite
type RetryConfig struct {
	// MaxAttempts is the maximum number of experiments run. If 0, the
	// number of attempts is unbounded.
	MaxAttempts int `yaml:"maxattempts" json:"maxattempts"`

	// OnFailure, if not nil, is called after each failed attempt with
	// the experiment of that attempt
	OnFailure func(attempt int, exp Experiment, err error) `yaml:"-" json:"-"`
}

// Validate returns an error if the RetryConfig is invalid
func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 0 {
		return fmt.Errorf("validate: max attempts must be non-negative, "+
			"have %d", r.MaxAttempts)
	}
	return nil
}

// RunUntilFinite repeatedly creates an experiment with factory and runs
// it, until an experiment finishes with an agent whose parameters are
// all finite. Attempts are numbered from 1 and each attempt should
// create freshly initialized agents.
//
// An attempt fails if its agent ends with non-finite parameters or if
// the experiment stopped with ErrNonFinite. Any other error stops the
// retries and is returned.
func RunUntilFinite(factory func(attempt int) (Experiment, error),
	c RetryConfig) (Experiment, Stats, error) {
	if err := c.Validate(); err != nil {
		return nil, Stats{}, fmt.Errorf("runUntilFinite: %v", err)
	}

	for attempt := 1; c.MaxAttempts == 0 || attempt <= c.MaxAttempts; attempt++ {
		exp, err := factory(attempt)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("runUntilFinite: attempt %d: "+
				"could not create experiment: %w", attempt, err)
		}

		stats, err := exp.Run()
		if err == nil && !exp.Agent().Finite() {
			err = fmt.Errorf("parameters not finite after training: %w",
				ErrNonFinite)
		}

		if err == nil {
			glog.Infof("attempt %d finished with finite parameters",
				attempt)
			return exp, stats, nil
		}
		if !errors.Is(err, ErrNonFinite) {
			return nil, Stats{}, fmt.Errorf("runUntilFinite: attempt %d: %w",
				attempt, err)
		}

		glog.Warningf("attempt %d failed, retrying: %v", attempt, err)
		if c.OnFailure != nil {
			c.OnFailure(attempt, exp, err)
		}
	}

	return nil, Stats{}, fmt.Errorf("runUntilFinite: %d attempts: %w",
		c.MaxAttempts, ErrRetriesExhausted)
}
