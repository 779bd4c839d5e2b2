package experiment

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/experiment/trackers"
)

// finiteAgent is an agent that only reports whether it is finite
type finiteAgent struct {
	nanPolicy
	finite bool
}

func (f finiteAgent) Finite() bool { return f.finite }

// stubExperiment is an Experiment that returns fixed results
type stubExperiment struct {
	agent agent.Agent
	err   error
}

func (s stubExperiment) Run() (Stats, error) {
	return Stats{EpisodeLengths: []int{1}}, s.err
}

func (s stubExperiment) RunEpisode() error          { return s.err }
func (s stubExperiment) Agent() agent.Agent         { return s.agent }
func (s stubExperiment) Save() error                { return nil }
func (s stubExperiment) Register(t trackers.Tracker) {}

func TestRunUntilFinite(t *testing.T) {
	var failures []int
	factory := func(attempt int) (Experiment, error) {
		return stubExperiment{agent: finiteAgent{finite: attempt == 3}}, nil
	}

	exp, stats, err := RunUntilFinite(factory, RetryConfig{
		MaxAttempts: 10,
		OnFailure: func(attempt int, exp Experiment, err error) {
			if !errors.Is(err, ErrNonFinite) {
				t.Errorf("onFailure: expected ErrNonFinite, got %v", err)
			}
			if exp == nil || exp.Agent().Finite() {
				t.Errorf("onFailure: expected the failed experiment, got %v",
					exp)
			}
			failures = append(failures, attempt)
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !exp.Agent().Finite() {
		t.Error("runUntilFinite: accepted a non-finite experiment")
	}
	if stats.Len() != 1 {
		t.Errorf("runUntilFinite: expected stats of accepted run, got %v",
			stats)
	}
	if len(failures) != 2 || failures[0] != 1 || failures[1] != 2 {
		t.Errorf("runUntilFinite: expected failures [1 2], got %v", failures)
	}
}

func TestRunUntilFiniteNonFiniteRun(t *testing.T) {
	attempts := 0
	factory := func(attempt int) (Experiment, error) {
		attempts++
		if attempt == 1 {
			return stubExperiment{
				agent: finiteAgent{finite: true},
				err:   ErrNonFinite,
			}, nil
		}
		return stubExperiment{agent: finiteAgent{finite: true}}, nil
	}

	if _, _, err := RunUntilFinite(factory, RetryConfig{}); err != nil {
		t.Fatal(err)
	}
	if attempts != 2 {
		t.Errorf("runUntilFinite: expected 2 attempts, got %d", attempts)
	}
}

func TestRunUntilFiniteExhausted(t *testing.T) {
	attempts := 0
	factory := func(int) (Experiment, error) {
		attempts++
		return stubExperiment{agent: finiteAgent{finite: false}}, nil
	}

	_, _, err := RunUntilFinite(factory, RetryConfig{MaxAttempts: 4})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("runUntilFinite: expected ErrRetriesExhausted, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("runUntilFinite: expected 4 attempts, got %d", attempts)
	}
}

func TestRunUntilFiniteOtherError(t *testing.T) {
	errFatal := errors.New("fatal")
	attempts := 0
	factory := func(int) (Experiment, error) {
		attempts++
		return stubExperiment{
			agent: finiteAgent{finite: true},
			err:   errFatal,
		}, nil
	}

	_, _, err := RunUntilFinite(factory, RetryConfig{MaxAttempts: 4})
	if !errors.Is(err, errFatal) {
		t.Errorf("runUntilFinite: expected fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("runUntilFinite: expected 1 attempt, got %d", attempts)
	}
}
