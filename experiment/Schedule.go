package experiment

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrScheduleLength is returned when a Schedule is neither a single
// value nor has one value per episode
var ErrScheduleLength = errors.New("schedule length does not match " +
	"number of episodes")

// Schedule is a per-episode sequence of hyperparameter values. A
// Schedule with a single value is broadcast to every episode.
//
// In YAML, a Schedule can be written either as a scalar or as a
// sequence.
type Schedule []float64

// Constant returns a Schedule holding value for every episode
func Constant(value float64) Schedule {
	return Schedule{value}
}

// NewSchedule returns the per-episode schedule of values over
// numEpisodes episodes. If values holds a single value it is broadcast
// to every episode, otherwise values must have length numEpisodes.
func NewSchedule(values []float64, numEpisodes int) (Schedule, error) {
	if err := Schedule(values).Validate(numEpisodes); err != nil {
		return nil, fmt.Errorf("newSchedule: %w", err)
	}

	s := make(Schedule, numEpisodes)
	if len(values) == 1 {
		for i := range s {
			s[i] = values[0]
		}
	} else {
		copy(s, values)
	}
	return s, nil
}

// Validate returns an error wrapping ErrScheduleLength if s cannot be
// used for numEpisodes episodes
func (s Schedule) Validate(numEpisodes int) error {
	if len(s) == 1 || len(s) == numEpisodes {
		return nil
	}
	return fmt.Errorf("have %d values for %d episodes: %w", len(s),
		numEpisodes, ErrScheduleLength)
}

// UnmarshalYAML implements the yaml.Unmarshaler interface, accepting
// both scalars and sequences
func (s *Schedule) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = Schedule{v}
		return nil

	case yaml.SequenceNode:
		var v []float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = Schedule(v)
		return nil
	}

	return fmt.Errorf("unmarshalYAML: line %d: schedule must be a scalar "+
		"or a sequence", value.Line)
}

// MarshalYAML implements the yaml.Marshaler interface, writing single
// valued schedules as scalars
func (s Schedule) MarshalYAML() (interface{}, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []float64(s), nil
}
