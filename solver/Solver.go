// Package solver implements functionality to wrap Gorgonia Solvers
// so that they can be JSON and YAML serialized into configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Solver wraps Gorgonia Solvers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	G.Solver `json:"-" yaml:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// Fresh returns a new Solver with the same configuration but none of
// the accumulated state (such as moment estimates) of s
func (s *Solver) Fresh() (*Solver, error) {
	if s.Config == nil {
		return nil, fmt.Errorf("fresh: solver has no configuration")
	}
	return newSolver(s.Type, s.Config)
}

// StepAt performs a single step of the solver on model, scaling the
// step so that it is taken with learning rate rate instead of the
// configured step size. Every available solver produces a step which is
// linear in its learning rate given its accumulated state, so the
// rescaled step is exactly the step the solver would take at rate.
//
// The values of all elements of model must be *tensor.Dense of float64.
func (s *Solver) StepAt(model []G.ValueGrad, rate float64) error {
	stepSize := s.Config.LearningRate()
	if stepSize == 0 {
		return fmt.Errorf("stepAt: solver has zero step size")
	}

	before := make([][]float64, len(model))
	for i, p := range model {
		w, ok := p.Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("stepAt: expected *tensor.Dense value but "+
				"got %T", p.Value())
		}
		data, ok := w.Data().([]float64)
		if !ok {
			return fmt.Errorf("stepAt: expected float64 data but got %v",
				w.Dtype())
		}
		before[i] = append([]float64(nil), data...)
	}

	if err := s.Step(model); err != nil {
		return fmt.Errorf("stepAt: %v", err)
	}

	if rate == stepSize {
		return nil
	}
	scale := rate / stepSize
	for i, p := range model {
		data := p.Value().(*tensor.Dense).Data().([]float64)
		for j := range data {
			data[j] = before[i][j] + scale*(data[j]-before[i][j])
		}
	}
	return nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Vanilla): reflect.TypeOf(VanillaConfig{}),
			string(Adam):    reflect.TypeOf(AdamConfig{}),
			string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
		})
	if err != nil {
		return err
	}

	if !config.ValidType(typeName) {
		return fmt.Errorf("unmarshalJSON: invalid solver type %v for "+
			"configuration %T", typeName, config)
	}

	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. The YAML
// node is decoded with the same {Type, Config} layout as JSON.
func (s *Solver) UnmarshalYAML(value *yaml.Node) error {
	m := map[string]interface{}{}
	if err := value.Decode(&m); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.UnmarshalJSON(data)
}

// MarshalYAML implements the yaml.Marshaler interface
func (s Solver) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"type":   s.Type,
		"config": s.Config,
	}, nil
}

// FromMap creates a Solver from a generic map, such as one produced by
// a configuration file loader
func FromMap(m map[string]interface{}) (*Solver, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("fromMap: %v", err)
	}

	s := &Solver{}
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("fromMap: %v", err)
	}
	return s, nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned. Field names
// are matched case-insensitively.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	rawType, ok := lookup(m, typeJsonField)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %v",
			typeJsonField)
	}
	typeName, ok := rawType.(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: field %v must be a "+
			"string", typeJsonField)
	}

	var value Config
	name, ty, found := lookupType(customTypes, typeName)
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown solver type %v",
			typeName)
	}
	value = reflect.New(ty).Interface().(Config)

	rawValue, ok := lookup(m, valueJsonField)
	if !ok || rawValue == nil {
		rawValue = map[string]interface{}{}
	}
	valueBytes, err := json.Marshal(rawValue)
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(name), nil
}

func lookup(m map[string]interface{}, key string) (interface{}, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func lookupType(types map[string]reflect.Type, name string) (string,
	reflect.Type, bool) {
	for k, v := range types {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", nil, false
}

// batchSize returns the batch size to scale gradients by, treating
// unset batch sizes as 1
func batchSize(b int) float64 {
	if b < 1 {
		return 1
	}
	return float64(b)
}

func epsilon(eps float64) float64 {
	if eps <= 0 {
		return DefaultEpsilon
	}
	return eps
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// LearningRate returns the step size the created Solver uses
	LearningRate() float64
}
