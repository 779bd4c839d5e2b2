// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be JSON and YAML serialized into configuration files.
// Each initializer can also draw weights from a seeded source so that
// tabular parameters are initialized reproducibly.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
)

// configTypes maps each Type to its concrete Config
var configTypes = map[string]reflect.Type{
	string(Gaussian): reflect.TypeOf(GaussianConfig{}),
	string(Uniform):  reflect.TypeOf(UniformConfig{}),
	string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
	string(Ones):     reflect.TypeOf(OnesConfig{}),
	string(Constant): reflect.TypeOf(ConstantConfig{}),
}

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newInitWFn: %v", err)
	}
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// Values returns n weights drawn from the initializer using a source
// seeded with seed
func (i *InitWFn) Values(seed uint64, n int) []float64 {
	return i.Config.Sample(rand.NewSource(seed), n)
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config",
		configTypes)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. The YAML
// node is decoded with the same {Type, Config} layout as JSON.
func (i *InitWFn) UnmarshalYAML(value *yaml.Node) error {
	m := map[string]interface{}{}
	if err := value.Decode(&m); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return i.UnmarshalJSON(data)
}

// MarshalYAML implements the yaml.Marshaler interface
func (i InitWFn) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"type":   i.Type,
		"config": i.Config,
	}, nil
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

	var typeName string
	var rawValue interface{}
	for k, v := range m {
		switch {
		case strings.EqualFold(k, typeJsonField):
			name, ok := v.(string)
			if !ok {
				return nil, "", fmt.Errorf("unmarshalConfig: field %v must "+
					"be a string", typeJsonField)
			}
			typeName = name
		case strings.EqualFold(k, valueJsonField):
			rawValue = v
		}
	}

	var value Config
	for name, ty := range customTypes {
		if strings.EqualFold(name, typeName) {
			value = reflect.New(ty).Interface().(Config)
			typeName = name
		}
	}
	if value == nil {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown initializer "+
			"type %q", typeName)
	}

	if rawValue == nil {
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

	return concreteValue, Type(typeName), nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type

	// Sample draws n weights from the described distribution using src
	Sample(src rand.Source, n int) []float64

	// Validate returns an error if the Config is invalid
	Validate() error
}

func errNegative(name string, v float64) error {
	return fmt.Errorf("validate: %v must be non-negative, have %v", name, v)
}
