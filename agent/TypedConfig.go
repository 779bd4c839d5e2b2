package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	TabularREINFORCE Type = "TabularREINFORCE"
	FrozenTabular    Type = "FrozenTabular"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be deserialized.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete Config type so that
// upon deserialization of a TypedConfig, Configs of type agentType are
// deserialized into the concrete type of config.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// TypedConfig wraps a Config to enable it to be JSON and YAML
// marshalled and unmarshalled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig returns a new TypedConfig
func NewTypedConfig(t Type, c Config) (TypedConfig, error) {
	ty, ok := registeredTypes[t]
	if !ok {
		return TypedConfig{}, fmt.Errorf("newTypedConfig: type %v not "+
			"registered", t)
	}
	if reflect.TypeOf(c) != ty {
		return TypedConfig{}, fmt.Errorf("newTypedConfig: config %T is not "+
			"of type %v", c, t)
	}
	return TypedConfig{Type: t, Config: c}, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return err
	}

	t.Type = typeName
	t.Config = config

	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (t *TypedConfig) UnmarshalYAML(value *yaml.Node) error {
	m := map[string]interface{}{}
	if err := value.Decode(&m); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return t.UnmarshalJSON(data)
}

// MarshalYAML implements the yaml.Marshaler interface
func (t TypedConfig) MarshalYAML() (interface{}, error) {
	return map[string]interface{}{
		"type":   t.Type,
		"config": t.Config,
	}, nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// registered concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField,
	valueJsonField string) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	var typeName Type
	var rawValue interface{}
	for k, v := range m {
		switch {
		case strings.EqualFold(k, typeJsonField):
			name, ok := v.(string)
			if !ok {
				return nil, "", fmt.Errorf("unmarshalConfig: field %v must "+
					"be a string", typeJsonField)
			}
			typeName = Type(name)
		case strings.EqualFold(k, valueJsonField):
			rawValue = v
		}
	}

	var value Config
	for name, ty := range registeredTypes {
		if strings.EqualFold(string(name), string(typeName)) {
			value = reflect.New(ty).Interface().(Config)
			typeName = name
		}
	}
	if value == nil {
		return nil, "", fmt.Errorf("unmarshalConfig: agent type %q not "+
			"registered", typeName)
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

	return concreteValue, typeName, nil
}
