// Package config implements the configuration of a training run, which
// is loaded from YAML files
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/agent/tabular/reinforce"
	"github.com/samuelfneumann/inforeg/environment/envconfig"
	"github.com/samuelfneumann/inforeg/experiment"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding values
// of a configuration file. Nested keys are joined by underscores, e.g.
// INFOREG_TRAINING_NUMEPISODES.
const EnvPrefix = "INFOREG"

// Config is the configuration of a training run
type Config struct {
	Environment envconfig.Config       `yaml:"environment"`
	Agent       agent.TypedConfig      `yaml:"agent"`
	Training    experiment.Config      `yaml:"training"`
	Retry       experiment.RetryConfig `yaml:"retry"`
	Results     Results                `yaml:"results"`
}

// Results configures where and how the results of a run are saved
type Results struct {
	Dir string `yaml:"dir"`

	// Window is the number of episodes the plotted statistics are
	// smoothed over
	Window int `yaml:"window"`

	// Threshold is the reward an episode must reach to count as solved
	// when reporting the first solved episode
	Threshold float64 `yaml:"threshold"`

	Plots bool `yaml:"plots"`
}

// Default returns the default configuration, which trains an agent
// using both information terms on the default gridworld
func Default() Config {
	return Config{
		Environment: envconfig.Default(),
		Agent: agent.TypedConfig{
			Type: agent.TabularREINFORCE,
			Config: reinforce.Config{
				UseActionInfo: true,
				UseStateInfo:  true,
			},
		},
		Training: experiment.Config{
			NumEpisodes:      1000,
			MaxEpisodeLength: 100,
			Discount:         0.9,
			LearningRate:     experiment.Constant(0.05),
			EntropyScale:     experiment.Constant(0.01),
			ValueScale:       experiment.Constant(1),
			ActionInfoScale:  experiment.Constant(0.1),
			StateInfoScale:   experiment.Constant(0.1),
			CountPrior:       experiment.DefaultCountPrior,
		},
		Retry: experiment.RetryConfig{MaxAttempts: 10},
		Results: Results{
			Dir:       "results",
			Window:    10,
			Threshold: envconfig.DefaultRCorrect,
			Plots:     true,
		},
	}
}

// Validate returns an error if any part of the configuration is
// invalid
func (c Config) Validate() error {
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("validate: environment: %v", err)
	}
	if c.Agent.Config == nil {
		return fmt.Errorf("validate: no agent configured")
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %v", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("validate: training: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("validate: retry: %v", err)
	}
	if c.Results.Dir == "" {
		return fmt.Errorf("validate: no results directory")
	}
	return nil
}

// FromYaml loads the configuration in the YAML file at path. Values in
// the file can be overridden by environment variables prefixed with
// EnvPrefix. Unset values of the file keep their zero values, except
// that unset results fields take their defaults.
func FromYaml(path string) (Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if err := vp.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("fromYaml: could not read %v: %v", path,
			err)
	}

	// AllSettings applies environment overrides of keys in the file
	settings := coerce(vp.AllSettings())
	spec, err := yaml.Marshal(settings)
	if err != nil {
		return Config{}, fmt.Errorf("fromYaml: %v", err)
	}

	c := Config{Results: Default().Results}
	if err := yaml.Unmarshal(spec, &c); err != nil {
		return Config{}, fmt.Errorf("fromYaml: could not decode %v: %v",
			path, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("fromYaml: %w", err)
	}
	return c, nil
}

// Save writes the configuration as YAML to path
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// coerce converts string scalars to the YAML type they spell, since
// environment overrides are always read as strings
func coerce(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, elem := range v {
			v[k] = coerce(elem)
		}
		return v

	case []interface{}:
		for i, elem := range v {
			v[i] = coerce(elem)
		}
		return v

	case string:
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(v), &node); err != nil ||
			len(node.Content) != 1 {
			return v
		}
		scalar := node.Content[0]
		if scalar.Kind != yaml.ScalarNode || scalar.Tag == "!!str" {
			return v
		}

		var out interface{}
		if err := scalar.Decode(&out); err != nil {
			return v
		}
		return out
	}
	return v
}
