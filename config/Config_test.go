package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/agent/tabular/reinforce"
	"github.com/samuelfneumann/inforeg/experiment"
	"github.com/samuelfneumann/inforeg/solver"
)

const testConfig = `
environment:
  rows: 3
  cols: 3
  rcorrect: 1
  rincorrect: -1
  rstep: 0
  rwall: -0.1
  prand: 0.1
  goallocs: [0, 2]
agent:
  type: TabularREINFORCE
  config:
    useactioninfo: true
    usestateinfo: false
    solver:
      type: Vanilla
      config:
        stepsize: 0.1
training:
  numepisodes: 3
  maxepisodelength: 20
  discount: 0.9
  learningrate: 0.1
  entropyscale: [0.3, 0.2, 0.1]
  actioninfoscale: 0.5
  seed: 4
retry:
  maxattempts: 5
results:
  dir: out
`

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	c, err := FromYaml(writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}

	if c.Environment.Rows != 3 || c.Environment.PRand != 0.1 ||
		len(c.Environment.GoalLocs) != 2 {
		t.Errorf("fromYaml: wrong environment %+v", c.Environment)
	}

	if c.Agent.Type != agent.TabularREINFORCE {
		t.Errorf("fromYaml: expected agent type %v, got %v",
			agent.TabularREINFORCE, c.Agent.Type)
	}
	ac, ok := c.Agent.Config.(reinforce.Config)
	if !ok {
		t.Fatalf("fromYaml: expected reinforce.Config, got %T", c.Agent.Config)
	}
	if !ac.UseActionInfo || ac.UseStateInfo {
		t.Errorf("fromYaml: wrong information flags %+v", ac)
	}
	if ac.Solver == nil || ac.Solver.Type != solver.Vanilla {
		t.Errorf("fromYaml: expected vanilla solver, got %v", ac.Solver)
	}

	tr := c.Training
	if tr.NumEpisodes != 3 || tr.MaxEpisodeLength != 20 || tr.Seed != 4 {
		t.Errorf("fromYaml: wrong training config %+v", tr)
	}
	if len(tr.LearningRate) != 1 || tr.LearningRate[0] != 0.1 {
		t.Errorf("fromYaml: expected scalar learning rate, got %v",
			tr.LearningRate)
	}
	if len(tr.EntropyScale) != 3 || tr.EntropyScale[2] != 0.1 {
		t.Errorf("fromYaml: expected entropy schedule, got %v",
			tr.EntropyScale)
	}

	if c.Retry.MaxAttempts != 5 {
		t.Errorf("fromYaml: expected 5 attempts, got %d", c.Retry.MaxAttempts)
	}
	if c.Results.Dir != "out" || c.Results.Window != Default().Results.Window {
		t.Errorf("fromYaml: wrong results %+v", c.Results)
	}
}

func TestFromYamlEnvOverride(t *testing.T) {
	t.Setenv("INFOREG_TRAINING_MAXEPISODELENGTH", "7")
	t.Setenv("INFOREG_TRAINING_DISCOUNT", "0.5")
	t.Setenv("INFOREG_RESULTS_DIR", "elsewhere")

	c, err := FromYaml(writeConfig(t, testConfig))
	if err != nil {
		t.Fatal(err)
	}

	if c.Training.MaxEpisodeLength != 7 {
		t.Errorf("fromYaml: expected max episode length 7, got %d",
			c.Training.MaxEpisodeLength)
	}
	if len(c.Training.EntropyScale) != c.Training.NumEpisodes {
		t.Errorf("fromYaml: expected entropy schedule untouched, got %v",
			c.Training.EntropyScale)
	}
	if c.Training.Discount != 0.5 {
		t.Errorf("fromYaml: expected discount 0.5, got %v",
			c.Training.Discount)
	}
	if c.Results.Dir != "elsewhere" {
		t.Errorf("fromYaml: expected results dir override, got %v",
			c.Results.Dir)
	}
}

func TestFromYamlEnvOverrideInvalid(t *testing.T) {
	// The entropy schedule has one value per configured episode
	t.Setenv("INFOREG_TRAINING_NUMEPISODES", "7")

	_, err := FromYaml(writeConfig(t, testConfig))
	if !errors.Is(err, experiment.ErrScheduleLength) {
		t.Errorf("fromYaml: expected ErrScheduleLength, got %v", err)
	}
}

func TestFromYamlInvalid(t *testing.T) {
	tests := map[string]string{
		"missing file": "",
		"unknown agent": `
agent:
  type: Bob
`,
		"no episodes": `
environment:
  rows: 3
  cols: 3
  goallocs: [0]
agent:
  type: TabularREINFORCE
training:
  numepisodes: 0
  maxepisodelength: 1
  learningrate: 0.1
results:
  dir: out
`,
	}

	for name, data := range tests {
		path := filepath.Join(t.TempDir(), "missing.yaml")
		if data != "" {
			path = writeConfig(t, data)
		}
		if _, err := FromYaml(path); err == nil {
			t.Errorf("fromYaml: %v: expected error", name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	c := Default()
	c.Training.Seed = 12
	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := FromYaml(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Training.Seed != 12 ||
		loaded.Training.NumEpisodes != c.Training.NumEpisodes {
		t.Errorf("save: expected %+v, got %+v", c.Training, loaded.Training)
	}
	if _, ok := loaded.Agent.Config.(reinforce.Config); !ok {
		t.Errorf("save: expected reinforce.Config, got %T", loaded.Agent.Config)
	}
	if !reflect.DeepEqual(loaded.Environment, c.Environment) {
		t.Errorf("save: expected %+v, got %+v", c.Environment,
			loaded.Environment)
	}
}

func TestExampleConfig(t *testing.T) {
	c, err := FromYaml(filepath.Join("..", "configs", "alice.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	ac, ok := c.Agent.Config.(reinforce.Config)
	if !ok {
		t.Fatalf("fromYaml: expected reinforce.Config, got %T", c.Agent.Config)
	}
	if !ac.UseActionInfo || !ac.UseStateInfo {
		t.Errorf("fromYaml: expected both information terms, got %+v", ac)
	}
	if ac.Solver.Type != solver.Adam || ac.Solver.LearningRate() != 0.001 {
		t.Errorf("fromYaml: expected Adam with step size 0.001, got %v",
			ac.Solver)
	}
	if c.Environment.Rows*c.Environment.Cols != 32 {
		t.Errorf("fromYaml: expected 8x4 grid, got %dx%d", c.Environment.Rows,
			c.Environment.Cols)
	}
}
