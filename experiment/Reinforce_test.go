package experiment

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/agent/tabular/reinforce"
	env "github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/environment/envconfig"
	ts "github.com/samuelfneumann/inforeg/timestep"
)

// oneStep is an environment whose episodes always end after a single
// step with a fixed reward
type oneStep struct {
	reward float64
}

func (o oneStep) Reset() (ts.TimeStep, error) {
	return ts.New(ts.First, 0, 0, 0, 0), nil
}

func (o oneStep) Step(action int) (ts.TimeStep, bool, error) {
	return ts.New(ts.Last, 1, 0, o.reward, 1), true, nil
}

func (o oneStep) Spec() env.Spec {
	return env.Spec{States: 2, Goals: 1, Actions: 2}
}

// nanPolicy is an agent whose action probabilities are NaN
type nanPolicy struct {
	spec env.Spec
}

func (n nanPolicy) ActionProbabilities(int, int) ([]float64, error) {
	probs := make([]float64, n.spec.Actions)
	for i := range probs {
		probs[i] = math.NaN()
	}
	return probs, nil
}

func (n nanPolicy) ActionInformation(int, int) (float64, error) {
	return math.NaN(), nil
}

func (n nanPolicy) Spec() env.Spec                      { return n.spec }
func (n nanPolicy) Value(int, int) (float64, error)     { return 0, nil }
func (n nanPolicy) Update(agent.Update) (float64, error) { return 0, nil }
func (n nanPolicy) Trainable() bool                     { return true }
func (n nanPolicy) Finite() bool                        { return false }

func trainingConfig(episodes, maxLength int) Config {
	return Config{
		NumEpisodes:      episodes,
		MaxEpisodeLength: maxLength,
		Discount:         0.99,
		LearningRate:     Constant(0.01),
		EntropyScale:     Constant(0.1),
		ValueScale:       Constant(0.5),
		ActionInfoScale:  Constant(0.1),
		StateInfoScale:   Constant(0.1),
		Seed:             1,
	}
}

func TestReinforceOneStep(t *testing.T) {
	e := oneStep{reward: 0.7}
	a, err := reinforce.New(e.Spec(), reinforce.Config{}, 0)
	if err != nil {
		t.Fatal(err)
	}

	exp, err := NewReinforce(e, a, trainingConfig(1, 10), nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := exp.Run()
	if err != nil {
		t.Fatal(err)
	}

	if len(stats.EpisodeLengths) != 1 || stats.EpisodeLengths[0] != 1 {
		t.Errorf("run: expected lengths [1], got %v", stats.EpisodeLengths)
	}
	if len(stats.EpisodeRewards) != 1 || stats.EpisodeRewards[0] != 0.7 {
		t.Errorf("run: expected rewards [0.7], got %v", stats.EpisodeRewards)
	}
	if len(stats.EpisodeActionInfo) != 1 ||
		math.Abs(stats.EpisodeActionInfo[0]) > 1e-12 {
		t.Errorf("run: expected a single goal to carry no information, "+
			"got %v", stats.EpisodeActionInfo)
	}

	if err := exp.RunEpisode(); !errors.Is(err, ErrFinished) {
		t.Errorf("runEpisode: expected ErrFinished, got %v", err)
	}
}

func TestReinforceGridWorld(t *testing.T) {
	e, err := envconfig.Default().Create(3)
	if err != nil {
		t.Fatal(err)
	}
	a, err := reinforce.New(e.Spec(), reinforce.Config{
		UseActionInfo: true,
		UseStateInfo:  true,
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	counts, err := NewVisitCounts(e.Spec(), 1)
	if err != nil {
		t.Fatal(err)
	}

	const episodes, maxLength = 20, 30
	c := trainingConfig(episodes, maxLength)
	c.EntropyScale = Schedule(make([]float64, episodes))
	exp, err := NewReinforce(e, a, c, counts)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := exp.Run()
	if err != nil {
		t.Fatal(err)
	}

	if stats.Len() != episodes || len(stats.EpisodeRewards) != episodes ||
		len(stats.EpisodeActionInfo) != episodes {
		t.Fatalf("run: expected %d episodes, got %d", episodes, stats.Len())
	}
	for i, l := range stats.EpisodeLengths {
		if l < 1 || l > maxLength {
			t.Errorf("run: episode %d: length %d not in [1, %d]", i, l,
				maxLength)
		}
		if stats.EpisodeActionInfo[i] < 0 {
			t.Errorf("run: episode %d: negative action information %v", i,
				stats.EpisodeActionInfo[i])
		}
	}
	if !a.Finite() {
		t.Error("run: expected finite parameters")
	}

	var total float64
	for s := 0; s < e.Spec().States; s++ {
		for g := 0; g < e.Spec().Goals; g++ {
			total += counts.Counts().At(s, g)
		}
	}
	prior := float64(e.Spec().States * e.Spec().Goals)
	if want := prior + float64(stats.TotalSteps()+episodes); total != want {
		t.Errorf("run: expected %v total visits, got %v", want, total)
	}
}

func TestReinforceNonFinite(t *testing.T) {
	e := oneStep{}
	exp, err := NewReinforce(e, nanPolicy{e.Spec()}, trainingConfig(3, 10),
		nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := exp.Run(); !errors.Is(err, ErrNonFinite) {
		t.Errorf("run: expected ErrNonFinite, got %v", err)
	}
}

func TestNewReinforceInvalid(t *testing.T) {
	e := oneStep{}
	stateInfo, err := reinforce.New(e.Spec(), reinforce.Config{
		UseStateInfo: true,
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewReinforce(e, stateInfo, trainingConfig(1, 1),
		nil); !errors.Is(err, agent.ErrMissingCounts) {
		t.Errorf("newReinforce: expected ErrMissingCounts, got %v", err)
	}

	other, err := reinforce.New(env.Spec{States: 3, Goals: 1, Actions: 2},
		reinforce.Config{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewReinforce(e, other, trainingConfig(1, 1), nil); err == nil {
		t.Error("newReinforce: expected error for mismatched specs")
	}

	plain, err := reinforce.New(e.Spec(), reinforce.Config{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	c := trainingConfig(2, 1)
	c.ValueScale = Schedule{1, 2, 3}
	if _, err := NewReinforce(e, plain, c, nil); !errors.Is(err,
		ErrScheduleLength) {
		t.Errorf("newReinforce: expected ErrScheduleLength, got %v", err)
	}

	c = trainingConfig(2, 1)
	c.LearningRate = nil
	if _, err := NewReinforce(e, plain, c, nil); err == nil {
		t.Error("newReinforce: expected error for missing learning rate")
	}
}

func TestReinforceFrozen(t *testing.T) {
	e := oneStep{reward: 1}
	f, err := reinforce.NewFrozen(e.Spec(), []float64{0.5, 0.5, 0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}

	exp, err := NewReinforce(e, f, trainingConfig(2, 5), nil)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := exp.Run()
	if err != nil {
		t.Fatalf("run: expected frozen agent to skip updates, got %v", err)
	}
	if stats.Len() != 2 {
		t.Errorf("run: expected 2 episodes, got %d", stats.Len())
	}
}

func TestVisitCounts(t *testing.T) {
	spec := env.Spec{States: 3, Goals: 2, Actions: 2}
	v, err := NewVisitCounts(spec, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	v.Observe(1, []ts.Transition{
		{State: 0, NextState: 1},
		{State: 1, NextState: 2},
	})
	v.Observe(5, []ts.Transition{{State: 0, NextState: 1}})

	want := [][]float64{{0.5, 1.5}, {0.5, 1.5}, {0.5, 1.5}}
	for s := range want {
		for g := range want[s] {
			if got := v.Counts().At(s, g); got != want[s][g] {
				t.Errorf("observe: (%d, %d): expected %v, got %v", s, g,
					want[s][g], got)
			}
		}
	}

	if _, err := NewVisitCounts(spec, 0); err == nil {
		t.Error("newVisitCounts: expected error for zero prior")
	}
}
