package gridworld

import (
	"errors"
	"testing"

	"github.com/samuelfneumann/inforeg/environment"
)

// newTestGrid returns a 3x3 gridworld with goal 0 in the top left
// corner and goal 1 in the top right corner. The goal distribution
// always selects goal 0.
func newTestGrid(t *testing.T) *GridWorld {
	goals, err := NewGoals([]int{0, 2}, 3, 3, 1.0, -1.0, 0.0, -0.1)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(3, 3, goals, []float64{1.0, 0.0}, 0.0, 1)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestSpec(t *testing.T) {
	g := newTestGrid(t)
	spec := g.Spec()
	if spec.States != 9 || spec.Goals != 2 || spec.Actions != 4 {
		t.Errorf("spec: expected (9, 2, 4), got %v", spec)
	}
}

func TestResetAvoidsGoals(t *testing.T) {
	g := newTestGrid(t)

	for i := 0; i < 100; i++ {
		step, err := g.Reset()
		if err != nil {
			t.Fatal(err)
		}
		if !step.First() {
			t.Errorf("reset: expected first step, got %v", step.StepType)
		}
		if g.IsGoal(step.State) {
			t.Errorf("reset: started in goal cell %d", step.State)
		}
		if step.Goal != 0 {
			t.Errorf("reset: expected goal 0, got %d", step.Goal)
		}
	}
}

func TestStepRewards(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		action   int
		next     int
		reward   float64
		terminal bool
	}{
		{"correctGoal", 1, Left, 0, 1.0, true},
		{"incorrectGoal", 1, Right, 2, -1.0, true},
		{"wall", 1, Up, 1, -0.1, false},
		{"step", 1, Down, 4, 0.0, false},
		{"stepUp", 4, Up, 1, 0.0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := newTestGrid(t)
			if _, err := g.Reset(); err != nil {
				t.Fatal(err)
			}
			g.position = test.start

			step, done, err := g.Step(test.action)
			if err != nil {
				t.Fatal(err)
			}
			if step.State != test.next {
				t.Errorf("state: expected %d, got %d", test.next, step.State)
			}
			if step.Reward != test.reward {
				t.Errorf("reward: expected %v, got %v", test.reward,
					step.Reward)
			}
			if done != test.terminal || step.Last() != test.terminal {
				t.Errorf("terminal: expected %v, got %v", test.terminal, done)
			}
			if step.Number != 1 {
				t.Errorf("number: expected 1, got %d", step.Number)
			}
		})
	}
}

func TestStepAfterLast(t *testing.T) {
	g := newTestGrid(t)
	if _, err := g.Reset(); err != nil {
		t.Fatal(err)
	}
	g.position = 1

	if _, _, err := g.Step(Left); err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Step(Left); err == nil {
		t.Error("step: expected error when stepping after episode end")
	}
}

func TestStepInvalidAction(t *testing.T) {
	g := newTestGrid(t)
	if _, err := g.Reset(); err != nil {
		t.Fatal(err)
	}

	_, _, err := g.Step(numActions)
	if !errors.Is(err, environment.ErrOutOfBounds) {
		t.Errorf("step: expected ErrOutOfBounds, got %v", err)
	}
}

func TestNewGoalsInvalid(t *testing.T) {
	tests := []struct {
		name string
		locs []int
	}{
		{"empty", []int{}},
		{"outside", []int{9}},
		{"negative", []int{-1}},
		{"duplicate", []int{1, 1}},
		{"full", []int{0, 1, 2, 3, 4, 5, 6, 7, 8}},
	}

	for _, test := range tests {
		if _, err := NewGoals(test.locs, 3, 3, 1, -1, 0, 0); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
