package reinforce

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const tolerance = 1e-9

func newTestEstimator(t *testing.T, spec environment.Spec, actionInfo,
	stateInfo bool) *Estimator {
	s, err := solver.NewVanilla(1.0, 1, -1.0)
	if err != nil {
		t.Fatal(err)
	}

	c := Config{
		UseActionInfo: actionInfo,
		UseStateInfo:  stateInfo,
		Solver:        s,
	}
	e, err := New(spec, c, 1)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func zeroParameters(t *testing.T, e *Estimator) {
	spec := e.Spec()
	logits := make([]float64, spec.Goals*spec.States*spec.Actions)
	values := make([]float64, spec.Goals*spec.States)
	if err := e.SetParameters(logits, values); err != nil {
		t.Fatal(err)
	}
}

func TestActionProbabilities(t *testing.T) {
	spec := environment.Spec{States: 4, Goals: 3, Actions: 5}
	e := newTestEstimator(t, spec, true, true)

	for s := 0; s < spec.States; s++ {
		for g := 0; g < spec.Goals; g++ {
			probs, err := e.ActionProbabilities(s, g)
			if err != nil {
				t.Fatal(err)
			}
			if len(probs) != spec.Actions {
				t.Errorf("actionProbabilities: expected %d actions, got %d",
					spec.Actions, len(probs))
			}
			if sum := floats.Sum(probs); math.Abs(sum-1) > tolerance {
				t.Errorf("actionProbabilities: sum to %v", sum)
			}
			if floats.Min(probs) < 0 || floats.Max(probs) > 1 {
				t.Errorf("actionProbabilities: outside [0, 1]: %v", probs)
			}
		}
	}
}

func TestQueriesIdempotent(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 2, Actions: 3}
	e := newTestEstimator(t, spec, true, false)

	p1, _ := e.ActionProbabilities(1, 1)
	v1, _ := e.Value(1, 1)
	i1, _ := e.ActionInformation(1, 1)

	p2, _ := e.ActionProbabilities(1, 1)
	v2, _ := e.Value(1, 1)
	i2, _ := e.ActionInformation(1, 1)

	if !floats.Equal(p1, p2) || v1 != v2 || i1 != i2 {
		t.Error("queries: repeated queries returned different results")
	}
}

func TestActionInformation(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 3, Actions: 4}
	e := newTestEstimator(t, spec, true, false)

	// Random logits give non-negative information
	for s := 0; s < spec.States; s++ {
		for g := 0; g < spec.Goals; g++ {
			info, err := e.ActionInformation(s, g)
			if err != nil {
				t.Fatal(err)
			}
			if info < -tolerance {
				t.Errorf("actionInformation: expected >= 0, got %v", info)
			}
		}
	}

	// Goal-independent logits give no information
	row := []float64{0.3, -1.2, 2.0, 0.1}
	logits := make([]float64, 0, spec.Goals*spec.States*spec.Actions)
	for i := 0; i < spec.Goals*spec.States; i++ {
		logits = append(logits, row...)
	}
	values := make([]float64, spec.Goals*spec.States)
	if err := e.SetParameters(logits, values); err != nil {
		t.Fatal(err)
	}

	info, err := e.ActionInformation(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(info) > tolerance {
		t.Errorf("actionInformation: expected 0, got %v", info)
	}
}

func TestOutOfBounds(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 2, Actions: 2}
	e := newTestEstimator(t, spec, false, false)

	if _, err := e.ActionProbabilities(2, 0); !errors.Is(err,
		environment.ErrOutOfBounds) {
		t.Errorf("actionProbabilities: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := e.Value(0, -1); !errors.Is(err,
		environment.ErrOutOfBounds) {
		t.Errorf("value: expected ErrOutOfBounds, got %v", err)
	}
	if _, err := e.ActionInformation(0, 2); !errors.Is(err,
		environment.ErrOutOfBounds) {
		t.Errorf("actionInformation: expected ErrOutOfBounds, got %v", err)
	}

	u := agent.Update{State: 0, Goal: 0, Action: 2, LearningRate: 0.1}
	if _, err := e.Update(u); !errors.Is(err, environment.ErrOutOfBounds) {
		t.Errorf("update: expected ErrOutOfBounds, got %v", err)
	}
}

func TestUpdateCountErrors(t *testing.T) {
	spec := environment.Spec{States: 3, Goals: 2, Actions: 2}
	e := newTestEstimator(t, spec, false, true)

	u := agent.Update{State: 0, Goal: 0, Action: 1, LearningRate: 0.1,
		StateInfoScale: 1, NextState: 1}
	if _, err := e.Update(u); !errors.Is(err, agent.ErrMissingCounts) {
		t.Errorf("update: expected ErrMissingCounts, got %v", err)
	}

	u.StateGoalCounts = mat.NewDense(2, 3, nil)
	if _, err := e.Update(u); !errors.Is(err, agent.ErrCountShape) {
		t.Errorf("update: expected ErrCountShape, got %v", err)
	}

	u.StateGoalCounts = mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
	u.NextState = 3
	if _, err := e.Update(u); !errors.Is(err, environment.ErrOutOfBounds) {
		t.Errorf("update: expected ErrOutOfBounds, got %v", err)
	}
}

func TestDisabledTermsLoss(t *testing.T) {
	spec := environment.Spec{States: 1, Goals: 1, Actions: 2}
	e := newTestEstimator(t, spec, false, false)
	zeroParameters(t, e)

	// Counts and next state are ignored when state information is off
	u := agent.Update{
		State:           0,
		Goal:            0,
		Action:          0,
		Return:          1.0,
		LearningRate:    0.1,
		EntropyScale:    0.1,
		ValueScale:      0.5,
		ActionInfoScale: 100,
		StateInfoScale:  100,
		NextState:       -1,
	}

	// pg = -log(0.5) * (1 - 0), entropy = -0.1 * ln 2, value = 0.5 * 1
	want := 0.9*math.Ln2 + 0.5

	loss, err := e.Loss(u)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-want) > tolerance {
		t.Errorf("loss: expected %v, got %v", want, loss)
	}

	preStep, err := e.Update(u)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(preStep-want) > tolerance {
		t.Errorf("update: expected pre-step loss %v, got %v", want, preStep)
	}
}

func TestStateInfoLoss(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 2, Actions: 2}
	e := newTestEstimator(t, spec, false, true)
	zeroParameters(t, e)

	counts := mat.NewDense(2, 2, []float64{
		3, 1,
		1, 3,
	})
	u := agent.Update{
		State:           0,
		Goal:            0,
		Action:          0,
		StateInfoScale:  1.5,
		StateGoalCounts: counts,
		NextState:       1,
	}

	// Importance weights (1, 1/3) and next state ratio 1/2 give log
	// state odds of -2/3 bits
	want := 1.5 * 2.0 / 3.0
	loss, err := e.Loss(u)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-want) > tolerance {
		t.Errorf("loss: expected %v, got %v", want, loss)
	}
}

func TestStateInfoSingleGoal(t *testing.T) {
	spec := environment.Spec{States: 3, Goals: 1, Actions: 3}
	e := newTestEstimator(t, spec, false, true)

	counts := mat.NewDense(3, 1, []float64{2, 5, 1})
	v, err := e.Value(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	u := agent.Update{
		State:           1,
		Goal:            0,
		Action:          2,
		Return:          v,
		LearningRate:    0.5,
		StateInfoScale:  2,
		StateGoalCounts: counts,
		NextState:       0,
	}

	before, _ := e.Parameters()
	loss, err := e.Update(u)
	if err != nil {
		t.Fatal(err)
	}
	after, _ := e.Parameters()

	if math.Abs(loss) > tolerance {
		t.Errorf("update: expected zero loss with one goal, got %v", loss)
	}
	if !floats.EqualApprox(before.Data().([]float64),
		after.Data().([]float64), tolerance) {
		t.Error("update: logits changed with zero gradient")
	}
}

func TestGradientFiniteDifference(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 3, Actions: 3}
	e := newTestEstimator(t, spec, true, false)

	u := agent.Update{
		State:           1,
		Goal:            2,
		Action:          1,
		Return:          1.3,
		EntropyScale:    0.3,
		ValueScale:      0.7,
		ActionInfoScale: 0.5,
	}

	e.loss(u, true)
	grad := append([]float64(nil), e.logits.GradData()...)
	valueGrad := append([]float64(nil), e.values.GradData()...)

	const h = 1e-6
	logits := e.logits.Data()
	for g := 0; g < spec.Goals; g++ {
		for a := 0; a < spec.Actions; a++ {
			i := e.logitIndex(u.State, g, a)
			orig := logits[i]

			logits[i] = orig + h
			plus := e.loss(u, false).total()
			logits[i] = orig - h
			minus := e.loss(u, false).total()
			logits[i] = orig

			numerical := (plus - minus) / (2 * h)
			if math.Abs(numerical-grad[i]) > 1e-5 {
				t.Errorf("gradient: logit (%d, %d): expected %v, got %v", g,
					a, numerical, grad[i])
			}
		}
	}

	// Logits at other states have no gradient
	for a := 0; a < spec.Actions; a++ {
		if grad[e.logitIndex(0, 0, a)] != 0 {
			t.Errorf("gradient: expected zero gradient at other state")
		}
	}

	v, _ := e.Value(u.State, u.Goal)
	want := 2 * u.ValueScale * (v - u.Return)
	if got := valueGrad[e.valueIndex(u.State, u.Goal)]; math.Abs(got-want) >
		tolerance {
		t.Errorf("gradient: value: expected %v, got %v", want, got)
	}
}

func TestUpdateLearningRate(t *testing.T) {
	spec := environment.Spec{States: 2, Goals: 2, Actions: 3}
	e := newTestEstimator(t, spec, true, false)

	u := agent.Update{
		State:           0,
		Goal:            1,
		Action:          2,
		Return:          2.0,
		LearningRate:    0.25,
		EntropyScale:    0.1,
		ValueScale:      0.5,
		ActionInfoScale: 0.2,
	}

	e.loss(u, true)
	grad := append([]float64(nil), e.logits.GradData()...)
	before, _ := e.Parameters()

	if _, err := e.Update(u); err != nil {
		t.Fatal(err)
	}
	after, _ := e.Parameters()

	// Vanilla gradient descent at the learning rate of the update
	want := before.Data().([]float64)
	floats.AddScaled(want, -u.LearningRate, grad)
	if !floats.EqualApprox(want, after.Data().([]float64), tolerance) {
		t.Errorf("update: expected logits %v, got %v", want, after.Data())
	}
}

func TestUpdateIncreasesActionProbability(t *testing.T) {
	spec := environment.Spec{States: 1, Goals: 2, Actions: 4}
	e := newTestEstimator(t, spec, false, false)
	zeroParameters(t, e)

	u := agent.Update{
		State:        0,
		Goal:         1,
		Action:       3,
		Return:       1.0,
		LearningRate: 0.1,
	}

	before, _ := e.ActionProbabilities(0, 1)
	for i := 0; i < 10; i++ {
		if _, err := e.Update(u); err != nil {
			t.Fatal(err)
		}
	}
	after, _ := e.ActionProbabilities(0, 1)

	if after[3] <= before[3] {
		t.Errorf("update: expected probability of action to increase from "+
			"%v, got %v", before[3], after[3])
	}
	if !e.Finite() {
		t.Error("update: expected finite parameters")
	}
}

func TestUpdateDefaultAdam(t *testing.T) {
	spec := environment.Spec{States: 1, Goals: 1, Actions: 2}
	e, err := New(spec, Config{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	zeroParameters(t, e)

	u := agent.Update{
		State:        0,
		Goal:         0,
		Action:       1,
		Return:       1.0,
		LearningRate: 0.01,
		ValueScale:   1.0,
	}
	if _, err := e.Update(u); err != nil {
		t.Fatal(err)
	}

	// The first Adam step moves every weight with a non-zero gradient by
	// the learning rate against the sign of its gradient
	v, err := e.Value(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-u.LearningRate) > 1e-6 {
		t.Errorf("update: expected value %v, got %v", u.LearningRate, v)
	}

	logits, _ := e.Parameters()
	want := []float64{-u.LearningRate, u.LearningRate}
	if !floats.EqualApprox(want, logits.Data().([]float64), 1e-6) {
		t.Errorf("update: expected logits %v, got %v", want, logits.Data())
	}
}

func TestFinite(t *testing.T) {
	spec := environment.Spec{States: 1, Goals: 1, Actions: 2}
	e := newTestEstimator(t, spec, false, false)
	if !e.Finite() {
		t.Error("finite: expected initial parameters to be finite")
	}

	if err := e.SetParameters([]float64{0, math.NaN()}, []float64{0}); err !=
		nil {
		t.Fatal(err)
	}
	if e.Finite() {
		t.Error("finite: expected NaN logit to be detected")
	}
}

func TestGobRoundTrip(t *testing.T) {
	spec := environment.Spec{States: 3, Goals: 2, Actions: 2}
	e := newTestEstimator(t, spec, true, true)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		t.Fatal(err)
	}

	var decoded Estimator
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Spec() != spec {
		t.Errorf("gob: expected spec %v, got %v", spec, decoded.Spec())
	}
	if !decoded.UsesActionInfo() || !decoded.UsesStateInfo() {
		t.Error("gob: information flags not restored")
	}

	wantLogits, wantValues := e.Parameters()
	gotLogits, gotValues := decoded.Parameters()
	if !floats.Equal(wantLogits.Data().([]float64),
		gotLogits.Data().([]float64)) ||
		!floats.Equal(wantValues.Data().([]float64),
			gotValues.Data().([]float64)) {
		t.Error("gob: parameters not restored")
	}
	if decoded.solver.Type != solver.Vanilla {
		t.Errorf("gob: expected Vanilla solver, got %v", decoded.solver.Type)
	}
}

func TestNewSeeded(t *testing.T) {
	spec := environment.Spec{States: 3, Goals: 2, Actions: 2}

	e1, err := New(spec, Config{}, 3)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := New(spec, Config{}, 3)
	if err != nil {
		t.Fatal(err)
	}

	l1, _ := e1.Parameters()
	l2, _ := e2.Parameters()
	if !floats.Equal(l1.Data().([]float64), l2.Data().([]float64)) {
		t.Error("new: same seed gave different logits")
	}
	if e1.solver == e2.solver {
		t.Error("new: estimators share solver state")
	}
}
