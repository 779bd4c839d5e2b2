// Package reinforce implements a tabular goal-conditioned softmax policy
// with a tabular value baseline, trained by REINFORCE on a loss which
// can be regularized by the information the policy carries about the
// goal.
package reinforce

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/solver"
	"github.com/samuelfneumann/inforeg/utils/matutils"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Estimator is a tabular policy and value function over (state, goal)
// pairs. The policy at (state, goal) is the softmax of a row of logits.
//
// Logits are stored in a tensor of shape [goals, states, actions] and
// values in a tensor of shape [goals, states].
//
// Estimator is not safe for concurrent use.
type Estimator struct {
	spec          environment.Spec
	useActionInfo bool
	useStateInfo  bool

	logits *solver.Param
	values *solver.Param
	model  []G.ValueGrad
	solver *solver.Solver
}

// New creates a new Estimator for an environment with specification
// spec. The logits and values are initialized using c.InitWFn with
// seed.
func New(spec environment.Spec, c Config, seed uint64) (*Estimator, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	nLogits := spec.Goals * spec.States * spec.Actions
	logits := tensor.New(
		tensor.WithShape(spec.Goals, spec.States, spec.Actions),
		tensor.WithBacking(c.InitWFn.Values(seed, nLogits)),
	)
	values := tensor.New(
		tensor.WithShape(spec.Goals, spec.States),
		tensor.WithBacking(c.InitWFn.Values(seed+1, spec.Goals*spec.States)),
	)

	// Each estimator gets its own solver state
	s, err := c.Solver.Fresh()
	if err != nil {
		return nil, fmt.Errorf("new: could not create solver: %v", err)
	}

	return newEstimator(spec, c.UseActionInfo, c.UseStateInfo, logits,
		values, s)
}

func newEstimator(spec environment.Spec, useActionInfo, useStateInfo bool,
	logits, values *tensor.Dense, s *solver.Solver) (*Estimator, error) {
	logitParam, err := solver.NewParam("policy_logits", logits)
	if err != nil {
		return nil, fmt.Errorf("newEstimator: %v", err)
	}
	valueParam, err := solver.NewParam("value_estimates", values)
	if err != nil {
		return nil, fmt.Errorf("newEstimator: %v", err)
	}

	return &Estimator{
		spec:          spec,
		useActionInfo: useActionInfo,
		useStateInfo:  useStateInfo,
		logits:        logitParam,
		values:        valueParam,
		model:         []G.ValueGrad{logitParam, valueParam},
		solver:        s,
	}, nil
}

// Spec returns the sizes of the state, goal, and action spaces
func (e *Estimator) Spec() environment.Spec {
	return e.spec
}

// UsesActionInfo returns whether the action-information term is part of
// the loss
func (e *Estimator) UsesActionInfo() bool {
	return e.useActionInfo
}

// UsesStateInfo returns whether the state-information term is part of
// the loss
func (e *Estimator) UsesStateInfo() bool {
	return e.useStateInfo
}

// Trainable returns true, the weights of an Estimator change on Update
func (e *Estimator) Trainable() bool {
	return true
}

// Finite returns whether all logits and values are finite
func (e *Estimator) Finite() bool {
	return matutils.AllFinite(e.logits.Data()) &&
		matutils.AllFinite(e.values.Data())
}

// ActionProbabilities returns the softmax of the logits at state for
// goal
func (e *Estimator) ActionProbabilities(state, goal int) ([]float64, error) {
	if err := e.spec.CheckStateGoal(state, goal); err != nil {
		return nil, fmt.Errorf("actionProbabilities: %w", err)
	}
	return probabilities(e.logProbs(state, goal)), nil
}

// Value returns the estimated value of state when pursuing goal
func (e *Estimator) Value(state, goal int) (float64, error) {
	if err := e.spec.CheckStateGoal(state, goal); err != nil {
		return 0, fmt.Errorf("value: %w", err)
	}
	return e.values.Data()[e.valueIndex(state, goal)], nil
}

// ActionInformation returns the KL divergence in bits between the
// policy at (state, goal) and the goal-averaged policy at state. Goals
// are assumed to be uniformly distributed.
func (e *Estimator) ActionInformation(state, goal int) (float64, error) {
	if err := e.spec.CheckStateGoal(state, goal); err != nil {
		return 0, fmt.Errorf("actionInformation: %w", err)
	}

	goalProbs := make([][]float64, e.spec.Goals)
	for g := range goalProbs {
		goalProbs[g] = probabilities(e.logProbs(state, g))
	}
	return actionInformation(goalProbs, goal), nil
}

// Update performs one gradient step on the composite loss of u with
// learning rate u.LearningRate. The loss evaluated before the step is
// returned.
//
// If the state-information term is enabled, u.StateGoalCounts must be
// a [states, goals] matrix and u.NextState a valid state. Otherwise both
// are ignored.
func (e *Estimator) Update(u agent.Update) (float64, error) {
	if err := e.checkUpdate(u); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}

	t := e.loss(u, true)
	if err := e.solver.StepAt(e.model, u.LearningRate); err != nil {
		return 0, fmt.Errorf("update: %v", err)
	}
	return t.total(), nil
}

// Loss returns the composite loss of u at the current weights without
// changing them
func (e *Estimator) Loss(u agent.Update) (float64, error) {
	if err := e.checkUpdate(u); err != nil {
		return 0, fmt.Errorf("loss: %w", err)
	}
	return e.loss(u, false).total(), nil
}

// checkUpdate returns an error if u cannot be used to update e
func (e *Estimator) checkUpdate(u agent.Update) error {
	if err := e.spec.CheckStateGoal(u.State, u.Goal); err != nil {
		return err
	}
	if err := e.spec.CheckAction(u.Action); err != nil {
		return err
	}

	if !e.useStateInfo {
		return nil
	}
	if u.StateGoalCounts == nil {
		return agent.ErrMissingCounts
	}
	if r, c := u.StateGoalCounts.Dims(); r != e.spec.States ||
		c != e.spec.Goals {
		return fmt.Errorf("have (%d, %d), want (%d, %d): %w", r, c,
			e.spec.States, e.spec.Goals, agent.ErrCountShape)
	}
	return e.spec.CheckState(u.NextState)
}

// Parameters returns copies of the logits, of shape [goals, states,
// actions], and the values, of shape [goals, states]
func (e *Estimator) Parameters() (logits, values *tensor.Dense) {
	logits = e.logits.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	values = e.values.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	return logits, values
}

// SetParameters overwrites the logits and values with the argument
// row-major data
func (e *Estimator) SetParameters(logits, values []float64) error {
	if len(logits) != len(e.logits.Data()) {
		return fmt.Errorf("setParameters: expected %d logits, got %d",
			len(e.logits.Data()), len(logits))
	}
	if len(values) != len(e.values.Data()) {
		return fmt.Errorf("setParameters: expected %d values, got %d",
			len(e.values.Data()), len(values))
	}

	copy(e.logits.Data(), logits)
	copy(e.values.Data(), values)
	return nil
}

// snapshot is the serialized form of an Estimator
type snapshot struct {
	Spec          environment.Spec
	UseActionInfo bool
	UseStateInfo  bool
	Logits        []float64
	Values        []float64
	Solver        []byte
}

// GobEncode implements the gob.GobEncoder interface. The solver
// configuration is saved, but not its accumulated state.
func (e *Estimator) GobEncode() ([]byte, error) {
	solverJSON, err := json.Marshal(e.solver)
	if err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode solver: %v", err)
	}

	s := snapshot{
		Spec:          e.spec,
		UseActionInfo: e.useActionInfo,
		UseStateInfo:  e.useStateInfo,
		Logits:        e.logits.Data(),
		Values:        e.values.Data(),
		Solver:        solverJSON,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *Estimator) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := s.Spec.Validate(); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	sv := &solver.Solver{}
	if err := json.Unmarshal(s.Solver, sv); err != nil {
		return fmt.Errorf("gobDecode: could not decode solver: %v", err)
	}

	spec := s.Spec
	if len(s.Logits) != spec.Goals*spec.States*spec.Actions ||
		len(s.Values) != spec.Goals*spec.States {
		return fmt.Errorf("gobDecode: parameters do not match %v", spec)
	}
	logits := tensor.New(
		tensor.WithShape(spec.Goals, spec.States, spec.Actions),
		tensor.WithBacking(s.Logits),
	)
	values := tensor.New(
		tensor.WithShape(spec.Goals, spec.States),
		tensor.WithBacking(s.Values),
	)

	decoded, err := newEstimator(spec, s.UseActionInfo, s.UseStateInfo,
		logits, values, sv)
	if err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	*e = *decoded
	return nil
}

// logitIndex returns the index of the logit of action at (state, goal)
// in the flattened logit tensor
func (e *Estimator) logitIndex(state, goal, action int) int {
	return (goal*e.spec.States+state)*e.spec.Actions + action
}

// valueIndex returns the index of the value of (state, goal) in the
// flattened value tensor
func (e *Estimator) valueIndex(state, goal int) int {
	return goal*e.spec.States + state
}

// logProbs returns the log action probabilities at (state, goal)
func (e *Estimator) logProbs(state, goal int) []float64 {
	start := e.logitIndex(state, goal, 0)
	return logSoftmax(e.logits.Data()[start : start+e.spec.Actions])
}

// logSoftmax returns the log of the softmax of z
func logSoftmax(z []float64) []float64 {
	lse := floats.LogSumExp(z)

	out := make([]float64, len(z))
	for i := range z {
		out[i] = z[i] - lse
	}
	return out
}

// probabilities exponentiates log probabilities
func probabilities(logProbs []float64) []float64 {
	probs := make([]float64, len(logProbs))
	for i := range logProbs {
		probs[i] = math.Exp(logProbs[i])
	}
	return probs
}
