package experiment

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/samuelfneumann/inforeg/agent"
	env "github.com/samuelfneumann/inforeg/environment"
	"github.com/samuelfneumann/inforeg/experiment/trackers"
	ts "github.com/samuelfneumann/inforeg/timestep"
	"github.com/samuelfneumann/inforeg/utils/matutils"
	"github.com/samuelfneumann/inforeg/utils/progressbar"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const progressBarWidth = 40

// stateInformer is implemented by agents whose loss can include the
// state-information term
type stateInformer interface {
	UsesStateInfo() bool
}

// Reinforce is an Experiment that trains an agent with REINFORCE. Each
// episode is run to completion with actions sampled from the agent's
// policy, after which the agent is updated once for every step of the
// episode, in order, using the discounted return following that step.
type Reinforce struct {
	env     env.Environment
	agent   agent.Agent
	config  Config
	counter StateGoalCounter
	ender   env.Ender
	src     rand.Source

	learningRate    Schedule
	entropyScale    Schedule
	valueScale      Schedule
	actionInfoScale Schedule
	stateInfoScale  Schedule

	episode     int
	transitions []ts.Transition

	lengths    *trackers.EpisodeLength
	returns    *trackers.Return
	actionInfo *trackers.ActionInfo
	trackers   []trackers.Tracker
}

// NewReinforce creates and returns a new REINFORCE experiment training
// a on e. The counter provides state-goal visitation counts to agents
// using the state-information term and may be nil otherwise. Any
// trackers given receive every TimeStep of the experiment.
func NewReinforce(e env.Environment, a agent.Agent, c Config,
	counter StateGoalCounter, t ...trackers.Tracker) (*Reinforce, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newReinforce: %w", err)
	}

	if e.Spec() != a.Spec() {
		return nil, fmt.Errorf("newReinforce: environment %v and agent %v "+
			"have different specs", e.Spec(), a.Spec())
	}

	if s, ok := a.(stateInformer); ok && s.UsesStateInfo() &&
		a.Trainable() && counter == nil {
		return nil, fmt.Errorf("newReinforce: %w", agent.ErrMissingCounts)
	}

	r := &Reinforce{
		env:        e,
		agent:      a,
		config:     c,
		counter:    counter,
		ender:      env.NewStepLimit(c.MaxEpisodeLength),
		src:        rand.NewSource(c.Seed),
		lengths:    trackers.NewEpisodeLength(""),
		returns:    trackers.NewReturn(""),
		actionInfo: trackers.NewActionInfo(""),
		trackers:   t,
	}

	schedules := []struct {
		in  Schedule
		out *Schedule
	}{
		{c.LearningRate, &r.learningRate},
		{c.EntropyScale, &r.entropyScale},
		{c.ValueScale, &r.valueScale},
		{c.ActionInfoScale, &r.actionInfoScale},
		{c.StateInfoScale, &r.stateInfoScale},
	}
	for _, s := range schedules {
		var err error
		if *s.out, err = NewSchedule(s.in, c.NumEpisodes); err != nil {
			return nil, fmt.Errorf("newReinforce: %w", err)
		}
	}

	return r, nil
}

// Agent returns the agent being trained
func (r *Reinforce) Agent() agent.Agent {
	return r.agent
}

// Register registers a trackers.Tracker with the Experiment so that
// data generated during the experiment can be tracked and saved
func (r *Reinforce) Register(t trackers.Tracker) {
	r.trackers = append(r.trackers, t)
}

// Stats returns the statistics of all episodes run so far
func (r *Reinforce) Stats() Stats {
	return Stats{
		EpisodeLengths:    r.lengths.Data(),
		EpisodeRewards:    r.returns.Data(),
		EpisodeActionInfo: r.actionInfo.Data(),
	}
}

// Run runs all remaining episodes of the experiment
func (r *Reinforce) Run() (Stats, error) {
	var bar *progressbar.ManualProgressBar
	if r.config.Verbose {
		bar = progressbar.NewManualProgressBar(os.Stderr, progressBarWidth,
			r.config.NumEpisodes)
		defer bar.Close()
	}

	for r.episode < r.config.NumEpisodes {
		if err := r.RunEpisode(); err != nil {
			return r.Stats(), fmt.Errorf("run: %w", err)
		}

		if bar != nil {
			returns := r.returns.Data()
			bar.Increment()
			bar.SetMessage("Episode %d/%d (%.2f)", r.episode,
				r.config.NumEpisodes, returns[len(returns)-1])
			bar.Display()
		}
	}

	return r.Stats(), nil
}

// RunEpisode runs a single episode of the experiment and then updates
// the agent using the episode
func (r *Reinforce) RunEpisode() error {
	if r.episode >= r.config.NumEpisodes {
		return fmt.Errorf("runEpisode: %w", ErrFinished)
	}
	spec := r.agent.Spec()

	step, err := r.env.Reset()
	if err != nil {
		return fmt.Errorf("runEpisode: could not reset environment: %w",
			err)
	}
	if err := spec.CheckStateGoal(step.State, step.Goal); err != nil {
		return fmt.Errorf("runEpisode: reset: %w", err)
	}
	goal := step.Goal
	step.StepType = ts.First
	step.Number = 0
	r.track(step)

	r.transitions = r.transitions[:0]
	for !step.Last() {
		probs, err := r.agent.ActionProbabilities(step.State, goal)
		if err != nil {
			return fmt.Errorf("runEpisode: %w", err)
		}
		if !matutils.AllFinite(probs) {
			return fmt.Errorf("runEpisode: episode %d: state %d: %v: %w",
				r.episode, step.State, probs, ErrNonFinite)
		}

		info, err := r.agent.ActionInformation(step.State, goal)
		if err != nil {
			return fmt.Errorf("runEpisode: %w", err)
		}

		action := int(distuv.NewCategorical(probs, r.src).Rand())
		next, done, err := r.env.Step(action)
		if err != nil {
			return fmt.Errorf("runEpisode: could not step environment: %w",
				err)
		}
		if err := spec.CheckState(next.State); err != nil {
			return fmt.Errorf("runEpisode: step: %w", err)
		}

		next.Goal = goal
		next.ActionInfo = info
		next.Number = len(r.transitions) + 1
		if done {
			next.StepType = ts.Last
		} else {
			next.StepType = ts.Mid
			r.ender.End(&next)
		}

		r.transitions = append(r.transitions, ts.Transition{
			State:     step.State,
			Action:    action,
			Reward:    next.Reward,
			NextState: next.State,
		})
		r.track(next)
		step = next
	}

	loss, err := r.update(goal)
	if err != nil {
		return fmt.Errorf("runEpisode: episode %d: %w", r.episode, err)
	}

	if glog.V(1) {
		returns := r.returns.Data()
		glog.Infof("episode %d/%d: goal %d: length %d: return %.3f: "+
			"loss %.4f", r.episode+1, r.config.NumEpisodes, goal,
			len(r.transitions), returns[len(returns)-1], loss)
	}

	r.episode++
	return nil
}

// update updates the agent once for every transition of the last
// episode, returning the summed pre-update losses
func (r *Reinforce) update(goal int) (float64, error) {
	if r.counter != nil {
		r.counter.Observe(goal, r.transitions)
	}
	if !r.agent.Trainable() {
		return 0, nil
	}

	rewards := make([]float64, len(r.transitions))
	for i, t := range r.transitions {
		rewards[i] = t.Reward
	}
	returns := DiscountedReturns(rewards, r.config.Discount)

	u := agent.Update{
		Goal:            goal,
		LearningRate:    r.learningRate[r.episode],
		EntropyScale:    r.entropyScale[r.episode],
		ValueScale:      r.valueScale[r.episode],
		ActionInfoScale: r.actionInfoScale[r.episode],
		StateInfoScale:  r.stateInfoScale[r.episode],
	}
	if r.counter != nil {
		u.StateGoalCounts = r.counter.Counts()
	}

	var total float64
	for i, t := range r.transitions {
		u.State = t.State
		u.Action = t.Action
		u.NextState = t.NextState
		u.Return = returns[i]

		loss, err := r.agent.Update(u)
		if err != nil {
			return total, fmt.Errorf("update: step %d: %w", i, err)
		}
		total += loss
	}
	return total, nil
}

// Save saves the data cached by all registered Trackers to disk
func (r *Reinforce) Save() error {
	for _, t := range r.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track sends a TimeStep to every Tracker
func (r *Reinforce) track(t ts.TimeStep) {
	r.lengths.Track(t)
	r.returns.Track(t)
	r.actionInfo.Track(t)
	for _, tracker := range r.trackers {
		tracker.Track(t)
	}
}
