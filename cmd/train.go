package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/samuelfneumann/inforeg/agent"
	"github.com/samuelfneumann/inforeg/config"
	"github.com/samuelfneumann/inforeg/experiment"
	"github.com/samuelfneumann/inforeg/experiment/checkpointer"
	"github.com/samuelfneumann/inforeg/experiment/trackers"
	"github.com/samuelfneumann/inforeg/plotting"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// Files written to the results directory
const (
	ConfigFile     = "config.yaml"
	CheckpointFile = "alice.bin"
	ErrorLogFile   = "errors.log"
	FailedDir      = "failed"
	FailedPrefix   = "alice_attempt"
	LengthsFile    = "episode_lengths.bin"
	ReturnsFile    = "episode_rewards.bin"
	ActionInfoFile = "episode_action_info.bin"
)

// TrainCommand returns the command which trains an agent
func TrainCommand() *cobra.Command {
	var seed int64
	command := &cobra.Command{
		Use:   "train",
		Short: "Train an agent, retrying until its parameters stay finite",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				c.Training.Seed = uint64(seed)
			}
			return Train(c)
		},
	}
	command.Flags().Int64Var(&seed, "seed", 0,
		"Seed of the first attempt, overrides the configuration")
	return command
}

// loadConfig loads the configuration given on the command line
func loadConfig() (config.Config, error) {
	if configPath == "" {
		c := config.Default()
		return c, c.Validate()
	}
	return config.FromYaml(configPath)
}

// Train runs the training described by c and saves its results
func Train(c config.Config) error {
	dir := c.Results.Dir
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("train: could not create results directory: %v",
			err)
	}
	if err := c.Save(filepath.Join(dir, ConfigFile)); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	retry := c.Retry
	retry.OnFailure = onFailure(dir)

	factory := func(attempt int) (experiment.Experiment, error) {
		return newExperiment(c, attempt)
	}
	exp, stats, err := experiment.RunUntilFinite(factory, retry)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if err := exp.Save(); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	a := exp.Agent()
	if s, ok := a.(checkpointer.Serializable); ok {
		check := checkpointer.NewFile(s, checkpointer.Fixed(
			filepath.Join(dir, CheckpointFile)))
		if err := check.Checkpoint(); err != nil {
			return fmt.Errorf("train: %v", err)
		}
		glog.Infof("saved agent to %v", check.Last())
	}

	report(stats, c.Results.Threshold)

	if c.Results.Plots {
		if err := plot(a, stats, c); err != nil {
			return fmt.Errorf("train: %v", err)
		}
	}
	return nil
}

// newExperiment creates the experiment of an attempt. Each attempt is
// seeded differently so that agents are freshly initialized.
func newExperiment(c config.Config, attempt int) (experiment.Experiment,
	error) {
	seed := c.Training.Seed + uint64(attempt-1)

	env, err := c.Environment.Create(seed)
	if err != nil {
		return nil, err
	}
	a, err := c.Agent.CreateAgent(env, seed)
	if err != nil {
		return nil, err
	}
	training := c.Training.WithDefaults()
	training.Seed = seed
	counts, err := experiment.NewVisitCounts(env.Spec(), training.CountPrior)
	if err != nil {
		return nil, err
	}

	dir := c.Results.Dir
	return experiment.NewReinforce(env, a, training, counts,
		trackers.NewEpisodeLength(filepath.Join(dir, LengthsFile)),
		trackers.NewReturn(filepath.Join(dir, ReturnsFile)),
		trackers.NewActionInfo(filepath.Join(dir, ActionInfoFile)),
	)
}

// onFailure returns the retry hook of Train. Every failed attempt is
// appended to the error log of dir and, if its agent can be serialized,
// the diverged agent is checkpointed into the failed subdirectory of
// dir, numbered by attempt.
func onFailure(dir string) func(int, experiment.Experiment, error) {
	// Failures are reported for consecutive attempts starting at 1
	next := checkpointer.FilenameEnumerator(0,
		filepath.Join(dir, FailedDir, FailedPrefix), ".bin")

	return func(attempt int, exp experiment.Experiment, err error) {
		if logErr := appendError(filepath.Join(dir, ErrorLogFile), attempt,
			err); logErr != nil {
			glog.Errorf("could not log failure of attempt %d: %v", attempt,
				logErr)
		}

		filename := next()
		if exp == nil {
			return
		}
		s, ok := exp.Agent().(checkpointer.Serializable)
		if !ok {
			return
		}
		check := checkpointer.NewFile(s, checkpointer.Fixed(filename))
		if checkErr := check.Checkpoint(); checkErr != nil {
			glog.Errorf("could not save agent of attempt %d: %v", attempt,
				checkErr)
			return
		}
		glog.Infof("saved diverged agent of attempt %d to %v", attempt,
			check.Last())
	}
}

// appendError appends the failure of an attempt to the file at path
func appendError(path string, attempt int, err error) error {
	file, openErr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644)
	if openErr != nil {
		return openErr
	}
	defer file.Close()

	_, writeErr := fmt.Fprintf(file, "%v attempt %d: %v\n",
		time.Now().Format(time.RFC3339), attempt, err)
	return writeErr
}

// report logs summary statistics of a run
func report(stats experiment.Stats, threshold float64) {
	episode, steps, ok := experiment.FirstTimeTo(stats.EpisodeLengths,
		stats.EpisodeRewards, threshold)
	if ok {
		glog.Infof("first reached reward %v in episode %d after %d steps",
			threshold, episode+1, steps)
	} else {
		glog.Infof("never reached reward %v in %d steps", threshold, steps)
	}
	glog.Infof("trained for %d episodes, %d steps", stats.Len(),
		stats.TotalSteps())
}

// plot writes figures of the statistics and of the agent's per-state
// values and action information
func plot(a agent.Agent, stats experiment.Stats, c config.Config) error {
	dir := c.Results.Dir
	if err := plotting.EpisodeStats(stats, dir, c.Results.Window); err != nil {
		return err
	}

	tables := map[string]func() (*mat.Dense, error){
		"action_info": func() (*mat.Dense, error) {
			return agent.ActionInfoTable(a)
		},
		"values": func() (*mat.Dense, error) {
			return agent.ValueTable(a)
		},
	}

	env := c.Environment
	for name, table := range tables {
		t, err := table()
		if errors.Is(err, agent.ErrNoValue) {
			continue
		} else if err != nil {
			return err
		}

		marked, err := plotting.MarkGoals(t, env.GoalLocs)
		if err != nil {
			return err
		}
		for g := range env.GoalLocs {
			path := filepath.Join(dir, fmt.Sprintf("%v_goal%d.png", name, g))
			title := fmt.Sprintf("%v (goal %d)", name, g)
			if err := plotting.Table(marked, env.Rows, env.Cols, g, title,
				path); err != nil {
				return err
			}
		}
	}
	return nil
}
