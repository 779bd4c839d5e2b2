package cmd

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/samuelfneumann/inforeg/agent/tabular/reinforce"
	"github.com/samuelfneumann/inforeg/environment/envconfig"
	"github.com/samuelfneumann/inforeg/experiment"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

// EvaluateCommand returns the command which runs a saved agent with
// its parameters frozen
func EvaluateCommand() *cobra.Command {
	var checkpoint string
	var episodes int
	command := &cobra.Command{
		Use:   "evaluate",
		Short: "Run a trained agent without updating it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if episodes > 0 {
				c.Training.NumEpisodes = episodes
			}

			stats, err := Evaluate(checkpoint, c.Environment, c.Training)
			if err != nil {
				return err
			}
			fmt.Printf("episodes: %d  mean reward: %.3f  mean length: %.2f  "+
				"mean action information: %.3f bits\n", stats.Len(),
				stat.Mean(stats.EpisodeRewards, nil),
				stat.Mean(stats.Float64s(), nil),
				stat.Mean(stats.EpisodeActionInfo, nil))
			return nil
		},
	}
	command.Flags().StringVar(&checkpoint, "checkpoint", "",
		"Saved agent to evaluate")
	command.Flags().IntVarP(&episodes, "episodes", "e", 0,
		"Number of episodes, overrides the configuration")
	command.MarkFlagRequired("checkpoint")
	return command
}

// Evaluate runs the agent saved at checkpoint on the environment with
// its parameters frozen. Only the episode settings of training are
// used.
func Evaluate(checkpoint string, e envconfig.Config,
	training experiment.Config) (experiment.Stats, error) {
	env, err := e.Create(training.Seed)
	if err != nil {
		return experiment.Stats{}, fmt.Errorf("evaluate: %v", err)
	}

	frozen, err := reinforce.FrozenConfig{Checkpoint: checkpoint}.
		CreateAgent(env, training.Seed)
	if err != nil {
		return experiment.Stats{}, fmt.Errorf("evaluate: %v", err)
	}

	exp, err := experiment.NewReinforce(env, frozen, training, nil)
	if err != nil {
		return experiment.Stats{}, fmt.Errorf("evaluate: %v", err)
	}

	stats, err := exp.Run()
	if err != nil {
		return stats, fmt.Errorf("evaluate: %w", err)
	}
	glog.V(1).Infof("evaluated %v for %d episodes", checkpoint, stats.Len())
	return stats, nil
}
