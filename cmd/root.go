// Package cmd implements the command line interface for training and
// evaluating agents
package cmd

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var configPath string

// GetRootCommand returns the root command, with the train and evaluate
// subcommands added
func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "inforeg",
		Short: "Train information-regularized tabular REINFORCE agents",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// glog reads its flags from the standard flag set
			return flag.CommandLine.Parse(nil)
		},
		SilenceUsage: true,
	}

	// Log to stderr unless told otherwise
	flag.Set("logtostderr", "true")
	rootCommand.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file, the default configuration is used if empty")

	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(EvaluateCommand())
	return rootCommand
}

// Execute runs the root command
func Execute() error {
	defer glog.Flush()
	return GetRootCommand().Execute()
}
