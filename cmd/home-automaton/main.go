// Command home-automaton runs the alarm and thermostat machines against the
// GPIO lines and ADC of the host, and publishes their transitions to MQTT.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/home-automaton/internal/config"
)

// Build metadata, overridden via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
	logLevel   string
	fake       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "home-automaton",
		Short: "Run the alarm and thermostat controller.",
		Long: `Runs the intrusion alarm and the heating thermostat.

The alarm switches on when the motion sensor reports presence and off after a
full press and release of the button. The thermostat heats while the sampled
temperature is below the threshold. Transitions are published to MQTT and
shown on the HTTP status page.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	root.PersistentFlags().BoolVar(&opts.fake, "fake", false, "run on an in-memory surface instead of GPIO and ADC")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information.",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "home-automaton %s (commit %s)\n", version, commit)
			},
		},
		newConfigCmd(opts),
		&cobra.Command{
			Use:   "print-state",
			Short: "Read the button, motion sensor and temperature once and exit.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printState(cmd.OutOrStdout(), opts)
			},
		},
	)

	return root
}

func newConfigCmd(opts *options) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the --config path.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.OutOrStdout(), opts.configPath, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}
