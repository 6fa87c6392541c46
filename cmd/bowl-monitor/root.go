package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/bowl-monitor/internal/config"
	"github.com/sweeney/bowl-monitor/internal/logging"
)

// rootOptions holds global flags and the configuration they resolve to.
type rootOptions struct {
	ConfigPath string
	EnvFile    string

	cfg config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "bowl-monitor",
		Short:        "Water bowl monitor",
		Long:         "Samples a water bowl sensor on each wake, debounces empty readings and notifies when the bowl stays empty.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging()); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultPath, "config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "env file loaded before BOWL_* overrides")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newOnceCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newClearCommand(opts))

	return cmd
}
