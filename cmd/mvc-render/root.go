package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-mvc/pkg/config"
)

type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCmd(prompt prompter) *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "mvc-render",
		Short: "Render views and inspect parameter bindings",
		Long: `mvc-render drives the view engine registry from the command line.

Configuration is read from --config (YAML or TOML) and MVC_* environment
variables, the same way the HTTP server reads it.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (.yaml, .yml, .toml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newRenderCmd(flags, prompt))
	cmd.AddCommand(newParamsCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd(surveyPrompt).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (f *globalFlags) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if level := strings.TrimSpace(f.logLevel); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
