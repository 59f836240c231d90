package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-rubric/internal/application"
)

const envPrefix = "RUBRIC"

// app carries the state shared by every subcommand once the root command
// has resolved flags, environment and config file.
type app struct {
	settings *viper.Viper
	logger   *slog.Logger
	config   application.EngineConfig
}

func newRootCmd() *cobra.Command {
	a := &app{settings: viper.New()}

	root := &cobra.Command{
		Use:           "rubric",
		Short:         "Validate analyst evaluations and build session reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "engine config file (YAML)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = a.settings.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = a.settings.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))
	a.settings.SetEnvPrefix(envPrefix)
	a.settings.AutomaticEnv()

	root.AddCommand(
		newValidateCmd(a),
		newReportCmd(a),
		newCategoriesCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.settings.GetBool("debug") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path := a.settings.GetString("config")
	if path == "" {
		a.config = application.DefaultEngineConfig()
		return nil
	}

	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.config = cfg
	a.logger.Debug("config loaded", "path", path, "version", cfg.Version)
	return nil
}
