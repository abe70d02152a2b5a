package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/campus-planner/internal/config"
	"github.com/example/campus-planner/internal/logging"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
	tokenFile  string
	logOutput  io.Writer
}

func (o *rootOptions) load(requireSecret bool) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile:    o.configFile,
		EnvFile:       o.envFile,
		RequireSecret: requireSecret,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cfg.LogLevel, o.logOutput)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func (o *rootOptions) tokenPath() string {
	if o.tokenFile != "" {
		return o.tokenFile
	}
	return config.DefaultTokenPath()
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	opts := &rootOptions{logOutput: logOutput}

	root := &cobra.Command{
		Use:           "campus",
		Short:         "Campus planner: timetable, attendance, tasks and focus timer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./campus.yaml when present)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file (default ./.env when present)")
	root.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "where login stores the API token")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(migrateCmd(opts))
	root.AddCommand(scheduleCmd(opts))
	root.AddCommand(loginCmd(opts))
	root.AddCommand(focusCmd(opts))
	return root
}
