package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-task-board/internal/app"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Task board with a real-time workflow API",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap reads the env, sets up the logger and opens the store.
func bootstrap(ctx context.Context) (*app.App, zerolog.Logger, error) {
	logger := app.NewDefaultLogger()

	cfg, err := app.ReadEnv(logger)
	if err != nil {
		return nil, logger, err
	}

	logger, err = app.NewApplicationLogger(logger, cfg.Env)
	if err != nil {
		return nil, logger, err
	}

	a, err := app.New(ctx, logger, cfg)
	if err != nil {
		return nil, logger, err
	}
	return a, logger, nil
}
