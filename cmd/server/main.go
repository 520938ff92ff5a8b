package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "arena",
		Usage: "contest judging server",
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := config.Load(); err != nil {
				return ctx, fmt.Errorf("loading configuration: %w", err)
			}
			logger.Init(config.AppConfig.Env)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			leaderboardCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		color.Red("arena: %v", err)
		os.Exit(1)
	}
}
