package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"contest_arena/internal/app/service"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/database"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := database.Connect(ctx); err != nil {
				return err
			}
			defer database.Close()

			applied, err := database.Migrate(ctx, database.DB)
			for _, name := range applied {
				color.Green("applied %s", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				color.Yellow("database is up to date")
			}
			return nil
		},
	}
}

func leaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "export a contest leaderboard as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "contest", Usage: "contest id", Required: true},
			&cli.StringFlag{Name: "out", Usage: "output file, stdout when empty"},
			&cli.BoolFlag{Name: "in-window", Usage: "only count submissions made during the contest"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := database.Connect(ctx); err != nil {
				return err
			}
			defer database.Close()

			svc := service.NewLeaderboardService(
				repository.NewPgContestRepository(database.DB),
				repository.NewPgSubmissionRepository(database.DB),
				repository.NewPgMonitoringRepository(database.DB),
				config.AppConfig.LeaderboardTimeModel,
			)

			var w io.Writer = os.Stdout
			out := cmd.String("out")
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			filename, err := svc.ExportCSV(ctx, cmd.String("contest"), cmd.Bool("in-window"), w)
			if err != nil {
				return fmt.Errorf("exporting leaderboard: %w", err)
			}
			if out != "" {
				color.Green("wrote %s (suggested name %s)", out, filename)
			}
			return nil
		},
	}
}
