package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contest_arena/internal/api"
	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/executor"
	"contest_arena/internal/app/service"
	"contest_arena/internal/app/worker"
	"contest_arena/internal/common/security"
	"contest_arena/internal/domain/repository"
	"contest_arena/internal/platform/cache"
	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/database"
	"contest_arena/internal/platform/logger"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd.Bool("migrate"))
		},
	}
}

func serve(ctx context.Context, migrate bool) error {
	cfg := config.AppConfig
	if !cfg.EnvFileLoaded {
		logger.Info().Msg("no .env file found, using process environment")
	}

	// 1. Token verification
	security.InitJWT()

	// 2. Database
	if err := database.Connect(ctx); err != nil {
		return err
	}
	defer database.Close()
	if migrate {
		applied, err := database.Migrate(ctx, database.DB)
		if err != nil {
			return err
		}
		logger.Info().Strs("migrations", applied).Msg("migrations applied")
	}

	// 3. Redis
	if err := cache.ConnectRedis(ctx); err != nil {
		return err
	}
	defer cache.CloseRedis()

	// 4. Repositories
	contestRepo := repository.NewPgContestRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	monitoringRepo := repository.NewPgMonitoringRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)

	// 5. Services
	slots := executor.SlotsFromConfig(cache.RDB)
	judge := executor.NewClient(executor.OptionsFromConfig(), slots)
	proctor := service.NewProctorService(monitoringRepo, cfg.ProctorTimeout)
	guard := service.NewEligibilityGuard(contestRepo, monitoringRepo, profileRepo)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, guard, judge, service.NewRedisNotifier(cache.RDB), proctor)
	leaderboardService := service.NewLeaderboardService(contestRepo, submissionRepo, monitoringRepo, cfg.LeaderboardTimeModel)

	// 6. Live leaderboard
	hub := worker.NewHub()
	broadcaster := worker.NewLeaderboardBroadcaster(cache.RDB, leaderboardService, hub)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go broadcaster.Start(workerCtx)

	limiter := middleware.NewKeyedRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitBurst)
	go sweepLimiter(workerCtx, limiter)

	// 7. Router and HTTP server
	router := api.NewRouter(api.Services{
		Contests:    service.NewContestService(contestRepo),
		Problems:    service.NewProblemService(problemRepo, contestRepo),
		Submissions: submissionService,
		Leaderboard: leaderboardService,
		Proctor:     proctor,
		Live:        broadcaster,
		Hub:         hub,
	}, api.Options{
		TokenAuth:      security.TokenAuth,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitLimiter:  limiter,
		RequestTimeout: cfg.JudgeRequestTimeout(),
		JudgeSlots:     slots,
	})

	// Judging a submission holds the response for up to the route timeout.
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JudgeRequestTimeout() + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.APIPort).Str("time_model", cfg.LeaderboardTimeModel).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	color.Green("arena listening on :%s", cfg.APIPort)

	// 8. Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info().Msg("shutting down server")
	workerCancel()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	proctor.Wait()
	logger.Info().Msg("server stopped gracefully")
	return nil
}

func sweepLimiter(ctx context.Context, limiter *middleware.KeyedRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := limiter.Sweep(now); n > 0 {
				logger.Debug().Int("removed", n).Msg("rate limiter swept idle callers")
			}
		}
	}
}
