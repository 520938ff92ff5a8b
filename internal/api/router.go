package api

import (
	"net/http"
	"time"

	"contest_arena/internal/api/handler"
	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/executor"
	"contest_arena/internal/app/service"
	"contest_arena/internal/app/worker"
	"contest_arena/internal/common"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

// Services is everything the HTTP layer serves.
type Services struct {
	Contests    *service.ContestService
	Problems    *service.ProblemService
	Submissions *service.SubmissionService
	Leaderboard *service.LeaderboardService
	Proctor     *service.ProctorService
	Live        *worker.LeaderboardBroadcaster
	Hub         *worker.Hub
}

type Options struct {
	TokenAuth      *jwtauth.JWTAuth
	AllowedOrigins []string
	// SubmitLimiter bounds submissions and runs per user. Nil disables it.
	SubmitLimiter *middleware.KeyedRateLimiter
	// RequestTimeout caps the judging routes and must outlast the judge poll
	// window. Zero means 90s.
	RequestTimeout time.Duration
	// JudgeSlots, when set, is reported on /health/judge.
	JudgeSlots *executor.RedisSlots
}

const defaultRequestTimeout = 90 * time.Second

func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Browsers cannot set headers on websocket upgrades, hence the query fallback.
	r.Use(jwtauth.Verify(opts.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie, jwtauth.TokenFromQuery))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if opts.JudgeSlots != nil {
		r.Get("/health/judge", judgeHealth(opts.JudgeSlots))
	}

	leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboard, svc.Live, svc.Hub, opts.AllowedOrigins)
	contestHandler := handler.NewContestHandler(svc.Contests, svc.Problems, svc.Proctor, leaderboardHandler)
	problemHandler := handler.NewProblemHandler(svc.Problems, svc.Submissions, svc.Proctor)
	var limit func(http.Handler) http.Handler
	if opts.SubmitLimiter != nil {
		limit = middleware.RateLimit(opts.SubmitLimiter)
	}
	submissionHandler := handler.NewSubmissionHandler(svc.Submissions, limit)
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Authenticator)

		// The websocket route must stay outside the request timeout.
		v1.Group(func(long chi.Router) {
			long.Route("/contests", contestHandler.RegisterRoutes)
		})

		v1.Group(func(timed chi.Router) {
			timed.Use(chiMiddleware.Timeout(timeout))
			timed.Route("/problems", problemHandler.RegisterRoutes)
			timed.Route("/submissions", submissionHandler.RegisterRoutes)
			timed.Route("/run", submissionHandler.RegisterRunRoutes)
		})
	})

	return r
}

func judgeHealth(slots *executor.RedisSlots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := slots.InFlight(r.Context())
		if err != nil {
			common.RespondWithError(w, http.StatusServiceUnavailable, "judge slots unavailable")
			return
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]int{
			"in_flight": n,
			"capacity":  slots.Capacity(),
		})
	}
}
