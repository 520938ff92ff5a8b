package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/app/worker"
	"contest_arena/internal/common"
	"contest_arena/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Snapshotter renders the live leaderboard frame for a contest.
type Snapshotter interface {
	Snapshot(ctx context.Context, contestID string) ([]byte, error)
}

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	live               Snapshotter
	hub                *worker.Hub
	upgrader           websocket.Upgrader
}

func NewLeaderboardHandler(ls *service.LeaderboardService, live Snapshotter, hub *worker.Hub, allowedOrigins []string) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: ls,
		live:               live,
		hub:                hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// RegisterRoutes mounts under /contests/{contestID}/leaderboard on an
// authenticated router.
func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.getLeaderboard)
	r.Get("/live", h.liveLeaderboard)
	r.With(middleware.AdminOnly).Get("/export", h.exportLeaderboard)
}

func (h *LeaderboardHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboardService.GetLeaderboard(r.Context(), chi.URLParam(r, "contestID"), queryBool(r, "in_window"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) exportLeaderboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	filename, err := h.leaderboardService.ExportCSV(r.Context(), chi.URLParam(r, "contestID"), queryBool(r, "in_window"), &buf)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *LeaderboardHandler) liveLeaderboard(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")
	initial, err := h.live.Snapshot(r.Context(), contestID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Str("contest_id", contestID).Msg("failed to upgrade leaderboard websocket")
		return
	}
	h.hub.Attach(contestID, conn, initial)
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
