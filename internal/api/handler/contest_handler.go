package handler

import (
	"context"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/common"

	"github.com/go-chi/chi/v5"
)

type ContestHandler struct {
	contestService *service.ContestService
	problemService *service.ProblemService
	proctor        *service.ProctorService
	leaderboard    *LeaderboardHandler
}

func NewContestHandler(cs *service.ContestService, ps *service.ProblemService, proctor *service.ProctorService, lh *LeaderboardHandler) *ContestHandler {
	return &ContestHandler{contestService: cs, problemService: ps, proctor: proctor, leaderboard: lh}
}

// RegisterRoutes expects an authenticated router.
func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listContests)
	r.With(middleware.AdminOnly).Post("/", h.createContest)
	r.Route("/{contestID}", func(r chi.Router) {
		r.Get("/", h.getContest)
		r.Get("/problems", h.listProblems)
		r.Get("/monitoring", h.getMonitoring)
		r.Post("/open", h.markOpened)
		r.Post("/tab-switch", h.logTabSwitch)
		r.Route("/leaderboard", h.leaderboard.RegisterRoutes)
	})
}

func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	contests, err := h.contestService.ListContests(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.CreateContestRequest
	if !decode(w, r, &req) {
		return
	}
	contest, err := h.contestService.CreateContest(r.Context(), p, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.GetContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	problems, err := h.problemService.ListContestProblems(r.Context(), p, chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ContestHandler) getMonitoring(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	record, err := h.proctor.Monitoring(r.Context(), p, chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, struct {
		TabSwitches  int  `json:"tab_switches"`
		RunCount     int  `json:"run_count"`
		Disqualified bool `json:"disqualified"`
	}{record.TabSwitches, record.RunCount, record.Disqualified()})
}

// Proctoring writes never block or fail the request.

func (h *ContestHandler) markOpened(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	contestID := chi.URLParam(r, "contestID")
	h.proctor.Dispatch(r.Context(), func(ctx context.Context) {
		h.proctor.MarkContestOpened(ctx, p, contestID)
	})
	w.WriteHeader(http.StatusAccepted)
}

func (h *ContestHandler) logTabSwitch(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	contestID := chi.URLParam(r, "contestID")
	h.proctor.Dispatch(r.Context(), func(ctx context.Context) {
		h.proctor.LogTabSwitch(ctx, p, contestID)
	})
	w.WriteHeader(http.StatusAccepted)
}
