package handler

import (
	"context"
	"net/http"

	"contest_arena/internal/api/middleware"
	"contest_arena/internal/app/service"
	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService    *service.ProblemService
	submissionService *service.SubmissionService
	proctor           *service.ProctorService
}

func NewProblemHandler(ps *service.ProblemService, ss *service.SubmissionService, proctor *service.ProctorService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, submissionService: ss, proctor: proctor}
}

// RegisterRoutes expects an authenticated router.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/practice", h.listPractice)
	r.Get("/{problemID}", h.getProblem)
	r.Get("/{problemID}/last-submission", h.lastSubmission)

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem)
		adminRouter.Put("/{problemID}", h.updateProblem)
		adminRouter.Put("/{problemID}/practice", h.setPractice)
	})
}

// problemView never carries test cases.
type problemView struct {
	*model.Problem
	Contest *model.ContestView `json:"contest,omitempty"`
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.ProblemRequest
	if !decode(w, r, &req) {
		return
	}
	problem, err := h.problemService.CreateProblem(r.Context(), p, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.ProblemRequest
	if !decode(w, r, &req) {
		return
	}
	problem, err := h.problemService.UpdateProblem(r.Context(), p, chi.URLParam(r, "problemID"), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) setPractice(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Available bool `json:"is_practice_available"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.problemService.SetPracticeAvailability(r.Context(), p, chi.URLParam(r, "problemID"), req.Available); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	problem, contest, err := h.problemService.GetProblem(r.Context(), p, chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	view := problemView{Problem: problem}
	if contest != nil {
		cv := model.NewContestView(*contest, timeNow())
		view.Contest = &cv
		// Opening a live contest problem starts the participant's session.
		if cv.Status == model.ContestActive {
			contestID := contest.ID
			h.proctor.Dispatch(r.Context(), func(ctx context.Context) {
				h.proctor.MarkContestOpened(ctx, p, contestID)
			})
		}
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ProblemHandler) listPractice(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListPracticeProblems(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) lastSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sub, err := h.submissionService.LastSubmission(r.Context(), p, chi.URLParam(r, "problemID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
