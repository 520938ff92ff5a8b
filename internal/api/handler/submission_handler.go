package handler

import (
	"net/http"

	"contest_arena/internal/app/service"
	"contest_arena/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	limit             func(http.Handler) http.Handler
}

// NewSubmissionHandler wraps judging routes in limit, which may be nil.
func NewSubmissionHandler(ss *service.SubmissionService, limit func(http.Handler) http.Handler) *SubmissionHandler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &SubmissionHandler{submissionService: ss, limit: limit}
}

// RegisterRoutes expects an authenticated router.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.With(h.limit).Post("/", h.createSubmission)
	r.Get("/{submissionID}", h.getSubmission)
}

func (h *SubmissionHandler) RegisterRunRoutes(r chi.Router) {
	r.With(h.limit).Post("/", h.runCode)
}

// createSubmission judges synchronously. The body always carries the verdict
// or the error message shown to the user.
func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.CreateSubmissionRequest
	if !decode(w, r, &req) {
		return
	}

	res := h.submissionService.Submit(r.Context(), p, req)
	if res.Failure != nil {
		common.RespondWithJSON(w, common.HTTPStatusFromError(res.Failure), res)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, res)
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req service.RunCodeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.submissionService.RunCode(r.Context(), p, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	sub, err := h.submissionService.GetSubmission(r.Context(), p, chi.URLParam(r, "submissionID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
