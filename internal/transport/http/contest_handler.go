package http

import (
	"net/http"
	"strings"

	"codeduel/internal/app"
	"codeduel/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ContestHandler struct {
	service *app.ContestService
	logger  *zap.Logger
}

func NewContestHandler(service *app.ContestService, logger *zap.Logger) *ContestHandler {
	return &ContestHandler{service: service, logger: logger}
}

type createContestRequest struct {
	NumQuestions int `json:"numQuestions"`
	Duration     int `json:"duration"`
}

type solveRequest struct {
	User       string `json:"user"`
	QuestionID string `json:"questionId"`
	Solved     bool   `json:"solved"`
}

func (h *ContestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.service.Create(r.Context(), req.NumQuestions, req.Duration)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/contests/"+created.Code)
	writeJSON(w, http.StatusCreated, created)
}

func (h *ContestHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	live, err := h.service.ListLive(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, live)
}

func (h *ContestHandler) ListPast(w http.ResponseWriter, r *http.Request) {
	past, err := h.service.ListFinished(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, past)
}

func (h *ContestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ContestHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), contestCode(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ContestHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := domain.ParseUser(req.User)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.QuestionID == "" {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", "questionId is required")
		return
	}
	detail, err := h.service.RecordSolve(r.Context(), contestCode(r), user, req.QuestionID, req.Solved)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Codes are generated upper case; lookups accept either case.
func contestCode(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "code"))
}
