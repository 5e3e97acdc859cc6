package http

import (
	"net/http"
	"strconv"

	"codeduel/internal/app"
	"codeduel/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type QuestionHandler struct {
	service *app.QuestionService
	logger  *zap.Logger
}

func NewQuestionHandler(service *app.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{service: service, logger: logger}
}

type toggleRequest struct {
	Solver string `json:"solver"`
	Solved bool   `json:"solved"`
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// Random returns up to count unsolved questions; a missing or malformed
// count means one.
func (h *QuestionHandler) Random(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil {
		count = 1
	}
	questions, err := h.service.SampleUnsolved(r.Context(), count)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewQuestion
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.service.Add(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/questions/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *QuestionHandler) ToggleSolved(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := domain.ParseUser(req.Solver)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.service.ToggleSolved(r.Context(), chi.URLParam(r, "id"), user, req.Solved)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
