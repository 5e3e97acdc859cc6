package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"codeduel/internal/domain"
	"go.uber.org/zap"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrContestNotFound):
		writeErrorCode(w, http.StatusNotFound, "contest_not_found", err.Error())
	case errors.Is(err, domain.ErrQuestionNotFound):
		writeErrorCode(w, http.StatusNotFound, "question_not_found", err.Error())
	case errors.Is(err, domain.ErrContestFinished):
		writeErrorCode(w, http.StatusConflict, "contest_finished", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrorCode(w, http.StatusConflict, "conflict", "concurrent update, retry the request")
	case errors.Is(err, domain.ErrInsufficientPool):
		writeErrorCode(w, http.StatusBadRequest, "insufficient_pool", err.Error())
	case errors.Is(err, domain.ErrUnknownUser):
		writeErrorCode(w, http.StatusBadRequest, "unknown_user", err.Error())
	case errors.Is(err, domain.ErrQuestionNotInContest):
		writeErrorCode(w, http.StatusBadRequest, "question_not_in_contest", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeErrorCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", "invalid request payload")
		return false
	}
	return true
}
