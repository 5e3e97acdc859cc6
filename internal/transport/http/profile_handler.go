package http

import (
	"errors"
	"net/http"

	"codeduel/internal/app"
	"codeduel/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	service *app.ProfileService
	logger  *zap.Logger
}

func NewProfileHandler(service *app.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, logger: logger}
}

// Get proxies a single profile lookup. Every upstream failure, including an
// unknown user, is reported as a bad gateway.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	profile, err := h.service.Get(r.Context(), username)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			h.logger.Warn("profile lookup failed", zap.String("username", username), zap.Error(err))
		}
		writeErrorCode(w, http.StatusBadGateway, "profile_unavailable", "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Both(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Both(r.Context()))
}
