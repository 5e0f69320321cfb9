// Package handler exposes the signup intake endpoint and the admin read
// path over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"waitlist/internal/signup/models"
	"waitlist/internal/signup/service"
	dErrors "waitlist/pkg/domain-errors"
	"waitlist/pkg/platform/httputil"
	adminmw "waitlist/pkg/platform/middleware/admin"
	"waitlist/pkg/platform/middleware/metadata"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

// Register mounts the public intake route.
func (h *Handler) Register(r chi.Router) {
	r.With(metadata.ClientMetadata).Post("/api/signup", h.handleSignup)
}

// RegisterAdmin mounts the read-only admin routes behind the bearer token.
func (h *Handler) RegisterAdmin(r chi.Router, adminToken string) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(adminToken, h.logger))
		r.Get("/signups", h.handleListSignups)
	})
}

type signupResponse struct {
	OK bool `json:"ok"`
}

type listSignupsResponse struct {
	Signups []*models.SignupRecord `json:"signups"`
	Count   int                    `json:"count"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sub models.Submission
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return
	}

	_, err := h.service.Intake(ctx, sub)
	if err != nil {
		var denial *service.RateLimited
		if errors.As(err, &denial) {
			writeRateLimitHeaders(w, denial)
		}
		if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeStorageUnavailable {
			h.logger.ErrorContext(ctx, "signup failed", "error", err.Error())
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, signupResponse{OK: true})
}

func (h *Handler) handleListSignups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, count, err := h.service.ListSignups(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list signups failed", "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.SignupRecord{}
	}

	httputil.WriteJSON(w, http.StatusOK, listSignupsResponse{Signups: records, Count: count})
}

func writeRateLimitHeaders(w http.ResponseWriter, denial *service.RateLimited) {
	result := denial.Result
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	retryAfter := result.RetryAfter
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
}
