package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"recoveryregister/internal/platform/middleware"
	"recoveryregister/internal/registration/models"
	registrationservice "recoveryregister/internal/registration/service"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/httputil"
	"recoveryregister/pkg/requestcontext"
)

// Service defines the registration operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, input registrationservice.SubmitInput, userID int64) (*models.Registration, error)
	Mine(ctx context.Context, userID int64) ([]*models.Registration, error)
	AdminList(ctx context.Context) ([]map[string]any, error)
}

// Handler serves the public intake form and the admin listing.
type Handler struct {
	logger        *slog.Logger
	registrations Service
	validator     middleware.SessionValidator
	cookie        string
}

func New(registrations Service, validator middleware.SessionValidator, cookieName string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		registrations: registrations,
		validator:     validator,
		cookie:        cookieName,
	}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/registrations", h.handleSubmit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.validator, h.cookie, h.logger))
		r.Get("/api/registrations/mine", h.handleMine)
	})

	r.Route("/api/admin/registrations", func(r chi.Router) {
		r.Use(middleware.RequireSession(h.validator, h.cookie, h.logger))
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/", h.handleAdminList)
	})
}

// handleSubmit is public: a signed-in caller gets the registration
// attached to their account, everyone else registers as a walk-in.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input registrationservice.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	var userID int64
	if token := middleware.SessionToken(r, h.cookie); token != "" {
		if sess, err := h.validator.Validate(ctx, token); err == nil {
			userID = sess.User.UserID
		}
	}

	registration, err := h.registrations.Submit(ctx, input, userID)
	if err != nil {
		h.writeError(ctx, w, "submit registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registration)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.GetSession(ctx)

	registrations, err := h.registrations.Mine(ctx, sess.User.UserID)
	if err != nil {
		h.writeError(ctx, w, "list own registrations failed", err)
		return
	}
	if registrations == nil {
		registrations = []*models.Registration{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": registrations})
}

func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	registrations, err := h.registrations.AdminList(ctx)
	if err != nil {
		h.writeError(ctx, w, "admin list registrations failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": registrations})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if domainerrors.GetCode(err) == domainerrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
