package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"recoveryregister/internal/platform/middleware"
	"recoveryregister/internal/schedule/models"
	scheduleservice "recoveryregister/internal/schedule/service"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/httputil"
	"recoveryregister/pkg/requestcontext"
)

// Service defines the schedule operations the handler exposes.
type Service interface {
	Create(ctx context.Context, input scheduleservice.CreateEventInput) (*models.Event, error)
	Patch(ctx context.Context, id int64, patch models.Patch) (*models.Event, error)
	Upcoming(ctx context.Context) ([]*models.Event, error)
	All(ctx context.Context) ([]*models.Event, error)
}

// Handler serves the public event listing and the admin schedule CRUD.
type Handler struct {
	logger    *slog.Logger
	schedule  Service
	validator middleware.SessionValidator
	cookie    string
}

func New(schedule Service, validator middleware.SessionValidator, cookieName string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		schedule:  schedule,
		validator: validator,
		cookie:    cookieName,
	}
}

// Register registers the schedule routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/events", h.handleListUpcoming)

	r.Route("/api/admin/events", func(r chi.Router) {
		r.Use(middleware.RequireSession(h.validator, h.cookie, h.logger))
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/", h.handleListAll)
		r.Post("/", h.handleCreate)
		r.Patch("/{id}", h.handlePatch)
	})
}

func (h *Handler) handleListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := h.schedule.Upcoming(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "list events failed", err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	events, err := h.schedule.All(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "list events failed", err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input scheduleservice.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	event, err := h.schedule.Create(r.Context(), input)
	if err != nil {
		h.writeError(r.Context(), w, "create event failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid event id"))
		return
	}

	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	event, err := h.schedule.Patch(r.Context(), id, patch)
	if err != nil {
		h.writeError(r.Context(), w, "patch event failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, event)
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
