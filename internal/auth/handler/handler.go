package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authservice "recoveryregister/internal/auth/service"
	identitymodels "recoveryregister/internal/identity/models"
	"recoveryregister/internal/platform/config"
	"recoveryregister/internal/platform/middleware"
	sessionmodels "recoveryregister/internal/session/models"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/httputil"
	"recoveryregister/pkg/requestcontext"
	"recoveryregister/pkg/sanitize"
)

// Service defines the auth operations the handler exposes.
type Service interface {
	Register(ctx context.Context, input authservice.RegisterInput) (*identitymodels.Identity, *sessionmodels.Session, error)
	Login(ctx context.Context, input authservice.LoginInput, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error)
	AdminLogin(ctx context.Context, input authservice.LoginInput, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error)
	DevLogin(ctx context.Context, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error)
	RecordDevBypassBlocked(ctx context.Context)
	Logout(ctx context.Context, token string) error
	Sessions(ctx context.Context, sess *sessionmodels.Session) ([]sessionmodels.Summary, error)
}

// Handler serves the /api/auth surface.
type Handler struct {
	logger    *slog.Logger
	auth      Service
	validator middleware.SessionValidator
	cfg       config.Server
}

// New creates an auth Handler.
func New(
	auth Service,
	validator middleware.SessionValidator,
	cfg config.Server,
	logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		auth:      auth,
		validator: validator,
		cfg:       cfg,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Post("/admin/login", h.handleAdminLogin)
		r.Post("/admin/dev-login", h.handleDevLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.validator, h.cfg.Session.CookieName, h.logger))
			r.Get("/me", h.handleMe)
			r.Get("/sessions", h.handleSessions)
		})
	})
}

type registerRequest struct {
	Pseudonym string `json:"pseudonym"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	User      map[string]any `json:"user"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	identity, sess, err := h.auth.Register(ctx, authservice.RegisterInput{
		Pseudonym: req.Pseudonym,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "register failed", err)
		return
	}

	h.setSessionCookie(w, sess)
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{
		User:      sanitize.Sanitize(identity.Record()),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.Login)
}

func (h *Handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.auth.AdminLogin)
}

type loginFunc func(ctx context.Context, input authservice.LoginInput, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error)

func (h *Handler) login(w http.ResponseWriter, r *http.Request, fn loginFunc) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	priorToken := middleware.SessionToken(r, h.cfg.Session.CookieName)
	identity, sess, err := fn(ctx, authservice.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	}, priorToken)
	if err != nil {
		h.writeServiceError(ctx, w, "login failed", err)
		return
	}

	h.setSessionCookie(w, sess)
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		User:      sanitize.Sanitize(identity.Record()),
		ExpiresAt: sess.ExpiresAt,
	})
}

// handleDevLogin grants an admin session without credentials. The
// environment gate is the first thing that runs and fails closed.
func (h *Handler) handleDevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.IsDevelopment() {
		h.auth.RecordDevBypassBlocked(r.Context())
		h.logger.WarnContext(r.Context(), "dev login refused outside development",
			"env", h.cfg.Env,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, domainerrors.New(domainerrors.CodeForbidden, "not available"))
		return
	}

	ctx := r.Context()
	priorToken := middleware.SessionToken(r, h.cfg.Session.CookieName)

	identity, sess, err := h.auth.DevLogin(ctx, priorToken)
	if err != nil {
		h.writeServiceError(ctx, w, "dev login failed", err)
		return
	}

	h.setSessionCookie(w, sess)
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		User:      sanitize.Sanitize(identity.Record()),
		ExpiresAt: sess.ExpiresAt,
	})
}

// handleLogout succeeds whether or not a live session was presented.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := middleware.SessionToken(r, h.cfg.Session.CookieName)
	if err := h.auth.Logout(ctx, token); err != nil {
		h.writeServiceError(ctx, w, "logout failed", err)
		return
	}

	h.clearSessionCookie(w)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMe answers from the session snapshot alone. No store read: the
// snapshot is what the caller authenticated as, and role changes only
// surface through session regeneration.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user":        sess.User,
		"trust_level": string(sess.Level),
	})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.GetSession(ctx)

	summaries, err := h.auth.Sessions(ctx, sess)
	if err != nil {
		h.writeServiceError(ctx, w, "list sessions failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sess *sessionmodels.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	switch domainerrors.GetCode(err) {
	case domainerrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"code", string(domainerrors.GetCode(err)),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
