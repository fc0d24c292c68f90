package middleware

import (
	"context"
	"log/slog"
	"net/http"

	sessionmodels "recoveryregister/internal/session/models"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/httputil"
	"recoveryregister/pkg/requestcontext"
)

type sessionContextKey struct{}

// SessionValidator resolves a raw session token to a live session. The
// session manager satisfies this.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*sessionmodels.Session, error)
}

// GetSession returns the session attached by RequireSession, or nil.
func GetSession(ctx context.Context) *sessionmodels.Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*sessionmodels.Session)
	return sess
}

// SessionToken reads the raw token from the session cookie. Empty when
// the cookie is absent.
func SessionToken(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequireSession validates the session cookie and attaches the session
// to the request context. Missing, expired and unknown tokens all read
// the same to the caller.
func RequireSession(validator SessionValidator, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := validator.Validate(r.Context(), SessionToken(r, cookieName))
			if err != nil {
				logger.WarnContext(r.Context(), "session rejected",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin routes. The role stored in the session is
// checked on every request, not only at elevation time. Must run after
// RequireSession.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if sess.Level != sessionmodels.LevelAdmin || !sess.User.Role.IsAdmin() {
				logger.WarnContext(r.Context(), "admin route denied",
					"user_id", sess.User.UserID,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, domainerrors.New(domainerrors.CodeForbidden, "admin privileges required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
