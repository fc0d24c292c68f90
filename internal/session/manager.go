// Package session owns the trust ladder for browser contexts: anonymous
// until login, user after a verified login, admin only through the separate
// admin flow. All handlers go through the Manager; nothing else mutates
// session state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recoveryregister/internal/platform/metrics"
	"recoveryregister/internal/session/device"
	"recoveryregister/internal/session/models"
	"recoveryregister/internal/session/store"
	dErrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/requestcontext"
	"recoveryregister/pkg/secrets"
)

// Manager issues, validates, and destroys sessions. Every trust escalation
// regenerates the token: Establish destroys any prior token before minting a
// new one, which defeats session fixation across the privilege boundary.
type Manager struct {
	store   store.Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithMetrics attaches the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

func NewManager(s store.Store, ttl time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	mgr := &Manager{store: s, ttl: ttl, logger: logger}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Establish creates a fresh session for the identity snapshot. priorToken is
// whatever cookie the request carried before authentication; it is destroyed
// first so no pre-auth token survives the trust change.
func (m *Manager) Establish(ctx context.Context, snapshot models.Snapshot, priorToken string) (*models.Session, error) {
	if priorToken != "" {
		if err := m.Destroy(ctx, priorToken); err != nil {
			return nil, err
		}
	}

	token, err := secrets.GenerateToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue session")
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		Token:      token,
		Level:      models.LevelFor(snapshot.Role),
		User:       snapshot,
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
		LastSeenAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist session")
	}

	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
	}
	return session, nil
}

// Elevate regenerates the session at admin trust. Credentials must have
// been re-verified by the caller; a non-admin snapshot is refused here
// as a second line.
func (m *Manager) Elevate(ctx context.Context, snapshot models.Snapshot, priorToken string) (*models.Session, error) {
	if !snapshot.Role.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return m.Establish(ctx, snapshot, priorToken)
}

// Validate resolves a cookie token to a live session and refreshes the
// rolling TTL. Missing and expired tokens both come back as the same
// unauthorized error; the wrapped sentinel keeps them distinguishable in
// server-side logs only.
func (m *Manager) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeUnauthorized, "authentication required")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}

	now := requestcontext.Now(ctx)
	if session.Expired(now) {
		// Lazy expiry: drop the record on access, no sweep needed for
		// correctness.
		if _, err := m.store.Delete(ctx, token); err != nil {
			m.logger.WarnContext(ctx, "failed to drop expired session", "error", err)
		} else if m.metrics != nil {
			m.metrics.ActiveSessions.Dec()
		}
		return nil, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeUnauthorized, "authentication required")
	}

	session.Touch(now, m.ttl)
	if err := m.store.Save(ctx, session); err != nil {
		// A destroy racing the refresh wins; treat the session as gone.
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeUnauthorized, "authentication required")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}
	return session, nil
}

// Destroy removes a session. Idempotent: destroying an absent or already
// destroyed token succeeds.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	existed, err := m.store.Delete(ctx, token)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}
	if existed && m.metrics != nil {
		m.metrics.ActiveSessions.Dec()
	}
	return nil
}

// DestroyAllForUser revokes every session of a user (admin revocation,
// password change).
func (m *Manager) DestroyAllForUser(ctx context.Context, userID int64) (int, error) {
	deleted, err := m.store.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}
	if m.metrics != nil {
		m.metrics.ActiveSessions.Sub(float64(deleted))
	}
	return deleted, nil
}

// ListForUser returns display summaries of a user's live sessions, marking
// the one belonging to currentToken.
func (m *Manager) ListForUser(ctx context.Context, userID int64, currentToken string) ([]models.Summary, error) {
	sessions, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}

	now := requestcontext.Now(ctx)
	summaries := make([]models.Summary, 0, len(sessions))
	for _, s := range sessions {
		if s.Expired(now) {
			continue
		}
		summaries = append(summaries, models.Summary{
			Device:     s.Device,
			CreatedAt:  s.CreatedAt,
			LastSeenAt: s.LastSeenAt,
			IsCurrent:  s.Token == currentToken,
		})
	}
	return summaries, nil
}

// Sweep drops expired sessions. Correctness never depends on it (expiry is
// lazy); this is resource hygiene for the in-memory backend.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	deleted, err := m.store.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
	}
	if deleted > 0 && m.metrics != nil {
		m.metrics.ActiveSessions.Sub(float64(deleted))
	}
	return deleted, nil
}

// RunSweeper sweeps on the given interval until ctx is canceled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deleted, err := m.Sweep(ctx)
			if err != nil {
				m.logger.WarnContext(ctx, "session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				m.logger.DebugContext(ctx, "session sweep", "deleted", deleted)
			}
		}
	}
}

// TTL exposes the configured rolling lifetime, used by handlers to set the
// cookie Max-Age in step with the server-side expiry.
func (m *Manager) TTL() time.Duration { return m.ttl }
