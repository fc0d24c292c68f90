// Package store persists sessions. Two backends exist: an in-memory map for
// tests and single-node dev runs, and Redis for deployments where sessions
// must survive restarts. Both serialize updates per token.
package store

import (
	"context"
	"time"

	"recoveryregister/internal/session/models"
)

type Store interface {
	// Create persists a new session under its token.
	Create(ctx context.Context, session *models.Session) error

	// Find returns the session for a token, or sentinel.ErrNotFound. Expiry
	// is evaluated by the manager, not here; stores may additionally drop
	// records whose TTL the backend already enforced.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Save overwrites an existing session (rolling TTL refresh).
	Save(ctx context.Context, session *models.Session) error

	// Delete removes a session. Reports whether it existed; deleting an
	// absent token is not an error.
	Delete(ctx context.Context, token string) (bool, error)

	// ListByUser returns all live sessions for a user.
	ListByUser(ctx context.Context, userID int64) ([]*models.Session, error)

	// DeleteByUser removes every session for a user, returning the count.
	DeleteByUser(ctx context.Context, userID int64) (int, error)

	// DeleteExpired removes sessions past their expiry as of now, returning
	// the count. Backends with native TTL may have nothing to do.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
