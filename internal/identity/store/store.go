// Package store persists identities. Stores are pure I/O: password policy,
// classification, and error shaping live in the services above.
package store

import (
	"context"

	"recoveryregister/internal/identity/models"
)

// Store is the credential store adapter contract. Uniqueness of username and
// email is enforced here, at the storage layer, because a prior read-check is
// not race-free under concurrent registration.
type Store interface {
	// Create assigns the identity ID and persists it. Returns
	// sentinel.ErrConflict (wrapped) when username or email is taken.
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	FindByID(ctx context.Context, id int64) (*models.Identity, error)

	// FindByIdentifier looks up by exact username match OR email match,
	// case-insensitively, so login accepts either form regardless of how the
	// user registered. Returns sentinel.ErrNotFound on miss.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Identity, error)

	UpdateEmail(ctx context.Context, id int64, email string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role models.Role) (*models.Identity, error)
}
