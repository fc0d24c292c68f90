package store

import (
	"context"

	"recoveryregister/internal/registration/models"
)

// Store persists registrations.
//
// Contract:
//   - Create enforces one registration per (event, email) when an email
//     is supplied, returning sentinel.ErrConflict; email-less entries
//     never conflict
//   - CountByEvent backs the capacity check
type Store interface {
	Create(ctx context.Context, registration *models.Registration) (*models.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Registration, error)
	ListAll(ctx context.Context) ([]*models.Registration, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}
