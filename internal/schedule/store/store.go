package store

import (
	"context"
	"time"

	"recoveryregister/internal/schedule/models"
)

// Store persists events.
//
// Contract:
//   - FindByID returns sentinel.ErrNotFound for unknown ids
//   - ListUpcoming returns active events starting after now, soonest first
//   - Update replaces the stored row for the event's id
type Store interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	ListUpcoming(ctx context.Context, now time.Time) ([]*models.Event, error)
	ListAll(ctx context.Context) ([]*models.Event, error)
}
