package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"recoveryregister/internal/schedule/models"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/requestcontext"
)

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	ListUpcoming(ctx context.Context, now time.Time) ([]*models.Event, error)
	ListAll(ctx context.Context) ([]*models.Event, error)
}

// Service manages the program schedule.
type Service struct {
	events EventStore
	logger *slog.Logger
}

func New(events EventStore, logger *slog.Logger) *Service {
	return &Service{events: events, logger: logger}
}

type CreateEventInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
	Capacity        int       `json:"capacity"`
}

func (s *Service) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	event, err := models.NewEvent(input.Title, input.StartsAt, input.DurationMinutes, input.Capacity, requestcontext.Now(ctx).UTC())
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeInvariantViolation) {
			return nil, domainerrors.New(domainerrors.CodeValidation, domainerrors.Message(err))
		}
		return nil, err
	}
	event.Description = input.Description
	event.Location = input.Location

	if err := s.events.Create(ctx, event); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create event")
	}
	return event, nil
}

func (s *Service) Patch(ctx context.Context, id int64, patch models.Patch) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "event not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load event")
	}

	if err := event.Apply(patch, requestcontext.Now(ctx).UTC()); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "event not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update event")
	}
	return event, nil
}

// Upcoming lists whatever the public form may register for.
func (s *Service) Upcoming(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.ListUpcoming(ctx, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// All lists every event including inactive and past ones.
func (s *Service) All(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// Get resolves one event.
func (s *Service) Get(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "event not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load event")
	}
	return event, nil
}
