package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"recoveryregister/internal/platform/audit"
	"recoveryregister/internal/platform/metrics"
	"recoveryregister/internal/registration/models"
	schedulemodels "recoveryregister/internal/schedule/models"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/requestcontext"
)

type RegistrationStore interface {
	Create(ctx context.Context, registration *models.Registration) (*models.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Registration, error)
	ListAll(ctx context.Context) ([]*models.Registration, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
}

type Schedule interface {
	Get(ctx context.Context, id int64) (*schedulemodels.Event, error)
}

type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Service handles intake form submissions against the program schedule.
type Service struct {
	registrations RegistrationStore
	schedule      Schedule
	logger        *slog.Logger
	publisher     AuditPublisher
	metrics       *metrics.Metrics
}

type Option func(s *Service)

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(registrations RegistrationStore, schedule Schedule, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{registrations: registrations, schedule: schedule, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SubmitInput struct {
	EventID   int64    `json:"event_id"`
	Pseudonym string   `json:"pseudonym"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Topics    []string `json:"topics"`
	Notes     string   `json:"notes"`
	Consent   bool     `json:"consent"`
}

// Submit validates the target event and persists the registration.
// userID is zero for an anonymous walk-in.
func (s *Service) Submit(ctx context.Context, input SubmitInput, userID int64) (*models.Registration, error) {
	registration, err := models.NewRegistration(
		input.EventID, input.Pseudonym, input.Email, input.Phone,
		input.Topics, input.Notes, input.Consent,
		requestcontext.Now(ctx).UTC(),
	)
	if err != nil {
		return nil, err
	}
	registration.UserID = userID

	event, err := s.schedule.Get(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if !event.Active {
		return nil, domainerrors.New(domainerrors.CodeValidation, "event is not open for registration")
	}

	registered, err := s.registrations.CountByEvent(ctx, event.ID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check capacity")
	}
	if !event.HasCapacity(registered) {
		return nil, domainerrors.New(domainerrors.CodeConflict, "event is full")
	}

	created, err := s.registrations.Create(ctx, registration)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "already registered for this event")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save registration")
	}

	s.logger.InfoContext(ctx, "registration created",
		"registration_id", created.ID,
		"event_id", created.EventID,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionRegistrationCreated,
			UserID:   userID,
			Detail:   "event_id=" + strconv.FormatInt(event.ID, 10),
		}); err != nil {
			s.logger.WarnContext(ctx, "audit publish failed", "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	return created, nil
}

// Mine lists the caller's own registrations.
func (s *Service) Mine(ctx context.Context, userID int64) ([]*models.Registration, error) {
	registrations, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list registrations")
	}
	return registrations, nil
}

// AdminList returns every registration with contact fields masked.
func (s *Service) AdminList(ctx context.Context) ([]map[string]any, error) {
	registrations, err := s.registrations.ListAll(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list registrations")
	}
	out := make([]map[string]any, 0, len(registrations))
	for _, registration := range registrations {
		out = append(out, registration.AdminView())
	}
	return out, nil
}
