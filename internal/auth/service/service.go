package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"recoveryregister/internal/identity/classifier"
	identitymodels "recoveryregister/internal/identity/models"
	"recoveryregister/internal/platform/audit"
	"recoveryregister/internal/platform/metrics"
	sessionmodels "recoveryregister/internal/session/models"
	domainerrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/sentinel"
	"recoveryregister/pkg/requestcontext"
	"recoveryregister/pkg/sanitize"
	"recoveryregister/pkg/secrets"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks

// IdentityStore is the slice of the identity store this service calls.
// The store packages expose more mutations; consumers declare only what
// they use.
type IdentityStore interface {
	Create(ctx context.Context, identity *identitymodels.Identity) (*identitymodels.Identity, error)
	FindByIdentifier(ctx context.Context, identifier string) (*identitymodels.Identity, error)
}

type SessionManager interface {
	Establish(ctx context.Context, user sessionmodels.Snapshot, priorToken string) (*sessionmodels.Session, error)
	Elevate(ctx context.Context, user sessionmodels.Snapshot, priorToken string) (*sessionmodels.Session, error)
	Destroy(ctx context.Context, token string) error
	ListForUser(ctx context.Context, userID int64, currentToken string) ([]sessionmodels.Summary, error)
}

type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// invalidCredentials is the single answer for every login failure.
// Unknown identifier, wrong password and non-admin on the admin door
// must be indistinguishable to the caller.
func invalidCredentials() error {
	return domainerrors.New(domainerrors.CodeUnauthorized, "invalid credentials")
}

// Service orchestrates registration, login and session lifecycle.
type Service struct {
	identities IdentityStore
	sessions   SessionManager
	policy     classifier.Policy
	bcryptCost int
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(identities IdentityStore, sessions SessionManager, policy classifier.Policy, bcryptCost int, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		sessions:   sessions,
		policy:     policy,
		bcryptCost: bcryptCost,
		logger:     slog.Default(),
		tracer:     otel.Tracer("recoveryregister/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Pseudonym string
	Email     string
	Password  string
}

type LoginInput struct {
	Identifier string
	Password   string
}

// Register creates an identity and opens its first session. Anonymity
// falls out of the input shape alone: no email means anonymous, email
// means named. Callers never choose.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*identitymodels.Identity, *sessionmodels.Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	c, err := classifier.Classify(classifier.Input{
		Pseudonym: strings.TrimSpace(input.Pseudonym),
		Email:     strings.TrimSpace(input.Email),
		Password:  input.Password,
	}, s.policy)
	if err != nil {
		return nil, nil, err
	}

	hash, err := secrets.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}

	identity, err := identitymodels.NewIdentity(c.Username, c.Email, hash, c.Type, requestcontext.Now(ctx).UTC())
	if err != nil {
		if domainerrors.HasCode(err, domainerrors.CodeInvariantViolation) {
			return nil, nil, domainerrors.New(domainerrors.CodeValidation, domainerrors.Message(err))
		}
		return nil, nil, err
	}

	identity, err = s.identities.Create(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, nil, domainerrors.New(domainerrors.CodeConflict, "identifier is already taken")
		}
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create identity")
	}
	span.SetAttributes(attribute.Int64("user.id", identity.ID))

	sess, err := s.sessions.Establish(ctx, sessionmodels.SnapshotOf(identity), "")
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to establish session")
	}

	s.logAudit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionUserRegistered,
		UserID:   identity.ID,
		Detail:   "type=" + string(identity.Type),
	})
	if s.metrics != nil {
		s.metrics.IdentitiesCreated.Inc()
	}
	return identity, sess, nil
}

// Login verifies credentials against either the username or email and
// replaces any session the caller presented.
func (s *Service) Login(ctx context.Context, input LoginInput, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	identity, err := s.authenticate(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Establish(ctx, sessionmodels.SnapshotOf(identity), priorToken)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to establish session")
	}

	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionLoginSucceeded,
		UserID:   identity.ID,
	})
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	return identity, sess, nil
}

// AdminLogin is Login plus a role gate. A valid password on a non-admin
// account fails exactly like a wrong password.
func (s *Service) AdminLogin(ctx context.Context, input LoginInput, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error) {
	ctx, span := s.tracer.Start(ctx, "auth.AdminLogin")
	defer span.End()

	identity, err := s.authenticate(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	if !identity.Role.IsAdmin() {
		s.recordAuthFailure(ctx, input.Identifier)
		return nil, nil, invalidCredentials()
	}

	sess, err := s.sessions.Elevate(ctx, sessionmodels.SnapshotOf(identity), priorToken)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to establish session")
	}

	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionAdminElevated,
		UserID:   identity.ID,
	})
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	return identity, sess, nil
}

func (s *Service) authenticate(ctx context.Context, input LoginInput) (*identitymodels.Identity, error) {
	// The canonical grammar applies to every door: an identifier that could
	// never have been registered is rejected before any lookup.
	if err := classifier.ValidateIdentifier(input.Identifier); err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, invalidCredentials()
	}

	identifier := strings.TrimSpace(input.Identifier)
	identity, err := s.identities.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordAuthFailure(ctx, identifier)
			return nil, invalidCredentials()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up identity")
	}

	if err := secrets.VerifyPassword(input.Password, identity.PasswordHash); err != nil {
		s.recordAuthFailure(ctx, identifier)
		return nil, invalidCredentials()
	}
	return identity, nil
}

// Logout tears down the presented session. Absent or already destroyed
// sessions succeed too.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to destroy session")
	}
	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionSessionDestroyed,
	})
	return nil
}

// Sessions lists the caller's active sessions with the current one marked.
func (s *Service) Sessions(ctx context.Context, sess *sessionmodels.Session) ([]sessionmodels.Summary, error) {
	summaries, err := s.sessions.ListForUser(ctx, sess.User.UserID, sess.Token)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list sessions")
	}
	return summaries, nil
}

// DevLogin opens an admin session without credentials. The transport
// layer must refuse this outside development before calling in.
func (s *Service) DevLogin(ctx context.Context, priorToken string) (*identitymodels.Identity, *sessionmodels.Session, error) {
	identity, err := s.identities.FindByIdentifier(ctx, devAdminUsername)
	if errors.Is(err, sentinel.ErrNotFound) {
		identity, err = s.createDevAdmin(ctx)
	}
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to resolve dev admin")
	}

	sess, err := s.sessions.Elevate(ctx, sessionmodels.SnapshotOf(identity), priorToken)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to establish session")
	}

	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionDevBypassUsed,
		UserID:   identity.ID,
	})
	return identity, sess, nil
}

// RecordDevBypassBlocked puts a refused dev-login attempt on the audit
// trail. The transport layer calls this from its environment gate.
func (s *Service) RecordDevBypassBlocked(ctx context.Context) {
	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionDevBypassBlocked,
	})
}

const devAdminUsername = "dev-admin"

func (s *Service) createDevAdmin(ctx context.Context) (*identitymodels.Identity, error) {
	password, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	hash, err := secrets.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	identity, err := identitymodels.NewIdentity(devAdminUsername, "", hash, identitymodels.TypePseudonym, now)
	if err != nil {
		return nil, err
	}
	if err := identity.SetRole(identitymodels.RoleAdmin, now); err != nil {
		return nil, err
	}

	created, err := s.identities.Create(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to another dev-login; fetch the winner.
			return s.identities.FindByIdentifier(ctx, devAdminUsername)
		}
		return nil, err
	}
	return created, nil
}

// BootstrapAdmin ensures a real admin account exists at startup. It is
// a no-op when the username is already taken.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if len(password) < s.policy.AdminPasswordMinLen {
		return domainerrors.Newf(domainerrors.CodeValidation, "admin password must be at least %d characters", s.policy.AdminPasswordMinLen)
	}
	if _, err := s.identities.FindByIdentifier(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check bootstrap admin")
	}

	hash, err := secrets.HashPassword(password, s.bcryptCost)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash bootstrap password")
	}
	now := requestcontext.Now(ctx).UTC()
	identity, err := identitymodels.NewIdentity(username, "", hash, identitymodels.TypePseudonym, now)
	if err != nil {
		return err
	}
	if err := identity.SetRole(identitymodels.RoleAdmin, now); err != nil {
		return err
	}

	if _, err := s.identities.Create(ctx, identity); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create bootstrap admin")
	}
	return nil
}

func (s *Service) recordAuthFailure(ctx context.Context, identifier string) {
	s.logAudit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionAuthFailed,
		Detail:   "identifier=" + sanitize.MaskEmail(identifier),
	})
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	attributes := []any{
		"action", string(event.Action),
		"category", string(event.Category),
		"log_type", "audit",
	}
	if event.UserID != 0 {
		attributes = append(attributes, "user_id", event.UserID)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, string(event.Action), attributes...)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed", "action", string(event.Action), "error", err)
	}
}
