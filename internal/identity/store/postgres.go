package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"recoveryregister/internal/identity/models"
	"recoveryregister/pkg/platform/sentinel"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

// PostgresStore persists identities in PostgreSQL. Uniqueness comes from the
// partial unique indexes on lower(username) and lower(email) in the schema,
// not from a read-check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, username, email, phone, password_hash, identity_type, is_anonymous, role, security_profile, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	query := `
		INSERT INTO identities (username, email, phone, password_hash, identity_type, is_anonymous, role, security_profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + identityColumns
	row := s.db.QueryRowContext(ctx, query,
		nullable(identity.Username),
		nullable(identity.Email),
		nullable(identity.Phone),
		identity.PasswordHash,
		string(identity.Type),
		identity.IsAnonymous,
		string(identity.Role),
		string(identity.Profile),
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	created, err := scanIdentity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE lower(username) = lower($1) OR lower(email) = lower($1)
		LIMIT 1`
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by identifier: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) UpdateEmail(ctx context.Context, id int64, email string) (*models.Identity, error) {
	query := `
		UPDATE identities
		SET email = $2, is_anonymous = FALSE, updated_at = now()
		WHERE id = $1
		RETURNING ` + identityColumns
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, id, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("update identity email: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update identity password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity password: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateRole(ctx context.Context, id int64, role models.Role) (*models.Identity, error) {
	query := `
		UPDATE identities
		SET role = $2,
		    security_profile = CASE WHEN $2 IN ('admin', 'super_admin') THEN 'admin' ELSE security_profile END,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + identityColumns
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, id, string(role)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update identity role: %w", err)
	}
	return identity, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var (
		identity models.Identity
		username sql.NullString
		email    sql.NullString
		phone    sql.NullString
		typ      string
		role     string
		profile  string
	)
	err := row.Scan(
		&identity.ID, &username, &email, &phone, &identity.PasswordHash,
		&typ, &identity.IsAnonymous, &role, &profile,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	identity.Username = username.String
	identity.Email = email.String
	identity.Phone = phone.String
	identity.Type = models.IdentityType(typ)
	identity.Role = models.Role(role)
	identity.Profile = models.SecurityProfile(profile)
	return &identity, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
