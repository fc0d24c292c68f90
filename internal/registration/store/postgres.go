package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"recoveryregister/internal/registration/models"
	"recoveryregister/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists registrations in PostgreSQL. The partial unique
// index on (event_id, lower(email)) closes the double-submit race; the
// topics column is text[] carried through pq.Array.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registrationColumns = `id, user_id, event_id, pseudonym, email, phone, topics, notes, consent, created_at`

func (s *PostgresStore) Create(ctx context.Context, registration *models.Registration) (*models.Registration, error) {
	query := `
		INSERT INTO registrations (user_id, event_id, pseudonym, email, phone, topics, notes, consent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + registrationColumns
	row := s.db.QueryRowContext(ctx, query,
		nullableID(registration.UserID),
		registration.EventID,
		registration.Pseudonym,
		nullable(registration.Email),
		nullable(registration.Phone),
		pq.Array(registration.Topics),
		nullable(registration.Notes),
		registration.Consent,
		registration.CreatedAt,
	)
	created, err := scanRegistration(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY id`
	return s.list(ctx, query, userID)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Registration, error) {
	return s.list(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY id`)
}

func (s *PostgresStore) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		registration models.Registration
		userID       sql.NullInt64
		email        sql.NullString
		phone        sql.NullString
		notes        sql.NullString
	)
	err := row.Scan(
		&registration.ID, &userID, &registration.EventID, &registration.Pseudonym,
		&email, &phone, pq.Array(&registration.Topics), &notes,
		&registration.Consent, &registration.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	registration.UserID = userID.Int64
	registration.Email = email.String
	registration.Phone = phone.String
	registration.Notes = notes.String
	return &registration, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
