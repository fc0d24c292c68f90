package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"recoveryregister/internal/schedule/models"
	"recoveryregister/pkg/platform/sentinel"
)

// PostgresStore persists events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, title, description, starts_at, duration_minutes, location, capacity, active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, starts_at, duration_minutes, location, capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := s.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.StartsAt,
		event.DurationMinutes,
		event.Location,
		event.Capacity,
		event.Active,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) Update(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events
		SET title = $2, description = $3, starts_at = $4, duration_minutes = $5,
		    location = $6, capacity = $7, active = $8, updated_at = $9
		WHERE id = $1`,
		event.ID,
		event.Title,
		event.Description,
		event.StartsAt,
		event.DurationMinutes,
		event.Location,
		event.Capacity,
		event.Active,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListUpcoming(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE active AND starts_at > $1
		ORDER BY starts_at`
	return s.list(ctx, query, now)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Event, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event       models.Event
		description sql.NullString
		location    sql.NullString
	)
	err := row.Scan(
		&event.ID, &event.Title, &description, &event.StartsAt, &event.DurationMinutes,
		&location, &event.Capacity, &event.Active, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Description = description.String
	event.Location = location.String
	return &event, nil
}
