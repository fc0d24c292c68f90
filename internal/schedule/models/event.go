package models

import (
	"strings"
	"time"

	dErrors "recoveryregister/pkg/domain-errors"
)

// Event is one scheduled support-group session the public form can
// register for.
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"`
	Capacity        int       `json:"capacity"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEvent validates and constructs an event. Capacity zero means
// unlimited.
func NewEvent(title string, startsAt time.Time, durationMinutes, capacity int, now time.Time) (*Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event needs a title")
	}
	if startsAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event needs a start time")
	}
	if durationMinutes <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event duration must be positive")
	}
	if capacity < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event capacity cannot be negative")
	}
	return &Event{
		Title:           title,
		StartsAt:        startsAt,
		DurationMinutes: durationMinutes,
		Capacity:        capacity,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// HasCapacity reports whether another registration fits.
func (e *Event) HasCapacity(registered int) bool {
	return e.Capacity == 0 || registered < e.Capacity
}

// Upcoming reports whether the event has not started yet.
func (e *Event) Upcoming(now time.Time) bool {
	return e.StartsAt.After(now)
}

// Patch carries optional admin edits. Nil fields stay untouched.
type Patch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Location        *string    `json:"location,omitempty"`
	Capacity        *int       `json:"capacity,omitempty"`
	Active          *bool      `json:"active,omitempty"`
}

// Apply writes the patch onto the event.
func (e *Event) Apply(p Patch, now time.Time) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
		}
		e.Title = title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartsAt != nil {
		e.StartsAt = *p.StartsAt
	}
	if p.DurationMinutes != nil {
		if *p.DurationMinutes <= 0 {
			return dErrors.New(dErrors.CodeValidation, "duration must be positive")
		}
		e.DurationMinutes = *p.DurationMinutes
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Capacity != nil {
		if *p.Capacity < 0 {
			return dErrors.New(dErrors.CodeValidation, "capacity cannot be negative")
		}
		e.Capacity = *p.Capacity
	}
	if p.Active != nil {
		e.Active = *p.Active
	}
	e.UpdatedAt = now
	return nil
}
