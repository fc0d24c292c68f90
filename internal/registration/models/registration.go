package models

import (
	"strings"
	"time"

	dErrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/sanitize"
)

// Registration is one submitted intake form. Email and phone are
// optional; a walk-in with nothing but a pseudonym is a first-class
// registrant.
type Registration struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id,omitempty"` // zero when nobody was signed in
	EventID   int64     `json:"event_id"`
	Pseudonym string    `json:"pseudonym"`
	Email     string    `json:"-"`
	Phone     string    `json:"-"`
	Topics    []string  `json:"topics,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Consent   bool      `json:"consent"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRegistration validates and constructs a registration.
func NewRegistration(eventID int64, pseudonym, email, phone string, topics []string, notes string, consent bool, now time.Time) (*Registration, error) {
	pseudonym = strings.TrimSpace(pseudonym)
	if eventID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "event_id is required")
	}
	if pseudonym == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "pseudonym is required")
	}
	if !consent {
		return nil, dErrors.New(dErrors.CodeValidation, "consent is required")
	}
	return &Registration{
		EventID:   eventID,
		Pseudonym: pseudonym,
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		Topics:    topics,
		Notes:     notes,
		Consent:   consent,
		CreatedAt: now,
	}, nil
}

// AdminView flattens the registration for the admin listing with the
// contact fields masked rather than dropped.
func (r *Registration) AdminView() map[string]any {
	record := map[string]any{
		"id":         r.ID,
		"user_id":    r.UserID,
		"event_id":   r.EventID,
		"pseudonym":  r.Pseudonym,
		"topics":     r.Topics,
		"consent":    r.Consent,
		"created_at": r.CreatedAt,
	}
	if r.Email != "" {
		record["email"] = r.Email
	}
	if r.Phone != "" {
		record["phone"] = r.Phone
	}
	return sanitize.Mask(record, map[string]sanitize.MaskFunc{
		"email": sanitize.MaskEmail,
		"phone": sanitize.MaskPhone,
	})
}
