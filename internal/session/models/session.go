package models

import (
	"time"

	identitymodels "recoveryregister/internal/identity/models"
)

// TrustLevel is the position of a browser context in the trust ladder.
// Anonymous is both the initial state (no cookie) and reachable from every
// other state via logout or expiry.
type TrustLevel string

const (
	LevelAnonymous TrustLevel = "anonymous"
	LevelUser      TrustLevel = "user"
	LevelAdmin     TrustLevel = "admin"
)

// LevelFor derives the trust level a fresh session gets for a role.
func LevelFor(role identitymodels.Role) TrustLevel {
	if role.IsAdmin() {
		return LevelAdmin
	}
	return LevelUser
}

// Snapshot is the minimal identity projection a session carries: never the
// password hash, raw email, or phone. Role staleness is bounded by the
// regenerate-on-privilege-change rule.
type Snapshot struct {
	UserID      int64                          `json:"user_id"`
	Username    string                         `json:"username"`
	Role        identitymodels.Role            `json:"role"`
	Profile     identitymodels.SecurityProfile `json:"security_profile"`
	IsAnonymous bool                           `json:"is_anonymous"`
}

// SnapshotOf projects an identity into its session snapshot.
func SnapshotOf(identity *identitymodels.Identity) Snapshot {
	return Snapshot{
		UserID:      identity.ID,
		Username:    identity.Username,
		Role:        identity.Role,
		Profile:     identity.Profile,
		IsAnonymous: identity.IsAnonymous,
	}
}

// Session is one authenticated browser context, keyed by an opaque
// cookie-carried token.
type Session struct {
	Token      string     `json:"-"` // the store key; never serialized in responses
	Level      TrustLevel `json:"level"`
	User       Snapshot   `json:"user"`
	Device     string     `json:"device"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
}

// Expired reports whether the rolling TTL has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Touch refreshes the rolling TTL on activity.
func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastSeenAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Summary is the client-facing projection for session listings. The token
// itself stays server-side; only an "is this the current one" marker goes out.
type Summary struct {
	Device     string    `json:"device"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsCurrent  bool      `json:"is_current"`
}
