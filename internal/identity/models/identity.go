package models

import (
	"time"

	dErrors "recoveryregister/pkg/domain-errors"
)

// IdentityType records which identifier anchors an identity.
type IdentityType string

const (
	TypePseudonym IdentityType = "pseudonym"
	TypeEmail     IdentityType = "email"
	// TypeOAuth is reserved for federation; no provider is active.
	TypeOAuth IdentityType = "oauth"
)

// Role gates access to admin surfaces. Default is RoleUser; mutation happens
// only through a trusted administrative action.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin reports whether the role grants admin-surface access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsValid reports whether the role is a known value.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

// SecurityProfile gates which session validation features apply.
type SecurityProfile string

const (
	ProfileBasic    SecurityProfile = "basic"
	ProfileAdvanced SecurityProfile = "advanced"
	ProfileAdmin    SecurityProfile = "admin"
)

// Identity is the aggregate root for one registrant or administrator.
//
// Invariants:
//   - at least one of Username/Email is set
//   - IsAnonymous == (Email == "") at creation; cleared only by UpgradeEmail
//   - PasswordHash is opaque and never serialized
//   - soft lifecycle only: no hard delete path exists
type Identity struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username,omitempty"`
	Email        string          `json:"-"` // masked or dropped at every boundary
	Phone        string          `json:"-"`
	PasswordHash string          `json:"-"`
	Type         IdentityType    `json:"identityType"`
	IsAnonymous  bool            `json:"isAnonymous"`
	Role         Role            `json:"role"`
	Profile      SecurityProfile `json:"securityProfile"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// NewIdentity constructs an identity, enforcing the anonymity invariant.
func NewIdentity(username, email, passwordHash string, typ IdentityType, now time.Time) (*Identity, error) {
	if username == "" && email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity needs a username or an email")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity needs a password hash")
	}
	return &Identity{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Type:         typ,
		IsAnonymous:  email == "",
		Role:         RoleUser,
		Profile:      ProfileBasic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// UpgradeEmail is the only path that clears IsAnonymous: supplying an email
// later is an explicit identity upgrade, never a silent toggle.
func (i *Identity) UpgradeEmail(email string, now time.Time) error {
	if email == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "identity upgrade requires an email")
	}
	i.Email = email
	i.IsAnonymous = false
	i.UpdatedAt = now
	return nil
}

// SetRole mutates the role and keeps the security profile in step.
func (i *Identity) SetRole(role Role, now time.Time) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown role")
	}
	i.Role = role
	if role.IsAdmin() {
		i.Profile = ProfileAdmin
	}
	i.UpdatedAt = now
	return nil
}

// PublicIdentity is the typed boundary projection of an identity. It has
// no email, phone, or hash field to leak.
type PublicIdentity struct {
	ID          int64           `json:"id"`
	Username    string          `json:"username,omitempty"`
	Type        IdentityType    `json:"identityType"`
	IsAnonymous bool            `json:"isAnonymous"`
	Role        Role            `json:"role"`
	Profile     SecurityProfile `json:"securityProfile"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Public projects the identity for responses that want a fixed shape.
func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:          i.ID,
		Username:    i.Username,
		Type:        i.Type,
		IsAnonymous: i.IsAnonymous,
		Role:        i.Role,
		Profile:     i.Profile,
		CreatedAt:   i.CreatedAt,
	}
}

// Record flattens the identity into the field-name shape the sanitizer
// operates on. Every auth response passes through pkg/sanitize before
// serialization; nothing returns this map to a client directly.
func (i *Identity) Record() map[string]any {
	return map[string]any{
		"id":              i.ID,
		"username":        i.Username,
		"email":           i.Email,
		"phone":           i.Phone,
		"passwordHash":    i.PasswordHash,
		"identityType":    string(i.Type),
		"isAnonymous":     i.IsAnonymous,
		"role":            string(i.Role),
		"securityProfile": string(i.Profile),
		"createdAt":       i.CreatedAt,
	}
}
