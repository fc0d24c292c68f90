// Package classifier derives identity type and anonymity status from raw
// registration input. Classification is pure: storage uniqueness is
// re-checked by the credential store before commit.
package classifier

import (
	"regexp"
	"strings"

	"recoveryregister/internal/identity/models"
	dErrors "recoveryregister/pkg/domain-errors"
)

// Canonical identifier grammar, applied uniformly to registration, login,
// and admin login: a valid email address OR a 3-20 character handle.
var (
	handleRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	emailRe  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// Policy holds the configurable validation minimums. Tests construct stricter
// policies directly; production values come from platform config.
type Policy struct {
	PasswordMinLen      int
	AdminPasswordMinLen int
	PseudonymMinLen     int
}

// Input is the raw registration payload before any trust decision.
type Input struct {
	Pseudonym string
	Email     string
	Password  string
}

// Classification is the derived identity shape.
type Classification struct {
	Type        models.IdentityType
	IsAnonymous bool
	Username    string
	Email       string
}

// Classify derives the identity type, anonymity status, and display username.
//
// Anonymity is automatic, never a user-toggled checkbox: supplying an email
// is itself the decision to be identifiable.
func Classify(in Input, policy Policy) (Classification, error) {
	pseudonym := strings.TrimSpace(in.Pseudonym)
	email := strings.TrimSpace(in.Email)

	if pseudonym == "" && email == "" {
		return Classification{}, dErrors.New(dErrors.CodeValidation, "a pseudonym or an email is required")
	}
	if err := ValidatePassword(in.Password, policy); err != nil {
		return Classification{}, err
	}
	if email != "" && !emailRe.MatchString(email) {
		return Classification{}, dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	if pseudonym != "" {
		if len(pseudonym) < policy.PseudonymMinLen {
			return Classification{}, dErrors.Newf(dErrors.CodeValidation, "pseudonym must be at least %d characters", policy.PseudonymMinLen)
		}
		if !handleRe.MatchString(pseudonym) {
			return Classification{}, dErrors.New(dErrors.CodeValidation, "pseudonym must be 3-20 letters, digits, '-' or '_'")
		}
	}

	c := Classification{
		IsAnonymous: email == "",
		Email:       email,
	}

	switch {
	case email != "":
		c.Type = models.TypeEmail
	default:
		c.Type = models.TypePseudonym
	}

	// Display convenience only; uniqueness is enforced at the store.
	if pseudonym != "" {
		c.Username = pseudonym
	} else {
		c.Username = email[:strings.Index(email, "@")]
	}

	return c, nil
}

// ValidateIdentifier checks a login identifier against the canonical grammar.
func ValidateIdentifier(identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	if !emailRe.MatchString(identifier) && !handleRe.MatchString(identifier) {
		return dErrors.New(dErrors.CodeValidation, "identifier must be an email or a 3-20 character handle")
	}
	return nil
}

// ValidatePassword checks the password floor for the given policy.
func ValidatePassword(password string, policy Policy) error {
	if password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if len(password) < policy.PasswordMinLen {
		return dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", policy.PasswordMinLen)
	}
	return nil
}
