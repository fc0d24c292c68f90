package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recoveryregister/internal/identity/models"
	dErrors "recoveryregister/pkg/domain-errors"
)

var basic = Policy{PasswordMinLen: 6, PseudonymMinLen: 2}

func TestClassify_AnonymityFollowsEmail(t *testing.T) {
	t.Run("no email means anonymous", func(t *testing.T) {
		c, err := Classify(Input{Pseudonym: "alice", Password: "secret1"}, basic)
		require.NoError(t, err)
		assert.True(t, c.IsAnonymous)
		assert.Equal(t, models.TypePseudonym, c.Type)
		assert.Equal(t, "alice", c.Username)
	})

	t.Run("email means identifiable", func(t *testing.T) {
		c, err := Classify(Input{Email: "bob@example.com", Password: "secret1"}, basic)
		require.NoError(t, err)
		assert.False(t, c.IsAnonymous)
		assert.Equal(t, models.TypeEmail, c.Type)
	})
}

func TestClassify_UsernameDerivation(t *testing.T) {
	t.Run("pseudonym wins when both given", func(t *testing.T) {
		c, err := Classify(Input{Pseudonym: "alice", Email: "alice.w@example.com", Password: "secret1"}, basic)
		require.NoError(t, err)
		assert.Equal(t, "alice", c.Username)
		assert.False(t, c.IsAnonymous)
	})

	t.Run("email local part when no pseudonym", func(t *testing.T) {
		c, err := Classify(Input{Email: "bob.smith@example.com", Password: "secret1"}, basic)
		require.NoError(t, err)
		assert.Equal(t, "bob.smith", c.Username)
	})
}

func TestClassify_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"neither identifier", Input{Password: "secret1"}},
		{"missing password", Input{Pseudonym: "alice"}},
		{"short password", Input{Pseudonym: "alice", Password: "12345"}},
		{"malformed email", Input{Email: "not-an-email", Password: "secret1"}},
		{"pseudonym too short for grammar", Input{Pseudonym: "ab", Password: "secret1"}},
		{"pseudonym with spaces", Input{Pseudonym: "a l i c e", Password: "secret1"}},
		{"pseudonym too long", Input{Pseudonym: "abcdefghijklmnopqrstu", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.in, basic)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestClassify_StricterPolicy(t *testing.T) {
	strict := Policy{PasswordMinLen: 8, PseudonymMinLen: 4}

	_, err := Classify(Input{Pseudonym: "alice", Password: "secret1"}, strict)
	require.Error(t, err, "7 chars fails an 8-char floor")

	_, err = Classify(Input{Pseudonym: "abc", Password: "longenough"}, strict)
	require.Error(t, err, "3 chars fails a 4-char pseudonym floor")
}

func TestValidateIdentifier_CanonicalGrammar(t *testing.T) {
	require.NoError(t, ValidateIdentifier("alice"))
	require.NoError(t, ValidateIdentifier("bob@example.com"))
	require.NoError(t, ValidateIdentifier("user_name-42"))

	for _, bad := range []string{"", "ab", "has space", "semi;colon", "x@"} {
		err := ValidateIdentifier(bad)
		require.Error(t, err, "identifier %q", bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}
