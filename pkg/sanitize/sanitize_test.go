package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullyPopulated exercises the worst case: every optional sensitive field set.
func fullyPopulated() map[string]any {
	return map[string]any{
		"id":           int64(7),
		"username":     "alice",
		"email":        "alice@example.com",
		"name":         "Alice Walker",
		"realName":     "Alice Walker",
		"phone":        "+1 555 867 5309",
		"passwordHash": "$2a$10$abcdefghijklmnopqrstuv",
		"oauthProfile": map[string]any{"provider": "google"},
		"oauthTokens":  []string{"ya29.a0"},
		"recoveryHash": "deadbeef",
		"isAnonymous":  false,
		"role":         "user",
	}
}

func TestSanitize_NeverContainsSensitiveKeys(t *testing.T) {
	out := Sanitize(fullyPopulated())

	for _, field := range SensitiveFields() {
		_, present := out[field]
		assert.False(t, present, "sanitized output leaked %q", field)
	}
	assert.Equal(t, "alice", out["username"])
	assert.Equal(t, false, out["isAnonymous"])
}

func TestSanitize_ExtraFields(t *testing.T) {
	out := Sanitize(map[string]any{"username": "alice", "notes": "private"}, "notes")
	_, present := out["notes"]
	assert.False(t, present)
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	in := fullyPopulated()
	_ = Sanitize(in)
	require.Contains(t, in, "email", "input record must stay untouched")
}

func TestMask_PartialDisclosure(t *testing.T) {
	out := Mask(fullyPopulated(), map[string]MaskFunc{
		"email": MaskEmail,
		"phone": MaskPhone,
	})

	assert.Equal(t, "al****@example.com", out["email"])
	assert.Equal(t, "***-***-5309", out["phone"])
	assert.Equal(t, "alice", out["username"])
}

func TestMask_DropsUnmaskableSensitiveValue(t *testing.T) {
	out := Mask(map[string]any{"email": 42}, map[string]MaskFunc{"email": MaskEmail})
	_, present := out["email"]
	assert.False(t, present, "non-string value under a mask must be dropped, not leaked")
}

func TestIsSensitive(t *testing.T) {
	for _, field := range SensitiveFields() {
		assert.True(t, IsSensitive(field), field)
	}
	assert.False(t, IsSensitive("username"))
	assert.False(t, IsSensitive("Email"), "matching is exact, not case-folded")
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcdef@example.com", "ab****@example.com"},
		{"a@example.com", "a****@example.com"},
		{"not-an-email", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in), "input %q", tt.in)
	}
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "***-***-5309", MaskPhone("(555) 867-5309"))
	assert.Equal(t, "***-***-****", MaskPhone("123"))
}
