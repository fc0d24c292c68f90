// Package sanitize strips or masks privacy-sensitive fields before data
// crosses the trust boundary to the browser or a log sink. Everything here is
// a pure function of its input: no I/O, no logging of the values it removes.
package sanitize

import (
	"slices"
	"strings"
)

// sensitiveFields are dropped entirely from any outbound record. Removal, not
// convention: a field in this set never appears in a sanitized copy.
var sensitiveFields = []string{
	"email",
	"name",
	"realName",
	"phone",
	"passwordHash",
	"oauthProfile",
	"oauthTokens",
	"recoveryHash",
}

// MaskFunc irreversibly transforms a sensitive value for partial disclosure.
type MaskFunc func(string) string

// Sanitize returns a copy of record with the default sensitive set and any
// extra field names removed. The input map is never mutated.
func Sanitize(record map[string]any, extra ...string) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if IsSensitive(k) || slices.Contains(extra, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Mask returns a copy of record where each named field is replaced by the
// result of its mask function. Fields without a mask function pass through
// untouched; absent fields are skipped.
func Mask(record map[string]any, maskFns map[string]MaskFunc) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		fn, ok := maskFns[k]
		if !ok {
			out[k] = v
			continue
		}
		s, isString := v.(string)
		if !isString || s == "" {
			// Non-string sensitive values cannot be masked safely; drop them.
			continue
		}
		out[k] = fn(s)
	}
	return out
}

// MaskEmail keeps the first two characters of the local part and the domain:
// "abcdef@example.com" -> "ab****@example.com". Values without "@" collapse
// to "****".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	local, domain := email[:at], email[at:]
	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	return local[:visible] + "****" + domain
}

// MaskPhone keeps the last four digits: "+1 555 867 5309" -> "***-***-5309".
func MaskPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + string(digits[len(digits)-4:])
}

// IsSensitive reports whether a field name is in the default sensitive set.
// Sanitize drops through this check; callers assembling log payloads can use
// it to refuse raw identifier fields up front.
func IsSensitive(field string) bool {
	for _, f := range sensitiveFields {
		if f == field {
			return true
		}
	}
	return false
}

// SensitiveFields returns a copy of the default sensitive set.
func SensitiveFields() []string {
	out := make([]string, len(sensitiveFields))
	copy(out, sensitiveFields)
	return out
}
