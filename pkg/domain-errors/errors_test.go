package domainerrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	dErrors "recoveryregister/pkg/domain-errors"
	"recoveryregister/pkg/platform/sentinel"
)

func TestCodePropagatesThroughWrapping(t *testing.T) {
	inner := dErrors.New(dErrors.CodeNotFound, "event not found")
	outer := fmt.Errorf("loading schedule: %w", inner)

	if !dErrors.HasCode(outer, dErrors.CodeNotFound) {
		t.Errorf("expected not_found code through fmt wrapping")
	}
	if got := dErrors.GetCode(outer); got != dErrors.CodeNotFound {
		t.Errorf("GetCode = %q, want %q", got, dErrors.CodeNotFound)
	}
}

func TestWrapKeepsSentinelReachable(t *testing.T) {
	err := dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "username already taken")

	if !errors.Is(err, sentinel.ErrConflict) {
		t.Errorf("expected sentinel to stay reachable via errors.Is")
	}
	if got := dErrors.Message(err); got != "username already taken" {
		t.Errorf("Message = %q, want outer message only", got)
	}
}

func TestUncodedErrorsClassifyAsInternal(t *testing.T) {
	err := errors.New("pq: connection refused")

	if got := dErrors.GetCode(err); got != dErrors.CodeInternal {
		t.Errorf("GetCode = %q, want internal", got)
	}
	if got := dErrors.Message(err); got == err.Error() {
		t.Errorf("Message leaked the raw error text %q", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code dErrors.Code
		want int
	}{
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeForbidden, http.StatusForbidden},
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeConflict, http.StatusBadRequest},
		{dErrors.CodeInternal, http.StatusInternalServerError},
		{dErrors.CodeInvariantViolation, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := dErrors.ToHTTPStatus(dErrors.New(tc.code, "x")); got != tc.want {
			t.Errorf("ToHTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}
