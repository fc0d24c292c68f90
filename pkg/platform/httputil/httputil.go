// Package httputil writes JSON responses and maps domain errors onto the
// wire contract. Internal errors never leak their description.
package httputil

import (
	"encoding/json"
	"net/http"

	domainerrors "recoveryregister/pkg/domain-errors"
)

// ErrorResponse is the JSON shape of every error the API returns.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and wire code.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.GetCode(err)
	resp := ErrorResponse{Error: wireCode(code)}
	if code != domainerrors.CodeInternal && code != domainerrors.CodeInvariantViolation {
		resp.ErrorDescription = domainerrors.Message(err)
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(err), resp)
}

func wireCode(code domainerrors.Code) string {
	switch code {
	case domainerrors.CodeValidation:
		return "validation_error"
	case domainerrors.CodeInvalidInput:
		return "invalid_input"
	case domainerrors.CodeBadRequest:
		return "bad_request"
	case domainerrors.CodeConflict:
		return "conflict"
	case domainerrors.CodeUnauthorized:
		return "unauthorized"
	case domainerrors.CodeForbidden:
		return "forbidden"
	case domainerrors.CodeNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}
