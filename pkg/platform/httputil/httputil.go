// Package httputil centralizes JSON response writing so every handler emits
// the same envelope and domain error codes map to HTTP statuses in one place.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "waitlist/pkg/domain-errors"
)

// ErrorResponse is the JSON envelope for all error responses.
type ErrorResponse struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description,omitempty"`
	Fields           []dErrors.Field `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Internal and
// storage errors keep their description out of the body so no store-specific
// detail reaches the caller.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	resp := ErrorResponse{Error: errorToken(code)}
	switch code {
	case dErrors.CodeInternal, dErrors.CodeStorageUnavailable:
		// description omitted
	default:
		resp.ErrorDescription = dErrors.MessageOf(err)
		resp.Fields = dErrors.FieldsOf(err)
	}

	WriteJSON(w, ToHTTPStatus(code), resp)
}

// ToHTTPStatus maps a domain error code to its HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeDuplicateEmail:
		return http.StatusConflict
	case dErrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case dErrors.CodeStorageUnavailable, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorToken keeps the wire token for internal errors generic.
func errorToken(code dErrors.Code) string {
	if code == dErrors.CodeInternal {
		return "internal_error"
	}
	return string(code)
}
