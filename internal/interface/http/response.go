package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse is the uniform response envelope.
type JSONResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes an error in a response.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a success response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Success: true, Data: data})
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

// writeDomainError maps a domain error to an HTTP response.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)

	message := "An unexpected error occurred"
	if status != http.StatusInternalServerError {
		message = err.Error()
		var de *shared.DomainError
		if errors.As(err, &de) {
			message = de.Message
		}
	}

	writeError(w, status, code, message)
}

// statusForError maps domain errors to HTTP status codes. Specific
// business sentinels are checked before the broad validation and
// not-found families.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, shared.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, shared.ErrHintUnavailable):
		return http.StatusNotFound, "hint_unavailable"
	case errors.Is(err, shared.ErrAlreadyScored):
		return http.StatusConflict, "already_scored"
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, shared.ErrNoSourceText):
		return http.StatusBadRequest, "no_source_text"
	case isUpstreamFault(err):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, shared.ErrExternalService):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrInvalidEntity):
		return http.StatusUnprocessableEntity, "unknown_entity"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// isUpstreamFault reports whether the error describes a malformed or
// unusable answer from a dependency rather than a bad client request.
// An engine that recommends an unknown node or returns an empty
// question set is a gateway fault, not the caller's mistake.
func isUpstreamFault(err error) bool {
	if errors.Is(err, shared.ErrEmptyQuestionSet) {
		return true
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		switch de.Domain {
		case "engine", "drive":
			return true
		}
		if errors.Is(de.Kind, shared.ErrInvalidFormat) && de.Err != nil {
			return true
		}
	}
	return false
}

// decodeJSON decodes a request body into dst. Returns false after
// writing the error response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return false
	}
	return true
}
