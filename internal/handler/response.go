package handler

// RESPONSE ENVELOPE:
// Every response from the API — success or failure — has the same shape:
//
//	{"success": true,  "data": {...},                         "status_code": 200}
//	{"success": false, "error": {"error": "...", "message": "..."}, "status_code": 404}
//
// The transport status code and the envelope's status_code always agree;
// the duplication exists for clients that log or forward bodies without
// keeping the response object around.
//
// WHY AN ENVELOPE?
// The frontend dispatches on ONE field (success) and one error tag, no
// matter which endpoint answered. Special cases like "you need to link
// GitHub first" become ordinary tagged errors instead of ad-hoc shapes.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/devfolio/internal/apperror"
)

// Envelope is the standard response wrapper for all API endpoints.
type Envelope struct {
	Success    bool           `json:"success"`
	Data       any            `json:"data,omitempty"`
	Error      *ErrorResponse `json:"error,omitempty"`
	StatusCode int            `json:"status_code"`
}

// ErrorResponse is the error object inside a failed envelope.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable tag, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends any payload with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE the body — once Encode calls
// w.Write, the headers are on the wire and further changes are ignored.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeData sends a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{
		Success:    true,
		Data:       data,
		StatusCode: status,
	})
}

// writeError maps a domain error to an HTTP status and error tag.
//
// This is the ONLY place domain errors meet HTTP. The service layer
// returns apperror sentinels; this function translates:
//
//	ErrValidation   → 400 validation_error
//	ErrUnauthorized → 401 unauthorized
//	ErrForbidden    → 403 forbidden
//	ErrNotFound     → 404 not_found
//	ErrConflict     → 409 conflict
//	ErrNotLinked    → 409 github_not_linked   (user-actionable, NOT a 401)
//	UpstreamError   → upstream's own status, upstream_error
//	anything else   → 500 internal_error (generic message, details logged)
//
// errors.Is/As walk the whole wrap chain, so services are free to annotate
// with fmt.Errorf("...: %w", err) without breaking the mapping.
func writeError(w http.ResponseWriter, err error) {
	// Upstream pass-through first: these carry their own status code and
	// the body text GitHub actually sent.
	var upstream *apperror.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, Envelope{
			Success:    false,
			Error:      &ErrorResponse{Error: "upstream_error", Message: upstream.Body},
			StatusCode: status,
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		tag := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			tag = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			tag = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			tag = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			tag = "not_found"
		case errors.Is(err, apperror.ErrNotLinked):
			// Deliberately NOT 401: the session is fine, the GitHub link is
			// missing. Clients show a "connect GitHub" prompt on this tag.
			status = http.StatusConflict
			tag = "github_not_linked"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			tag = "conflict"
		}

		writeJSON(w, status, Envelope{
			Success:    false,
			Error:      &ErrorResponse{Error: tag, Message: appErr.Message},
			StatusCode: status,
		})
		return
	}

	// Unknown error — generic 500. NEVER leak internals (SQL, file paths,
	// tokens) to the client; the middleware logger has the real error.
	writeJSON(w, http.StatusInternalServerError, Envelope{
		Success:    false,
		Error:      &ErrorResponse{Error: "internal_error", Message: "An internal error occurred"},
		StatusCode: http.StatusInternalServerError,
	})
}
