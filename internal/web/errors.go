package web

// errors.go maps core error kinds onto HTTP responses.
//
// The flow: a handler gets an error from the service, calls respondError,
// the error's kind selects the status code, the technical detail is logged
// with the request ID, and the client receives a JSON envelope with the
// human-readable message (and the offending field, for validation errors).

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/prodcat/catalog/internal/catalog"
)

// errorResponse is the JSON envelope for failed requests.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Success    bool   `json:"success"`
}

// statusForKind maps an error classification to an HTTP status code.
func statusForKind(kind catalog.Kind) int {
	switch kind {
	case catalog.KindInvalid:
		return http.StatusBadRequest
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the client-facing
// envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForKind(catalog.KindOf(err))

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeErrorResponse(w, status, err.Error(), catalog.FieldOf(err))
}

func writeErrorResponse(w http.ResponseWriter, status int, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{
		StatusCode: status,
		Message:    message,
		Field:      field,
		Success:    false,
	}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
