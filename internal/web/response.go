package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// apiResponse is the success envelope every JSON endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// writeResponse writes a JSON success envelope.
func writeResponse(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
