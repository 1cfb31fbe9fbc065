package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"expensed/internal/core"
)

type (
	// messageResponse is the envelope for confirmations and errors.
	messageResponse struct {
		Message string `json:"message"`
	}

	// dataResponse wraps list and analytics payloads.
	dataResponse struct {
		Data any `json:"data"`
	}
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dataResponse{Data: data})
}

// writeServiceError maps the error taxonomy to HTTP statuses: validation
// failures become 400, unknown users or ids 404, everything else a generic
// 500. The internal detail is logged, never sent to the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Unexpected failure",
			"error", err, "method", r.Method, "path", r.URL.Path)
		writeMessage(w, http.StatusInternalServerError, "Some unexpected error occurred!")
	}
}
