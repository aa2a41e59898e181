package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shineum/eml-studio/internal/eml"
	"github.com/shineum/eml-studio/internal/rewrite"
	"github.com/shineum/eml-studio/internal/store"
)

var (
	errBadRequest  = errors.New("bad request")
	errForbidden   = errors.New("only the owner can modify a template")
	errForeignTeam = errors.New("team_id must match the caller's team")
	errDelivery    = errors.New("delivery failed")
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a handler error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errForbidden), errors.Is(err, errForeignTeam):
		return http.StatusForbidden
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidTemplate),
		errors.Is(err, rewrite.ErrInvalidAction),
		errors.Is(err, rewrite.ErrEmptyText),
		errors.Is(err, eml.ErrNotSevenBit):
		return http.StatusBadRequest
	case errors.Is(err, rewrite.ErrUnavailable), errors.Is(err, errDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and their
// details withheld from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
