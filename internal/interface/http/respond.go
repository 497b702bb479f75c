package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

const msgInternal = "An unexpected error occurred"

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code: validation 400, not found 404,
// everything else 500 without leaking details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("path", r.URL.Path), logger.Err(err))
	} else {
		log.Debug("request rejected", logger.Int("status", status), logger.Err(err))
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func classify(err error) (int, string) {
	if msg, ok := shared.UserMessage(err); ok {
		return http.StatusBadRequest, msg
	}

	var de *shared.DomainError
	switch {
	case shared.IsValidation(err):
		if errors.As(err, &de) {
			return http.StatusBadRequest, de.Message
		}
		return http.StatusBadRequest, err.Error()
	case shared.IsNotFound(err):
		if errors.As(err, &de) {
			return http.StatusNotFound, de.Message
		}
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return shared.Validation("http", "Decode", "Invalid request body.", err)
	}
	return nil
}
