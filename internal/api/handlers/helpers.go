package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	db "github.com/recpolicy/policyrag/internal/core/database"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the facade's typed errors onto HTTP status codes. The
// persistence core never formats HTTP responses; this is the only place the
// mapping lives.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, db.ErrDenied):
		status = http.StatusUnauthorized
	case errors.Is(err, db.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, db.ErrResourceExhausted):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"message": err.Error()})
}

// idParam parses a chi URL parameter as an entity id.
func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
