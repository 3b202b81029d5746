package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Success: status < http.StatusBadRequest,
		Data:    data,
		Message: message,
	})
}

// respondError maps error kind to status code in one place. Unauthorized
// and NotFound collapse to the same generic denial so callers cannot
// distinguish expired from invalid from account-missing.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ValidationErr):
		respondJSON(w, http.StatusBadRequest, nil, "all fields are required")
	case errors.Is(err, auth.ConflictErr):
		respondJSON(w, http.StatusConflict, nil, "username or email already exists")
	case errors.Is(err, auth.UnauthorizedErr), errors.Is(err, auth.NotFoundErr):
		respondJSON(w, http.StatusUnauthorized, nil, "not authorized")
	default:
		log.Error().Err(err).Msg("internal error")
		respondJSON(w, http.StatusInternalServerError, nil, "internal server error")
	}
}
