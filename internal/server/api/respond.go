package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps service-layer sentinels to HTTP status codes and client
// messages. Anything unmapped is a 500 with no detail.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidTenant):
		return http.StatusForbidden, "Invalid API key"
	case errors.Is(err, common.ErrUserGone):
		return http.StatusForbidden, "User no longer exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired. Please log in again."
	case errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenRevoked),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, common.ErrUserExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, common.ErrRefreshTooEarly):
		return http.StatusBadRequest, "Token still valid, refresh not needed"
	case errors.Is(err, common.ErrResetTokenNotFound):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, common.ErrResetTokenUsed):
		return http.StatusBadRequest, "Token already used"
	case errors.Is(err, common.ErrResetTokenExpired):
		return http.StatusBadRequest, "Token expired"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: message})
}
