package api

import (
	"encoding/json"
	"net/http"
)

const minPasswordLength = 8

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type userBody struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	SiteID   string `json:"site_id,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return false
	}
	return true
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Email and password required"})
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Password must be at least 8 characters"})
		return
	}

	tn := tenantFrom(r.Context())

	s.logger.Info(r.Context(), "Registration request", "site_id", tn.SiteID)

	user, err := s.auth.Register(r.Context(), req.Email, req.Password, req.Name, tn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string   `json:"message"`
		User    userBody `json:"user"`
	}{
		Message: "Registration successful",
		User:    userBody{UserID: user.ID, Email: user.Email, Name: user.Name},
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Email and password required"})
		return
	}

	tn := tenantFrom(r.Context())

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password, tn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Login", "site_id", tn.SiteID)

	writeJSON(w, http.StatusOK, struct {
		Token string   `json:"token"`
		User  userBody `json:"user"`
	}{
		Token: token,
		User:  userBody{UserID: user.ID, Email: user.Email, Name: user.Name},
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if err := s.tokens.Revoke(r.Context(), claims); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Logged out successfully"})
}

// handleRefresh reads the bearer token itself instead of going through
// withAuth: an expired token within the refresh window must still be
// exchangeable, and withAuth would reject it.
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := bearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "No token provided"})
		return
	}

	token, err := s.tokens.Refresh(r.Context(), tokenString)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *HTTPServer) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Email required"})
		return
	}

	tn := tenantFrom(r.Context())

	if err := s.reset.Request(r.Context(), req.Email, tn); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Same answer for known and unknown accounts.
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "If account exists, reset email sent"})
}

func (s *HTTPServer) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Token and new password required"})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Password must be at least 8 characters"})
		return
	}

	if err := s.reset.Redeem(r.Context(), req.Token, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "Password reset successful"})
}

func (s *HTTPServer) handleUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	user, err := s.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User userBody `json:"user"`
	}{User: userBody{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		ClientID: user.ClientID,
		SiteID:   user.SiteID,
	}})
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (s *HTTPServer) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "live"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ready"})
}
