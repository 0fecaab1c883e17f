package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/namastexlabs/roombook/internal/auth"
)

const stateCookie = "roombook_oauth_state"

// AuthStatusResponse describes the active identity for the UI.
type AuthStatusResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          string            `json:"user,omitempty"`
	AuthMethod    auth.Mode         `json:"authMethod"`
	Capabilities  auth.Capabilities `json:"capabilities"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	identity := s.resolver.Resolve(r)
	writeJSON(w, http.StatusOK, AuthStatusResponse{
		Authenticated: identity.Delegated(),
		User:          identity.Email,
		AuthMethod:    identity.Mode,
		Capabilities:  identity.Capabilities(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if s.flow == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "sign-in is not configured on this server"})
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		HttpOnly: true,
		MaxAge:   300,
	})
	http.Redirect(w, r, s.flow.LoginURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if s.flow == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "sign-in is not configured on this server"})
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "authorization failed",
			Details: errParam + ": " + r.URL.Query().Get("error_description"),
		})
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeValidationError(w, "missing code or state parameter")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value != state {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "state mismatch"})
		return
	}

	sess, err := s.flow.HandleCallback(r.Context(), code)
	if err != nil {
		s.log.Error("oauth callback failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to complete sign-in", Details: err.Error()})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/auth", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	if cookie, err := r.Cookie(auth.SessionCookie); err == nil && s.flow != nil {
		s.flow.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{Name: auth.SessionCookie, Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
