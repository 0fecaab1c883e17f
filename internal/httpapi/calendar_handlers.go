package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/namastexlabs/roombook/internal/rooms"
)

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCalendars(w, r)
	case http.MethodPost:
		s.createCalendar(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) listCalendars(w http.ResponseWriter, r *http.Request) {
	// Listing always runs under the service identity: the room inventory is
	// the same for every viewer.
	calendars, err := s.rooms.List(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calendars": calendars})
}

func (s *Server) createCalendar(w http.ResponseWriter, r *http.Request) {
	var req rooms.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeValidationError(w, "name is required")
		return
	}

	info, err := s.rooms.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// ShareRequest adds an access rule to an existing calendar.
type ShareRequest struct {
	CalendarID string `json:"calendarId"`
	Public     bool   `json:"public,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
}

func (s *Server) handleCalendarShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	// Sharing is an administrative operation; a delegated session cannot
	// manage room visibility.
	if s.resolver.Resolve(r).Delegated() {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "only the service account can manage calendar sharing"})
		return
	}

	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if req.CalendarID == "" {
		writeValidationError(w, "calendarId is required")
		return
	}
	if !req.Public && req.Email == "" {
		writeValidationError(w, "email is required for non-public sharing")
		return
	}

	if err := s.rooms.Share(r.Context(), req.CalendarID, req.Public, req.Email, req.Role); err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "calendar sharing updated"})
}

func (s *Server) handleCalendarByID(w http.ResponseWriter, r *http.Request) {
	calendarID := strings.TrimPrefix(r.URL.Path, "/api/calendars/")
	if calendarID == "" {
		writeValidationError(w, "calendar ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		info, err := s.rooms.Get(r.Context(), calendarID)
		if err != nil {
			s.writeError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case http.MethodDelete:
		if err := s.rooms.Delete(r.Context(), calendarID); err != nil {
			s.writeError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "calendar " + calendarID + " deleted"})
	default:
		writeMethodNotAllowed(w)
	}
}
