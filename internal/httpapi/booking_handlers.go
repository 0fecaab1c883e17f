package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/namastexlabs/roombook/internal/booking"
	"github.com/namastexlabs/roombook/internal/ics"
)

// CreateBookingRequest is the JSON payload for POST /api/bookings.
type CreateBookingRequest struct {
	CalendarID     string   `json:"calendarId"`
	Title          string   `json:"title"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	OrganizerName  string   `json:"organizerName,omitempty"`
	OrganizerEmail string   `json:"organizerEmail,omitempty"`
	Description    string   `json:"description,omitempty"`
	Attendees      []string `json:"attendees,omitempty"`
}

// BookingResponse wraps the per-write outcomes of a booking attempt.
type BookingResponse struct {
	Results []booking.Result `json:"results"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.availabilityView(w, r)
	case http.MethodPost:
		s.createBooking(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (s *Server) availabilityView(w http.ResponseWriter, r *http.Request) {
	calendarID := r.URL.Query().Get("calendarId")
	if calendarID == "" {
		writeValidationError(w, "calendarId is required")
		return
	}

	day := time.Now().In(s.loc)
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			writeValidationError(w, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	view, err := s.views.BuildView(r.Context(), calendarID, day)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}

	if req.CalendarID == "" {
		writeValidationError(w, "calendarId is required")
		return
	}
	if req.Title == "" {
		writeValidationError(w, "title is required")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeValidationError(w, "startTime must be RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeValidationError(w, "endTime must be RFC 3339")
		return
	}

	identity := s.resolver.Resolve(r)
	if identity.Capabilities().RequiresOrganizerInfo && strings.TrimSpace(req.OrganizerName) == "" {
		writeValidationError(w, "organizerName is required")
		return
	}

	results, err := s.bookings.Book(r.Context(), booking.Request{
		CalendarID:     req.CalendarID,
		Title:          req.Title,
		Slot:           booking.Interval{Start: start, End: end},
		OrganizerName:  req.OrganizerName,
		OrganizerEmail: req.OrganizerEmail,
		Notes:          req.Description,
		Attendees:      req.Attendees,
	}, identity)
	if err != nil {
		s.writeError(w, err, results)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{Results: results})
}

func (s *Server) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	if rest == "" {
		writeValidationError(w, "event ID is required")
		return
	}

	if eventID, ok := strings.CutSuffix(rest, "/ics"); ok {
		s.downloadInvite(w, r, eventID)
		return
	}

	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	calendarID := r.URL.Query().Get("calendarId")
	if calendarID == "" {
		writeValidationError(w, "calendarId is required")
		return
	}

	if err := s.bookings.DeleteBooking(r.Context(), calendarID, rest); err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "event " + rest + " deleted"})
}

func (s *Server) downloadInvite(w http.ResponseWriter, r *http.Request, eventID string) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	calendarID := r.URL.Query().Get("calendarId")
	if calendarID == "" || eventID == "" {
		writeValidationError(w, "calendarId and event ID are required")
		return
	}

	ev, err := s.events.GetEvent(r.Context(), calendarID, eventID)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}

	location := ev.Location
	if location == "" {
		// Fall back to the room name for the invite location.
		if info, err := s.rooms.Get(r.Context(), calendarID); err == nil {
			location = info.Summary
		}
	}

	invite, err := ics.Invite(ics.Event{
		UID:         ev.ID + "@roombook",
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    location,
		Start:       ev.Start,
		End:         ev.End,
	})
	if err != nil {
		s.writeError(w, err, nil)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="invite.ics"`)
	_, _ = w.Write(invite)
}

// AvailabilityRequest is the JSON payload for POST /api/availability.
type AvailabilityRequest struct {
	CalendarIDs []string `json:"calendarIds"`
	TimeMin     string   `json:"timeMin"`
	TimeMax     string   `json:"timeMax"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if len(req.CalendarIDs) == 0 {
		writeValidationError(w, "calendarIds is required")
		return
	}

	timeMin, err := time.Parse(time.RFC3339, req.TimeMin)
	if err != nil {
		writeValidationError(w, "timeMin must be RFC 3339")
		return
	}
	timeMax, err := time.Parse(time.RFC3339, req.TimeMax)
	if err != nil {
		writeValidationError(w, "timeMax must be RFC 3339")
		return
	}
	if !timeMin.Before(timeMax) {
		s.writeError(w, booking.ErrInvalidInterval, nil)
		return
	}

	busy, err := s.events.QueryFreeBusy(r.Context(), req.CalendarIDs, timeMin, timeMax)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, busy)
}
