// Package httpapi exposes the booking system as a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/namastexlabs/roombook/internal/auth"
	"github.com/namastexlabs/roombook/internal/booking"
	"github.com/namastexlabs/roombook/internal/gateway"
	"github.com/namastexlabs/roombook/internal/rooms"
)

// ViewService builds the day availability view.
type ViewService interface {
	BuildView(ctx context.Context, calendarID string, day time.Time) (booking.View, error)
}

// BookingService creates and deletes bookings.
type BookingService interface {
	Book(ctx context.Context, req booking.Request, identity auth.Context) ([]booking.Result, error)
	DeleteBooking(ctx context.Context, calendarID, eventID string) error
}

// RoomService manages room calendars.
type RoomService interface {
	List(ctx context.Context) ([]gateway.CalendarInfo, error)
	Get(ctx context.Context, calendarID string) (*gateway.CalendarInfo, error)
	Create(ctx context.Context, req rooms.CreateRequest) (*gateway.CalendarInfo, error)
	Share(ctx context.Context, calendarID string, public bool, principal, role string) error
	Delete(ctx context.Context, calendarID string) error
}

// EventService reads events and free/busy data from the gateway.
type EventService interface {
	GetEvent(ctx context.Context, calendarID, eventID string) (*gateway.Event, error)
	QueryFreeBusy(ctx context.Context, calendarIDs []string, timeMin, timeMax time.Time) (map[string][]gateway.Period, error)
}

// Server holds the HTTP API configuration and dependencies.
type Server struct {
	log      *slog.Logger
	loc      *time.Location
	resolver *auth.Resolver
	flow     *auth.Flow // nil when the OAuth client is not configured
	views    ViewService
	bookings BookingService
	rooms    RoomService
	events   EventService
	mux      *http.ServeMux
}

// Deps bundles the server's collaborators.
type Deps struct {
	Resolver *auth.Resolver
	Flow     *auth.Flow
	Views    ViewService
	Bookings BookingService
	Rooms    RoomService
	Events   EventService
}

// New creates a Server and registers its routes.
func New(logger *slog.Logger, loc *time.Location, deps Deps) *Server {
	s := &Server{
		log:      logger,
		loc:      loc,
		resolver: deps.Resolver,
		flow:     deps.Flow,
		views:    deps.Views,
		bookings: deps.Bookings,
		rooms:    deps.Rooms,
		events:   deps.Events,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/auth/status", s.handleAuthStatus)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/callback", s.handleCallback)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)

	s.mux.HandleFunc("/api/calendars", s.handleCalendars)
	s.mux.HandleFunc("/api/calendars/share", s.handleCalendarShare)
	s.mux.HandleFunc("/api/calendars/", s.handleCalendarByID)

	s.mux.HandleFunc("/api/bookings", s.handleBookings)
	s.mux.HandleFunc("/api/bookings/", s.handleBookingByID)

	s.mux.HandleFunc("/api/availability", s.handleAvailability)
}

// ServeHTTP implements http.Handler with per-request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()[:8]
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.log.Info("request", "id", reqID, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
}

// HealthResponse is the JSON response from /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
