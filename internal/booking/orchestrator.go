package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/namastexlabs/roombook/internal/auth"
	"github.com/namastexlabs/roombook/internal/gateway"
)

// personalCalendarID is the gateway alias for a delegated user's own calendar.
const personalCalendarID = "primary"

var (
	// ErrInvalidInterval signals a degenerate requested interval.
	ErrInvalidInterval = errors.New("booking interval start must be before end")
	// ErrSlotConflict signals that the requested interval overlaps an
	// existing booking. Best-effort only: the gateway is the final arbiter.
	ErrSlotConflict = errors.New("requested slot conflicts with an existing booking")
)

// RoomWriteError means the room-calendar write failed. The room calendar is
// the authoritative record, so this fails the whole booking even when the
// personal-calendar write already succeeded.
type RoomWriteError struct {
	CalendarID string
	Cause      error
}

func (e *RoomWriteError) Error() string {
	return fmt.Sprintf("room calendar write failed for %s: %v", e.CalendarID, e.Cause)
}

func (e *RoomWriteError) Unwrap() error { return e.Cause }

// Request is a candidate slot plus requester-supplied metadata.
type Request struct {
	CalendarID     string   `json:"calendarId"`
	Title          string   `json:"title"`
	Slot           Interval `json:"slot"`
	OrganizerName  string   `json:"organizerName"`
	OrganizerEmail string   `json:"organizerEmail,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Attendees      []string `json:"attendees,omitempty"`
}

// Result is the outcome of one attempted write. One or two are produced per
// booking, consumed immediately by the caller and not stored.
type Result struct {
	Target  string `json:"target"` // "room" or "personal"
	Success bool   `json:"success"`
	EventID string `json:"remoteEventId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DelegatedFactory builds a gateway bound to a delegated user's token.
type DelegatedFactory func(ctx context.Context, token *oauth2.Token) (Gateway, error)

// Orchestrator decides which calendar(s) a booking writes to and performs the
// writes. Rooms is always the service-identity gateway; Delegated is used for
// the optional personal-calendar write.
type Orchestrator struct {
	Rooms     Gateway
	Delegated DelegatedFactory
	Log       *slog.Logger
}

// Book validates the request against the room's current busy events and
// performs one write (service identity) or two (delegated user). The two
// delegated writes are an explicit saga: the personal write is best-effort,
// the room write is mandatory, and there is no rollback.
//
// The conflict check runs against a snapshot fetched here; a concurrent
// booking can still pass at the gateway. Accepted limitation, not locked.
func (o *Orchestrator) Book(ctx context.Context, req Request, identity auth.Context) ([]Result, error) {
	if !req.Slot.Valid() {
		return nil, ErrInvalidInterval
	}

	busy, err := o.Rooms.ListEvents(ctx, req.CalendarID, req.Slot.Start, req.Slot.End)
	if err != nil {
		return nil, err
	}
	if overlapsAny(req.Slot, busy) {
		return nil, ErrSlotConflict
	}

	if identity.Delegated() {
		return o.bookDelegated(ctx, req, identity)
	}
	return o.bookService(ctx, req)
}

// bookService performs the single room write. The service identity cannot
// issue calendar invitations, so organizer details travel in the description.
func (o *Orchestrator) bookService(ctx context.Context, req Request) ([]Result, error) {
	in := gateway.EventInput{
		Summary:     req.Title,
		Description: serviceDescription(req),
		Start:       req.Slot.Start,
		End:         req.Slot.End,
	}

	id, err := o.Rooms.InsertEvent(ctx, req.CalendarID, in)
	if err != nil {
		o.Log.Error("room calendar write failed", "calendarId", req.CalendarID, "err", err)
		return []Result{{Target: "room", Success: false, Error: err.Error()}},
			&RoomWriteError{CalendarID: req.CalendarID, Cause: err}
	}

	return []Result{{Target: "room", Success: true, EventID: id}}, nil
}

// bookDelegated performs the two-step saga: a best-effort write to the user's
// personal calendar, then the mandatory room write under the service
// identity. A personal failure is logged and reported but never aborts the
// room write; a room failure fails the whole operation with no rollback of
// the personal event.
func (o *Orchestrator) bookDelegated(ctx context.Context, req Request, identity auth.Context) ([]Result, error) {
	results := make([]Result, 0, 2)

	personal := Result{Target: "personal"}
	personalGW, err := o.Delegated(ctx, identity.Token)
	if err != nil {
		o.Log.Warn("personal calendar client unavailable", "email", identity.Email, "err", err)
		personal.Error = err.Error()
	} else {
		in := gateway.EventInput{
			Summary:     req.Title,
			Description: req.Notes,
			Start:       req.Slot.Start,
			End:         req.Slot.End,
			Attendees:   req.Attendees,
			Notify:      true,
		}
		id, err := personalGW.InsertEvent(ctx, personalCalendarID, in)
		if err != nil {
			o.Log.Warn("personal calendar write failed", "email", identity.Email, "err", err)
			personal.Error = err.Error()
		} else {
			personal.Success = true
			personal.EventID = id
		}
	}
	results = append(results, personal)

	// The service identity cannot address the user's personal calendar, so
	// the room event carries the delegated email in its description.
	roomIn := gateway.EventInput{
		Summary:     req.Title,
		Description: delegatedDescription(req, identity.Email),
		Start:       req.Slot.Start,
		End:         req.Slot.End,
	}
	id, err := o.Rooms.InsertEvent(ctx, req.CalendarID, roomIn)
	if err != nil {
		o.Log.Error("room calendar write failed", "calendarId", req.CalendarID, "err", err)
		results = append(results, Result{Target: "room", Success: false, Error: err.Error()})
		return results, &RoomWriteError{CalendarID: req.CalendarID, Cause: err}
	}
	results = append(results, Result{Target: "room", Success: true, EventID: id})

	return results, nil
}

// DeleteBooking removes a booking from a room calendar under the service
// identity. Already-gone events are success.
func (o *Orchestrator) DeleteBooking(ctx context.Context, calendarID, eventID string) error {
	return o.Rooms.DeleteEvent(ctx, calendarID, eventID)
}

func serviceDescription(req Request) string {
	var parts []string
	if req.OrganizerName != "" {
		parts = append(parts, "Booked by: "+req.OrganizerName)
	}
	if req.OrganizerEmail != "" {
		parts = append(parts, "Contact: "+req.OrganizerEmail)
	}
	if req.Notes != "" {
		parts = append(parts, "\nDetails: "+req.Notes)
	}
	return strings.Join(parts, "\n")
}

func delegatedDescription(req Request, email string) string {
	parts := []string{"Booked by: " + email}
	if req.Notes != "" {
		parts = append(parts, "\nDetails: "+req.Notes)
	}
	return strings.Join(parts, "\n")
}
