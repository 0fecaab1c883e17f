// Package gateway wraps the Google Calendar API behind typed operations.
// All durable state in the system lives on the remote side; this package is
// the only place that talks to it.
package gateway

import "time"

// BusyEvent is an already-committed occupation of a calendar, fetched
// read-only per request and never cached.
type BusyEvent struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// Event is the full event shape, used for single-event reads.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// EventInput describes an event to insert.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	// Notify asks the backend to send invitation emails to attendees.
	Notify bool
}

// Period is a busy interval as reported by a free/busy query.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarInfo identifies one remote calendar (a bookable room).
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	AccessRole  string `json:"accessRole,omitempty"`
}
