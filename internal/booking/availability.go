package booking

import (
	"context"
	"time"

	"github.com/namastexlabs/roombook/internal/gateway"
)

// Gateway is the slice of the remote calendar surface this package needs.
// *gateway.Client satisfies it.
type Gateway interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]gateway.BusyEvent, error)
	InsertEvent(ctx context.Context, calendarID string, in gateway.EventInput) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Slot is one fixed-duration candidate interval offered for booking.
type Slot struct {
	Interval
	Available bool `json:"available"`
}

// View is a day's schedule for one room: the bookable slot lattice plus the
// busy events it was derived from.
type View struct {
	Slots []Slot              `json:"slots"`
	Busy  []gateway.BusyEvent `json:"busy"`
}

// Builder converts a day's remote events into a bookable-slot view.
type Builder struct {
	Gateway  Gateway
	Location *time.Location

	// Business window, minutes from midnight, and slot size.
	OpenMinute  int
	CloseMinute int
	SlotMinutes int

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// BuildView fetches the day's events and generates the slot lattice. A slot
// is available iff it does not overlap any busy event and does not start in
// the past.
func (b *Builder) BuildView(ctx context.Context, calendarID string, day time.Time) (View, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, b.Location)
	dayEnd := dayStart.Add(24 * time.Hour)

	busy, err := b.Gateway.ListEvents(ctx, calendarID, dayStart, dayEnd)
	if err != nil {
		return View{}, err
	}

	now := b.now()
	step := time.Duration(b.SlotMinutes) * time.Minute
	windowOpen := dayStart.Add(time.Duration(b.OpenMinute) * time.Minute)
	windowClose := dayStart.Add(time.Duration(b.CloseMinute) * time.Minute)

	var slots []Slot
	for start := windowOpen; !start.Add(step).After(windowClose); start = start.Add(step) {
		iv := Interval{Start: start, End: start.Add(step)}
		slots = append(slots, Slot{
			Interval:  iv,
			Available: !start.Before(now) && !overlapsAny(iv, busy),
		})
	}

	return View{Slots: slots, Busy: busy}, nil
}

func overlapsAny(iv Interval, busy []gateway.BusyEvent) bool {
	for _, ev := range busy {
		if iv.Overlaps(Interval{Start: ev.Start, End: ev.End}) {
			return true
		}
	}
	return false
}
