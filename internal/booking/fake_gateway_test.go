package booking

import (
	"context"
	"time"

	"github.com/namastexlabs/roombook/internal/gateway"
)

// fakeGateway records writes and serves canned busy events, keyed by
// calendar ID.
type fakeGateway struct {
	busy        map[string][]gateway.BusyEvent
	listErr     error
	insertErr   map[string]error // per calendar ID
	deleteErr   error
	inserted    []insertedEvent
	deleted     []string
	nextEventID string
}

type insertedEvent struct {
	calendarID string
	input      gateway.EventInput
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		busy:        make(map[string][]gateway.BusyEvent),
		insertErr:   make(map[string]error),
		nextEventID: "ev-1",
	}
}

func (f *fakeGateway) ListEvents(_ context.Context, calendarID string, _, _ time.Time) ([]gateway.BusyEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.busy[calendarID], nil
}

func (f *fakeGateway) InsertEvent(_ context.Context, calendarID string, in gateway.EventInput) (string, error) {
	if err := f.insertErr[calendarID]; err != nil {
		return "", err
	}
	f.inserted = append(f.inserted, insertedEvent{calendarID: calendarID, input: in})
	return f.nextEventID, nil
}

func (f *fakeGateway) DeleteEvent(_ context.Context, calendarID, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, calendarID+"/"+eventID)
	return nil
}
