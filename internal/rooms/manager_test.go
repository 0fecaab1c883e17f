package rooms

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/namastexlabs/roombook/internal/gateway"
)

var errUpstream = errors.New("backend unavailable")

type aclRule struct {
	calendarID string
	role       string
	scopeType  string
	scopeValue string
}

type fakeGateway struct {
	calendars map[string]*gateway.CalendarInfo
	roles     map[string]string
	rules     []aclRule
	deleted   []string

	insertErr error
	deleteErr error
	aclErr    error
	roleErr   error
	nextID    string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		calendars: make(map[string]*gateway.CalendarInfo),
		roles:     make(map[string]string),
		nextID:    "cal-1",
	}
}

func (f *fakeGateway) ListCalendars(_ context.Context) ([]gateway.CalendarInfo, error) {
	var out []gateway.CalendarInfo
	for _, c := range f.calendars {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeGateway) GetCalendar(_ context.Context, id string) (*gateway.CalendarInfo, error) {
	c, ok := f.calendars[id]
	if !ok {
		return nil, &gateway.NotFoundError{Resource: "calendar", ID: id}
	}
	return c, nil
}

func (f *fakeGateway) InsertCalendar(_ context.Context, summary, description, timeZone string) (*gateway.CalendarInfo, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	info := &gateway.CalendarInfo{ID: f.nextID, Summary: summary, Description: description, TimeZone: timeZone}
	f.calendars[info.ID] = info
	return info, nil
}

func (f *fakeGateway) DeleteCalendar(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.calendars, id)
	return nil
}

func (f *fakeGateway) AccessRole(_ context.Context, id string) (string, error) {
	if f.roleErr != nil {
		return "", f.roleErr
	}
	role, ok := f.roles[id]
	if !ok {
		return "", &gateway.NotFoundError{Resource: "calendar", ID: id}
	}
	return role, nil
}

func (f *fakeGateway) InsertAccessRule(_ context.Context, calendarID, role, scopeType, scopeValue string) error {
	if f.aclErr != nil {
		return f.aclErr
	}
	f.rules = append(f.rules, aclRule{calendarID: calendarID, role: role, scopeType: scopeType, scopeValue: scopeValue})
	return nil
}

func newManager(gw Gateway) *Manager {
	return &Manager{
		Gateway:  gw,
		Timezone: "America/New_York",
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestCreate_PublicWithWriterEmail(t *testing.T) {
	gw := newFakeGateway()
	m := newManager(gw)

	info, err := m.Create(context.Background(), CreateRequest{
		Name:       "Conference Room A",
		MakePublic: true,
		ShareWith:  "team-lead@example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Exactly two rules: public is reader (never escalated), the email is writer.
	if len(gw.rules) != 2 {
		t.Fatalf("expected 2 ACL rules, got %+v", gw.rules)
	}
	if gw.rules[0] != (aclRule{calendarID: info.ID, role: "reader", scopeType: "default"}) {
		t.Errorf("unexpected public rule: %+v", gw.rules[0])
	}
	if gw.rules[1] != (aclRule{calendarID: info.ID, role: "writer", scopeType: "user", scopeValue: "team-lead@example.com"}) {
		t.Errorf("unexpected share rule: %+v", gw.rules[1])
	}
}

func TestCreate_ShareWithDomain(t *testing.T) {
	gw := newFakeGateway()
	m := newManager(gw)

	_, err := m.Create(context.Background(), CreateRequest{
		Name:      "Conference Room B",
		ShareWith: "example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(gw.rules) != 1 || gw.rules[0].scopeType != "domain" {
		t.Fatalf("expected a domain-scoped rule, got %+v", gw.rules)
	}
}

func TestCreate_DefaultTimezone(t *testing.T) {
	gw := newFakeGateway()
	m := newManager(gw)

	info, err := m.Create(context.Background(), CreateRequest{Name: "Room C"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.TimeZone != "America/New_York" {
		t.Errorf("expected default timezone, got %q", info.TimeZone)
	}
}

func TestCreate_EmptyNameRejected(t *testing.T) {
	m := newManager(newFakeGateway())

	if _, err := m.Create(context.Background(), CreateRequest{Name: "  "}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestDelete_ReaderRoleRefusedWithoutGatewayCall(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["cal-1"] = "reader"
	m := newManager(gw)

	err := m.Delete(context.Background(), "cal-1")

	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
	if pe.Role != "reader" {
		t.Errorf("expected role 'reader' in error, got %q", pe.Role)
	}
	if len(gw.deleted) != 0 {
		t.Fatalf("delete must never be issued to the gateway when refused")
	}
}

func TestDelete_OwnerRoleProceeds(t *testing.T) {
	gw := newFakeGateway()
	gw.roles["cal-1"] = "owner"
	gw.calendars["cal-1"] = &gateway.CalendarInfo{ID: "cal-1"}
	m := newManager(gw)

	if err := m.Delete(context.Background(), "cal-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != "cal-1" {
		t.Fatalf("expected delete of cal-1, got %+v", gw.deleted)
	}
}

func TestDelete_UnknownRoleAttemptsDelete(t *testing.T) {
	// Calendar not in the service identity's list: gateway arbitrates.
	gw := newFakeGateway()
	m := newManager(gw)

	if err := m.Delete(context.Background(), "cal-unknown"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(gw.deleted) != 1 {
		t.Fatalf("expected delete attempt, got %+v", gw.deleted)
	}
}

func TestDelete_RoleLookupFailurePropagates(t *testing.T) {
	gw := newFakeGateway()
	gw.roleErr = errUpstream
	m := newManager(gw)

	if err := m.Delete(context.Background(), "cal-1"); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(gw.deleted) != 0 {
		t.Fatalf("no delete attempt expected")
	}
}

func TestShare_PublicForcedToReader(t *testing.T) {
	gw := newFakeGateway()
	m := newManager(gw)

	if err := m.Share(context.Background(), "cal-1", true, "", "writer"); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if len(gw.rules) != 1 || gw.rules[0].role != "reader" || gw.rules[0].scopeType != "default" {
		t.Fatalf("public share must be forced to reader, got %+v", gw.rules)
	}
}

func TestShare_UserDefaultsToWriter(t *testing.T) {
	gw := newFakeGateway()
	m := newManager(gw)

	if err := m.Share(context.Background(), "cal-1", false, "person@example.com", ""); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if gw.rules[0].role != "writer" || gw.rules[0].scopeType != "user" {
		t.Fatalf("expected user/writer rule, got %+v", gw.rules)
	}
}
