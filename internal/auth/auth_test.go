package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestCapabilities_ServiceIdentity(t *testing.T) {
	caps := ServiceContext().Capabilities()

	if !caps.CanCreateCalendars {
		t.Errorf("service identity should be able to create calendars")
	}
	if caps.BookingsAppearInPersonalCalendar {
		t.Errorf("service identity bookings should not appear in a personal calendar")
	}
	if !caps.RequiresOrganizerInfo {
		t.Errorf("service identity should require organizer info")
	}
}

func TestCapabilities_DelegatedUser(t *testing.T) {
	ctx := Context{Mode: ModeDelegated, Email: "user@example.com", Token: &oauth2.Token{AccessToken: "at"}}
	caps := ctx.Capabilities()

	if caps.CanCreateCalendars {
		t.Errorf("delegated user should not be able to create calendars")
	}
	if !caps.BookingsAppearInPersonalCalendar {
		t.Errorf("delegated user bookings should appear in the personal calendar")
	}
	if caps.RequiresOrganizerInfo {
		t.Errorf("delegated user should not require organizer info")
	}
}

func TestSessionStore_CreateGet(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess := store.Create("user@example.com", &oauth2.Token{AccessToken: "at"})
	if sess.ID == "" {
		t.Fatalf("expected non-empty session id")
	}

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatalf("expected session to be found")
	}
	if got.Email != "user@example.com" {
		t.Errorf("expected email 'user@example.com', got %q", got.Email)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	sess := store.Create("user@example.com", &oauth2.Token{AccessToken: "at"})
	time.Sleep(20 * time.Millisecond)

	if _, ok := store.Get(sess.ID); ok {
		t.Fatalf("expected expired session to be gone")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(time.Hour)

	sess := store.Create("user@example.com", &oauth2.Token{AccessToken: "at"})
	store.Delete(sess.ID)

	if _, ok := store.Get(sess.ID); ok {
		t.Fatalf("expected deleted session to be gone")
	}
}

func TestResolver_NoCookieIsServiceIdentity(t *testing.T) {
	r := &Resolver{Sessions: NewSessionStore(time.Hour)}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := r.Resolve(req)

	if ctx.Mode != ModeService {
		t.Errorf("expected service identity, got %v", ctx.Mode)
	}
}

func TestResolver_ValidSessionIsDelegated(t *testing.T) {
	store := NewSessionStore(time.Hour)
	r := &Resolver{Sessions: store}

	sess := store.Create("user@example.com", &oauth2.Token{AccessToken: "at"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})

	ctx := r.Resolve(req)
	if ctx.Mode != ModeDelegated {
		t.Fatalf("expected delegated mode, got %v", ctx.Mode)
	}
	if ctx.Email != "user@example.com" {
		t.Errorf("expected email 'user@example.com', got %q", ctx.Email)
	}
}

func TestResolver_ExpiredSessionFallsBackToService(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	r := &Resolver{Sessions: store}

	sess := store.Create("user@example.com", &oauth2.Token{AccessToken: "at"})
	time.Sleep(20 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})

	if ctx := r.Resolve(req); ctx.Mode != ModeService {
		t.Errorf("expected service identity after session expiry, got %v", ctx.Mode)
	}
}

func TestResolver_SessionWithoutTokenIsService(t *testing.T) {
	store := NewSessionStore(time.Hour)
	r := &Resolver{Sessions: store}

	sess := store.Create("user@example.com", nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})

	if ctx := r.Resolve(req); ctx.Mode != ModeService {
		t.Errorf("expected service identity for tokenless session, got %v", ctx.Mode)
	}
}

func TestFlow_HandleCallback(t *testing.T) {
	sessions := NewSessionStore(time.Hour)
	flow := NewFlow("client-id", "client-secret", "http://localhost/callback", sessions, nil, discardLogger())

	flow.exchangeFunc = func(_ context.Context, code string) (*oauth2.Token, error) {
		if code != "good-code" {
			t.Fatalf("unexpected code %q", code)
		}
		return &oauth2.Token{AccessToken: "at", RefreshToken: "rt"}, nil
	}
	flow.userinfoFunc = func(_ context.Context, _ *oauth2.Token) (string, error) {
		return "user@example.com", nil
	}

	sess, err := flow.HandleCallback(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if sess.Email != "user@example.com" {
		t.Errorf("expected session email 'user@example.com', got %q", sess.Email)
	}

	if _, ok := sessions.Get(sess.ID); !ok {
		t.Errorf("expected session to be stored")
	}
}

func TestFlow_LoginURLContainsState(t *testing.T) {
	flow := NewFlow("client-id", "client-secret", "http://localhost/callback", NewSessionStore(time.Hour), nil, discardLogger())

	url := flow.LoginURL("my-state")
	if url == "" {
		t.Fatalf("expected non-empty login URL")
	}
	if !strings.Contains(url, "state=my-state") {
		t.Errorf("expected state in URL, got %s", url)
	}
}
