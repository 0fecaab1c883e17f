// Package rooms manages the lifecycle of room calendars: creation with
// visibility rules, sharing, and permission-checked deletion. All operations
// run under the fixed service identity.
package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/namastexlabs/roombook/internal/gateway"
)

// Gateway is the slice of the remote calendar surface this package needs.
// *gateway.Client satisfies it.
type Gateway interface {
	ListCalendars(ctx context.Context) ([]gateway.CalendarInfo, error)
	GetCalendar(ctx context.Context, calendarID string) (*gateway.CalendarInfo, error)
	InsertCalendar(ctx context.Context, summary, description, timeZone string) (*gateway.CalendarInfo, error)
	DeleteCalendar(ctx context.Context, calendarID string) error
	AccessRole(ctx context.Context, calendarID string) (string, error)
	InsertAccessRule(ctx context.Context, calendarID, role, scopeType, scopeValue string) error
}

// PermissionError means the service identity's access role is insufficient
// for the operation. The operation is refused before any gateway write.
type PermissionError struct {
	CalendarID string
	Role       string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot delete calendar %s: access role is %q, owner required", e.CalendarID, e.Role)
}

// Hint returns a human-readable explanation for API consumers.
func (e *PermissionError) Hint() string {
	return "Only calendars created by the service account can be deleted."
}

// CreateRequest describes a new room calendar.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	MakePublic  bool   `json:"makePublic,omitempty"`
	// ShareWith is a user email or a bare domain, disambiguated by the
	// presence of an '@'.
	ShareWith string `json:"shareWith,omitempty"`
}

// Manager creates and deletes room calendars.
type Manager struct {
	Gateway  Gateway
	Timezone string
	Log      *slog.Logger
}

// List returns all calendars visible to the service identity.
func (m *Manager) List(ctx context.Context) ([]gateway.CalendarInfo, error) {
	return m.Gateway.ListCalendars(ctx)
}

// Get returns calendar metadata.
func (m *Manager) Get(ctx context.Context, calendarID string) (*gateway.CalendarInfo, error) {
	return m.Gateway.GetCalendar(ctx, calendarID)
}

// Create inserts a new room calendar and attaches its access rules. Public
// visibility is always read-only: Google restricts the public scope to
// reader, so the role is forced regardless of caller intent.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*gateway.CalendarInfo, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("calendar name is required")
	}

	tz := req.Timezone
	if tz == "" {
		tz = m.Timezone
	}

	info, err := m.Gateway.InsertCalendar(ctx, req.Name, req.Description, tz)
	if err != nil {
		return nil, err
	}

	if req.MakePublic {
		// Public scope can only ever be reader; never grant public write.
		if err := m.Gateway.InsertAccessRule(ctx, info.ID, "reader", "default", ""); err != nil {
			return nil, fmt.Errorf("calendar %s created but public sharing failed: %w", info.ID, err)
		}
		m.Log.Info("calendar shared publicly (read-only)", "calendarId", info.ID)
	}

	if req.ShareWith != "" {
		scopeType := "domain"
		if strings.Contains(req.ShareWith, "@") {
			scopeType = "user"
		}
		if err := m.Gateway.InsertAccessRule(ctx, info.ID, "writer", scopeType, req.ShareWith); err != nil {
			return nil, fmt.Errorf("calendar %s created but sharing with %s failed: %w", info.ID, req.ShareWith, err)
		}
		m.Log.Info("calendar shared", "calendarId", info.ID, "with", req.ShareWith)
	}

	return info, nil
}

// Share attaches an ACL rule to an existing calendar. Public sharing is
// forced to reader.
func (m *Manager) Share(ctx context.Context, calendarID string, public bool, principal, role string) error {
	if public {
		return m.Gateway.InsertAccessRule(ctx, calendarID, "reader", "default", "")
	}

	if role == "" {
		role = "writer"
	}
	scopeType := "domain"
	if strings.Contains(principal, "@") {
		scopeType = "user"
	}
	return m.Gateway.InsertAccessRule(ctx, calendarID, role, scopeType, principal)
}

// Delete removes a room calendar. The service identity must hold owner
// access; any other known role is refused without issuing the delete, to
// avoid an ambiguous partial deletion. If the access role cannot be read at
// all the delete is attempted anyway and the gateway arbitrates. A calendar
// that is already gone is success.
func (m *Manager) Delete(ctx context.Context, calendarID string) error {
	role, err := m.Gateway.AccessRole(ctx, calendarID)
	switch {
	case err == nil:
		if role != "owner" {
			m.Log.Warn("calendar delete refused", "calendarId", calendarID, "role", role)
			return &PermissionError{CalendarID: calendarID, Role: role}
		}
	case gateway.IsNotFoundError(err):
		// Not in the service identity's calendar list; let the gateway decide.
		m.Log.Info("calendar not in list, attempting delete anyway", "calendarId", calendarID)
	default:
		return err
	}

	if err := m.Gateway.DeleteCalendar(ctx, calendarID); err != nil {
		return err
	}
	m.Log.Info("calendar deleted", "calendarId", calendarID)
	return nil
}
