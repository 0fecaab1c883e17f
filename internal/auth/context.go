// Package auth resolves, per request, which credential mode is active: the
// fixed service identity or a delegated end user. The resolved Context is
// passed explicitly to the booking and room-lifecycle layers instead of being
// re-derived at call sites.
package auth

import "golang.org/x/oauth2"

// Mode names the active credential mode.
type Mode string

const (
	// ModeService is the fixed, non-user credential used for administrative
	// and default booking operations.
	ModeService Mode = "service-account"
	// ModeDelegated is an authenticated end user whose own calendar can be
	// written to on their behalf.
	ModeDelegated Mode = "oauth"
)

// Context is the per-request identity. It is recomputed from the incoming
// session on every operation and never persisted.
type Context struct {
	Mode  Mode
	Email string
	// Token is set only for ModeDelegated.
	Token *oauth2.Token
}

// ServiceContext returns the fixed service identity context.
func ServiceContext() Context {
	return Context{Mode: ModeService}
}

// Delegated reports whether a delegated user is active.
func (c Context) Delegated() bool {
	return c.Mode == ModeDelegated
}

// Capabilities is the projection consumed by the UI. Each flag is a pure
// function of the active mode.
type Capabilities struct {
	CanCreateCalendars               bool `json:"canCreateCalendars"`
	BookingsAppearInPersonalCalendar bool `json:"bookingsAppearInPersonalCalendar"`
	RequiresOrganizerInfo            bool `json:"requiresOrganizerInfo"`
}

// Capabilities returns the capability flags for this identity.
func (c Context) Capabilities() Capabilities {
	return Capabilities{
		CanCreateCalendars:               c.Mode == ModeService,
		BookingsAppearInPersonalCalendar: c.Mode == ModeDelegated,
		RequiresOrganizerInfo:            c.Mode == ModeService,
	}
}
