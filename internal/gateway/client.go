package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client talks to Google Calendar under a single credential. Construct one
// with NewService for the fixed service identity, or NewDelegated for a
// per-request user token.
type Client struct {
	svc *calendar.Service
	loc *time.Location
	log *slog.Logger
}

// NewService builds a client authenticated as the fixed service identity.
// keyJSON is the service account key; loc is the zone used to anchor
// date-only (all-day) event boundaries.
func NewService(ctx context.Context, keyJSON []byte, loc *time.Location, logger *slog.Logger) (*Client, error) {
	svc, err := calendar.NewService(ctx,
		option.WithCredentialsJSON(keyJSON),
		option.WithScopes(calendar.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc, loc: loc, log: logger}, nil
}

// NewDelegated builds a client authenticated as an end user. The token source
// refreshes the access token transparently when a refresh token is present.
func NewDelegated(ctx context.Context, ts oauth2.TokenSource, loc *time.Location, logger *slog.Logger) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create delegated calendar service: %w", err)
	}
	return &Client{svc: svc, loc: loc, log: logger}, nil
}

// ListEvents returns events intersecting [timeMin, timeMax), ordered by start
// time, with recurring events expanded to single instances.
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]BusyEvent, error) {
	resp, err := c.svc.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError("list events", "calendar", calendarID, err)
	}

	events := make([]BusyEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		start, end, err := eventTimes(item, c.loc)
		if err != nil {
			c.log.Warn("skipping event with unparseable time", "calendarId", calendarID, "eventId", item.Id, "err", err)
			continue
		}
		events = append(events, BusyEvent{
			ID:    item.Id,
			Title: item.Summary,
			Start: start,
			End:   end,
		})
	}
	return events, nil
}

// GetEvent fetches a single event by ID.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	item, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, mapError("get event", "event", eventID, err)
	}
	start, end, err := eventTimes(item, c.loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return &Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
	}, nil
}

// InsertEvent creates an event and returns its remote ID.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, in EventInput) (string, error) {
	ev := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: c.loc.String()},
		End:         &calendar.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: c.loc.String()},
	}
	for _, email := range in.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(calendarID, ev).Context(ctx)
	if in.Notify {
		call = call.SendUpdates("all")
	}
	created, err := call.Do()
	if err != nil {
		return "", mapError("insert event", "calendar", calendarID, err)
	}
	c.log.Info("event created", "calendarId", calendarID, "eventId", created.Id)
	return created.Id, nil
}

// DeleteEvent removes an event. An event that is already gone is success.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			c.log.Info("event already gone", "calendarId", calendarID, "eventId", eventID)
			return nil
		}
		return mapError("delete event", "event", eventID, err)
	}
	return nil
}

// QueryFreeBusy returns busy periods per calendar over [timeMin, timeMax).
func (c *Client) QueryFreeBusy(ctx context.Context, calendarIDs []string, timeMin, timeMax time.Time) (map[string][]Period, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
	}
	for _, id := range calendarIDs {
		req.Items = append(req.Items, &calendar.FreeBusyRequestItem{Id: id})
	}

	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, mapError("freebusy query", "calendars", "", err)
	}

	out := make(map[string][]Period, len(resp.Calendars))
	for id, cal := range resp.Calendars {
		periods := make([]Period, 0, len(cal.Busy))
		for _, b := range cal.Busy {
			start, err := time.Parse(time.RFC3339, b.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, b.End)
			if err != nil {
				continue
			}
			periods = append(periods, Period{Start: start, End: end})
		}
		out[id] = periods
	}
	return out, nil
}

// ListCalendars returns the calendars visible to the active identity.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	resp, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapError("list calendars", "calendar list", "", err)
	}
	infos := make([]CalendarInfo, 0, len(resp.Items))
	for _, item := range resp.Items {
		infos = append(infos, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			TimeZone:    item.TimeZone,
			AccessRole:  item.AccessRole,
		})
	}
	return infos, nil
}

// GetCalendar fetches calendar metadata.
func (c *Client) GetCalendar(ctx context.Context, calendarID string) (*CalendarInfo, error) {
	cal, err := c.svc.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, mapError("get calendar", "calendar", calendarID, err)
	}
	return &CalendarInfo{
		ID:          cal.Id,
		Summary:     cal.Summary,
		Description: cal.Description,
		TimeZone:    cal.TimeZone,
	}, nil
}

// InsertCalendar creates a new secondary calendar owned by the active identity.
func (c *Client) InsertCalendar(ctx context.Context, summary, description, timeZone string) (*CalendarInfo, error) {
	created, err := c.svc.Calendars.Insert(&calendar.Calendar{
		Summary:     summary,
		Description: description,
		TimeZone:    timeZone,
	}).Context(ctx).Do()
	if err != nil {
		return nil, mapError("insert calendar", "calendar", summary, err)
	}
	c.log.Info("calendar created", "calendarId", created.Id, "summary", summary)
	return &CalendarInfo{
		ID:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
		TimeZone:    created.TimeZone,
	}, nil
}

// DeleteCalendar removes a secondary calendar. Already-gone is success.
func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	err := c.svc.Calendars.Delete(calendarID).Context(ctx).Do()
	if err != nil {
		if isGone(err) {
			c.log.Info("calendar already gone", "calendarId", calendarID)
			return nil
		}
		return mapError("delete calendar", "calendar", calendarID, err)
	}
	return nil
}

// AccessRole reports the active identity's role on a calendar, per the
// calendar list entry. Returns NotFoundError if the calendar is not in the
// identity's list.
func (c *Client) AccessRole(ctx context.Context, calendarID string) (string, error) {
	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", mapError("get access role", "calendar", calendarID, err)
	}
	return entry.AccessRole, nil
}

// InsertAccessRule attaches an ACL rule to a calendar. scopeValue is empty for
// the public ("default") scope.
func (c *Client) InsertAccessRule(ctx context.Context, calendarID, role, scopeType, scopeValue string) error {
	rule := &calendar.AclRule{
		Role:  role,
		Scope: &calendar.AclRuleScope{Type: scopeType, Value: scopeValue},
	}
	if _, err := c.svc.Acl.Insert(calendarID, rule).Context(ctx).Do(); err != nil {
		return mapError("insert access rule", "calendar", calendarID, err)
	}
	c.log.Info("access rule added", "calendarId", calendarID, "role", role, "scope", scopeType)
	return nil
}

// eventTimes extracts the event interval, normalizing date-only (all-day)
// boundaries to midnight in loc.
func eventTimes(item *calendar.Event, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseEventDateTime(item.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseEventDateTime(item.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func parseEventDateTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, error) {
	if edt == nil {
		return time.Time{}, fmt.Errorf("missing event time")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	if edt.Date != "" {
		return time.ParseInLocation("2006-01-02", edt.Date, loc)
	}
	return time.Time{}, fmt.Errorf("event time has neither dateTime nor date")
}
