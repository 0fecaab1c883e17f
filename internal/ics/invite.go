// Package ics renders calendar invites for booking downloads.
package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// Event is the invite payload.
type Event struct {
	UID            string
	Title          string
	Description    string
	Location       string
	Start          time.Time
	End            time.Time
	OrganizerName  string
	OrganizerEmail string
}

// Invite renders a single-event VCALENDAR in REQUEST form, with a 15-minute
// display reminder.
func Invite(ev Event) ([]byte, error) {
	if ev.UID == "" {
		return nil, fmt.Errorf("invite requires a UID")
	}
	if !ev.Start.Before(ev.End) {
		return nil, fmt.Errorf("invite requires start before end")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//roombook//EN")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "REQUEST")

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.UID)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	ve.Props.SetText(ical.PropStatus, "CONFIRMED")

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if ev.OrganizerEmail != "" {
		p := ical.NewProp(ical.PropOrganizer)
		if ev.OrganizerName != "" {
			p.Params.Set(ical.ParamCommonName, ev.OrganizerName)
		}
		p.SetText("mailto:" + ev.OrganizerEmail)
		ve.Props.Add(p)
	}

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, "Reminder")
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = "-PT15M"
	alarm.Props.Add(trigger)
	ve.Children = append(ve.Children, alarm)

	cal.Children = append(cal.Children, ve)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode invite: %w", err)
	}
	return buf.Bytes(), nil
}
