package source

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	"monthcal/internal/dateutil"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
)

// errSkipped marks VEVENTs that parse fine but cannot be shown as a
// single timed entry (all-day, multi-day or recurring).
var errSkipped = errors.New("event skipped")

// ParseICS converts the VEVENTs of an iCalendar payload into events.
//
//   - Times keep the wall clock the library parsed (TZID aware); they are
//     not converted to another zone.
//   - All-day, multi-day and RRULE events are skipped and logged.
//   - A broken VEVENT is logged and skipped; the rest still load.
func ParseICS(name string, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", name)
		return nil, err
	}

	events := make([]model.Event, 0)
	skipped := 0
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			skipped++
			if errors.Is(perr, errSkipped) {
				appLog.Debug("ics vevent skipped", "source", name, "reason", perr.Error())
			} else {
				appLog.Error("ics vevent parse failed", perr, "source", name)
			}
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "source", name, "event_count", len(events), "skipped", skipped)
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = strings.TrimSpace(p.Value)
	}
	if out.Title == "" {
		out.Title = "(untitled)"
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}
	if isAllDay(dtStartProp) {
		return out, skip("all-day", out.ID)
	}
	if ve.GetProperty(ical.ComponentPropertyRrule) != nil {
		return out, skip("recurring", out.ID)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// No DTEND: a point in time.
		end = start
	}
	if !dateutil.IsSameCalendarDay(start, end) {
		return out, skip("multi-day", out.ID)
	}

	out.Date = dateutil.DateKey(start)
	out.StartTime = start.Format("15:04")
	out.EndTime = end.Format("15:04")

	out.Color = model.DefaultColor
	if p := ve.GetProperty(ical.ComponentProperty("COLOR")); p != nil && p.Value != "" {
		out.Color = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "COMPLETED") {
		out.Completed = true
	}
	return out, nil
}

// isAllDay reports VALUE=DATE or a bare YYYYMMDD value.
func isAllDay(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func skip(reason, uid string) error {
	return &skipError{reason: reason, uid: uid}
}

type skipError struct {
	reason string
	uid    string
}

func (e *skipError) Error() string { return e.reason + " event " + e.uid }

func (e *skipError) Is(target error) bool { return target == errSkipped }
