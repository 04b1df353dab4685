// Package export renders the event collection as an iCalendar feed.
package export

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"monthcal/internal/model"
)

// ICS serializes events into a VCALENDAR. DTSTART/DTEND are written as
// floating local times since events carry no zone. stamp fills DTSTAMP.
// Events whose date or times do not parse are left out.
func ICS(events []model.Event, prodID string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, ev := range events {
		start, ok := floating(ev.Date, ev.StartTime)
		if !ok {
			continue
		}
		end, ok := floating(ev.Date, ev.EndTime)
		if !ok {
			continue
		}

		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)
		ve.SetProperty(ical.ComponentPropertyDtStart, start)
		ve.SetProperty(ical.ComponentPropertyDtEnd, end)
		if ev.Color != "" {
			ve.SetProperty(ical.ComponentProperty("COLOR"), ev.Color)
		}
		if ev.Completed {
			ve.SetProperty(ical.ComponentPropertyStatus, "COMPLETED")
		}
	}
	return cal.Serialize()
}

// floating turns "2024-03-05" + "09:00" into "20240305T090000".
func floating(date, clock string) (string, bool) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+strings.TrimSpace(clock))
	if err != nil {
		return "", false
	}
	return t.Format("20060102T150405"), true
}
