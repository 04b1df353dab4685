// Package layout arranges a day's events into display lanes so that
// overlapping events render side by side.
//
// Lanes are assigned with greedy interval partitioning: events are taken in
// start order and each goes into the lowest-numbered lane whose previous
// occupant has already ended. Touching intervals (one ends at 10:00, the
// next starts at 10:00) share a lane. The lane count equals the largest
// number of events running at the same instant.
//
// Inputs are never modified. Each call returns fresh LaneEvent values.
package layout

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"monthcal/internal/model"
)

// ErrInvalidTimeFormat is matched by every *InvalidTimeFormatError.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// InvalidTimeFormatError reports a start/end value that is not a valid
// 24h HH:MM clock time.
type InvalidTimeFormatError struct {
	Value string
}

func (e *InvalidTimeFormatError) Error() string {
	return fmt.Sprintf("invalid time %q: want HH:MM with hours 0-23 and minutes 0-59", e.Value)
}

func (e *InvalidTimeFormatError) Is(target error) bool {
	return target == ErrInvalidTimeFormat
}

// ParseClock converts an HH:MM value into minutes since midnight.
// The hour may be one or two digits; the minute must be two.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, &InvalidTimeFormatError{Value: s}
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return 0, &InvalidTimeFormatError{Value: s}
	}
	return h*60 + m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// span is an event with its clock values resolved.
type span struct {
	ev         model.Event
	start, end int
}

// AssignLanes lays out the events of a single date. The result lists the
// events by ascending start time (ties keep their input order) with each
// one's lane filled in. A malformed start or end time fails the whole call.
//
// startTime < endTime is not checked: zero-length and inverted ranges are
// placed by the same comparison as every other event.
func AssignLanes(events []model.Event) (model.GroupedDay, error) {
	if len(events) == 0 {
		return model.GroupedDay{Events: []model.LaneEvent{}, TotalLanes: 0}, nil
	}

	spans := make([]span, len(events))
	for i, ev := range events {
		start, err := ParseClock(ev.StartTime)
		if err != nil {
			return model.GroupedDay{}, fmt.Errorf("event %q start: %w", ev.ID, err)
		}
		end, err := ParseClock(ev.EndTime)
		if err != nil {
			return model.GroupedDay{}, fmt.Errorf("event %q end: %w", ev.ID, err)
		}
		spans[i] = span{ev: ev, start: start, end: end}
	}

	slices.SortStableFunc(spans, func(a, b span) int {
		return a.start - b.start
	})

	// laneEnds[i] is the end minute of the last event placed in lane i.
	laneEnds := make([]int, 0, 4)
	out := make([]model.LaneEvent, len(spans))

	for i, sp := range spans {
		lane := -1
		for l, end := range laneEnds {
			if end <= sp.start {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, sp.end)
		} else {
			laneEnds[lane] = sp.end
		}
		out[i] = model.LaneEvent{Event: sp.ev, Lane: lane}
	}

	return model.GroupedDay{Events: out, TotalLanes: len(laneEnds)}, nil
}

// GroupEventsByDate partitions events by their Date key and lays out each
// partition with AssignLanes. Events sharing an ID are kept as separate
// entries. On failure the error names the offending date and still
// matches ErrInvalidTimeFormat.
func GroupEventsByDate(events []model.Event) (map[string]model.GroupedDay, error) {
	buckets := make(map[string][]model.Event)
	for _, ev := range events {
		buckets[ev.Date] = append(buckets[ev.Date], ev)
	}

	// Walk dates in order so the reported failure does not depend on map order.
	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	grouped := make(map[string]model.GroupedDay, len(buckets))
	for _, d := range dates {
		day, err := AssignLanes(buckets[d])
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", d, err)
		}
		grouped[d] = day
	}
	return grouped, nil
}
