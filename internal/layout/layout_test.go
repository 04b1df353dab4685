package layout

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/model"
)

func ev(id, date, start, end string) model.Event {
	return model.Event{ID: id, Title: "Event " + id, Date: date, StartTime: start, EndTime: end, Color: model.DefaultColor}
}

func lanesByID(day model.GroupedDay) map[string]int {
	out := make(map[string]int, len(day.Events))
	for _, e := range day.Events {
		out[e.ID] = e.Lane
	}
	return out
}

func ids(day model.GroupedDay) []string {
	out := make([]string, 0, len(day.Events))
	for _, e := range day.Events {
		out = append(out, e.ID)
	}
	return out
}

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:30": 570,
		"9:30":  570,
		"12:00": 720,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{"", "24:00", "12:60", "12", "12:5", "ab:cd", "-1:00", "+1:00", "12:00:00", "123:00", " 9:00", "09:0x"}
	for _, in := range invalid {
		_, err := ParseClock(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidTimeFormat), in)

		var ite *InvalidTimeFormatError
		require.ErrorAs(t, err, &ite)
		assert.Equal(t, in, ite.Value)
	}
}

func TestAssignLanesEmpty(t *testing.T) {
	for _, in := range [][]model.Event{nil, {}} {
		day, err := AssignLanes(in)
		require.NoError(t, err)
		assert.NotNil(t, day.Events)
		assert.Empty(t, day.Events)
		assert.Equal(t, 0, day.TotalLanes)
	}
}

func TestAssignLanesOverlappingPair(t *testing.T) {
	day, err := AssignLanes([]model.Event{
		ev("a", "2024-03-05", "09:00", "10:00"),
		ev("b", "2024-03-05", "09:30", "10:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(day))
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, lanesByID(day))
	assert.Equal(t, 2, day.TotalLanes)
}

func TestAssignLanesBackToBackShareLane(t *testing.T) {
	day, err := AssignLanes([]model.Event{
		ev("a", "2024-03-05", "09:00", "10:00"),
		ev("b", "2024-03-05", "10:00", "11:00"),
		ev("c", "2024-03-05", "09:30", "09:45"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(day))
	assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 1}, lanesByID(day))
	assert.Equal(t, 2, day.TotalLanes)
}

func TestAssignLanesStableTies(t *testing.T) {
	day, err := AssignLanes([]model.Event{
		ev("late", "2024-03-05", "11:00", "12:00"),
		ev("x", "2024-03-05", "09:00", "09:30"),
		ev("y", "2024-03-05", "09:00", "10:00"),
		ev("z", "2024-03-05", "09:00", "09:15"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z", "late"}, ids(day))
	assert.Equal(t, map[string]int{"x": 0, "y": 1, "z": 2, "late": 0}, lanesByID(day))
	assert.Equal(t, 3, day.TotalLanes)
}

func TestAssignLanesReusesLowestFreeLane(t *testing.T) {
	day, err := AssignLanes([]model.Event{
		ev("a", "2024-03-05", "08:00", "12:00"),
		ev("b", "2024-03-05", "08:30", "09:00"),
		ev("c", "2024-03-05", "08:45", "10:00"),
		ev("d", "2024-03-05", "09:00", "09:30"),
		ev("e", "2024-03-05", "10:00", "11:00"),
	})
	require.NoError(t, err)
	// b frees lane 1 at 09:00 and d takes it; c holds lane 2 until 10:00,
	// when e finds lane 1 free first.
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 1, "e": 1}, lanesByID(day))
	assert.Equal(t, 3, day.TotalLanes)
}

func TestAssignLanesDegenerateRanges(t *testing.T) {
	day, err := AssignLanes([]model.Event{
		ev("point", "2024-03-05", "10:00", "10:00"),
		ev("next", "2024-03-05", "10:00", "11:00"),
		ev("inverted", "2024-03-05", "10:30", "09:00"),
	})
	require.NoError(t, err)
	// The point ends at its own start so "next" can follow it; the inverted
	// event overlaps "next" by start and opens lane 1.
	assert.Equal(t, map[string]int{"point": 0, "next": 0, "inverted": 1}, lanesByID(day))
	assert.Equal(t, 2, day.TotalLanes)
}

func TestAssignLanesInvalidTime(t *testing.T) {
	_, err := AssignLanes([]model.Event{
		ev("ok", "2024-03-05", "09:00", "10:00"),
		ev("bad", "2024-03-05", "25:00", "26:00"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Contains(t, err.Error(), `"bad"`)

	_, err = AssignLanes([]model.Event{ev("bad-end", "2024-03-05", "09:00", "noon")})
	var ite *InvalidTimeFormatError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, "noon", ite.Value)
}

func TestAssignLanesDoesNotTouchInput(t *testing.T) {
	in := []model.Event{
		ev("b", "2024-03-05", "10:00", "11:00"),
		ev("a", "2024-03-05", "09:00", "10:30"),
	}
	snapshot := append([]model.Event(nil), in...)

	_, err := AssignLanes(in)
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestGroupEventsByDate(t *testing.T) {
	in := []model.Event{
		ev("a", "2024-03-05", "09:00", "10:00"),
		ev("b", "2024-03-06", "09:00", "10:00"),
		ev("c", "2024-03-05", "09:30", "10:30"),
		ev("d", "2024-03-07", "13:00", "14:00"),
	}
	grouped, err := GroupEventsByDate(in)
	require.NoError(t, err)
	require.Len(t, grouped, 3)

	assert.Equal(t, []string{"a", "c"}, ids(grouped["2024-03-05"]))
	assert.Equal(t, 2, grouped["2024-03-05"].TotalLanes)
	assert.Equal(t, []string{"b"}, ids(grouped["2024-03-06"]))
	assert.Equal(t, 1, grouped["2024-03-06"].TotalLanes)
	assert.Equal(t, []string{"d"}, ids(grouped["2024-03-07"]))
}

func TestGroupEventsByDateEmpty(t *testing.T) {
	grouped, err := GroupEventsByDate(nil)
	require.NoError(t, err)
	assert.NotNil(t, grouped)
	assert.Empty(t, grouped)
}

func TestGroupEventsByDateKeepsDuplicateIDs(t *testing.T) {
	grouped, err := GroupEventsByDate([]model.Event{
		ev("dup", "2024-03-05", "09:00", "10:00"),
		ev("dup", "2024-03-05", "09:00", "10:00"),
	})
	require.NoError(t, err)
	day := grouped["2024-03-05"]
	require.Len(t, day.Events, 2)
	assert.Equal(t, 0, day.Events[0].Lane)
	assert.Equal(t, 1, day.Events[1].Lane)
}

func TestGroupEventsByDateInvalidTime(t *testing.T) {
	_, err := GroupEventsByDate([]model.Event{
		ev("a", "2024-03-05", "09:00", "10:00"),
		ev("b", "2024-03-09", "9am", "10:00"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Contains(t, err.Error(), "2024-03-09")
}

func TestGroupEventsByDateDoesNotMutateCaller(t *testing.T) {
	in := randomEvents(rand.New(rand.NewPCG(7, 11)), 40, 3)
	snapshot := append([]model.Event(nil), in...)

	_, err := GroupEventsByDate(in)
	require.NoError(t, err)
	_, err = GroupEventsByDate(in)
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

// randomEvents builds n events over the given number of days with
// start < end, on a 15 minute grid between 06:00 and 22:00.
func randomEvents(r *rand.Rand, n, days int) []model.Event {
	out := make([]model.Event, n)
	for i := range out {
		start := 6*60 + 15*r.IntN(60)
		end := start + 15*(1+r.IntN(12))
		out[i] = ev(
			fmt.Sprintf("e%d", i),
			fmt.Sprintf("2024-03-%02d", 1+r.IntN(days)),
			fmt.Sprintf("%02d:%02d", start/60, start%60),
			fmt.Sprintf("%02d:%02d", end/60, end%60),
		)
	}
	return out
}

func minutes(t *testing.T, s string) int {
	t.Helper()
	m, err := ParseClock(s)
	require.NoError(t, err)
	return m
}

// maxConcurrent is the largest number of events active at one instant,
// treating intervals as half-open [start, end).
func maxConcurrent(t *testing.T, events []model.LaneEvent) int {
	best := 0
	for _, e := range events {
		at := minutes(t, e.StartTime)
		n := 0
		for _, f := range events {
			if minutes(t, f.StartTime) <= at && minutes(t, f.EndTime) > at {
				n++
			}
		}
		best = max(best, n)
	}
	return best
}

func TestLaneProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		in := randomEvents(r, 1+r.IntN(30), 4)

		grouped, err := GroupEventsByDate(in)
		require.NoError(t, err)

		total := 0
		for date, day := range grouped {
			total += len(day.Events)

			// Every event sits under its own date key.
			for _, e := range day.Events {
				assert.Equal(t, date, e.Date)
			}

			// Events come back in non-decreasing start order.
			for i := 1; i < len(day.Events); i++ {
				assert.LessOrEqual(t, minutes(t, day.Events[i-1].StartTime), minutes(t, day.Events[i].StartTime))
			}

			// Same-lane events never overlap.
			for i, a := range day.Events {
				for _, b := range day.Events[i+1:] {
					if a.Lane != b.Lane {
						continue
					}
					apart := minutes(t, a.EndTime) <= minutes(t, b.StartTime) || minutes(t, b.EndTime) <= minutes(t, a.StartTime)
					assert.True(t, apart, "round %d: %s and %s share lane %d", round, a.ID, b.ID, a.Lane)
				}
			}

			// Lane count is minimal.
			assert.Equal(t, maxConcurrent(t, day.Events), day.TotalLanes, "round %d date %s", round, date)
		}
		assert.Equal(t, len(in), total, "round %d", round)

		again, err := GroupEventsByDate(in)
		require.NoError(t, err)
		assert.Equal(t, grouped, again, "round %d", round)
	}
}
