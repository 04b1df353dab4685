// Package grid turns a reference month and a set of laid-out days into
// the cells of a month view.
package grid

import (
	"time"

	"github.com/samber/mo"

	"monthcal/internal/dateutil"
	"monthcal/internal/model"
)

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Cell is one grid position. Placeholder cells (Valid == false) pad the
// first and last rows and carry nothing else.
type Cell struct {
	Index   int
	Valid   bool
	Day     int
	DateKey string
	Today   bool
	Events  mo.Option[model.GroupedDay]
}

// Preview returns at most limit events for the cell and how many more
// were left out.
func (c Cell) Preview(limit int) ([]model.LaneEvent, int) {
	day, ok := c.Events.Get()
	if !ok {
		return nil, 0
	}
	if limit < 0 {
		limit = 0
	}
	if len(day.Events) <= limit {
		return day.Events, 0
	}
	return day.Events[:limit], len(day.Events) - limit
}

// MultipleLanes reports whether the cell's events need side-by-side lanes.
func (c Cell) MultipleLanes() bool {
	day, ok := c.Events.Get()
	return ok && day.TotalLanes > 1
}

// Month is a renderable month view.
type Month struct {
	Year     int
	Month    time.Month
	Title    string
	Weekdays []string
	Cells    []Cell

	// Prev and Next are YYYY-MM keys of the neighbouring months.
	Prev string
	Next string
}

// Build lays out the month containing ref. today is only used to flag
// the matching cell; days maps date keys to their layout result.
// Rows start on weekStart.
func Build(ref, today time.Time, days map[string]model.GroupedDay, weekStart time.Weekday) Month {
	first := dateutil.MonthStart(ref)
	dim := dateutil.DaysInMonth(first)
	lead := (dateutil.FirstWeekdayOfMonth(first) - int(weekStart) + 7) % 7
	total := (lead + dim + 6) / 7 * 7

	title, _ := dateutil.Format(first, dateutil.PatternMonthYear)
	m := Month{
		Year:     first.Year(),
		Month:    first.Month(),
		Title:    title,
		Weekdays: make([]string, 7),
		Cells:    make([]Cell, total),
		Prev:     dateutil.MonthKey(dateutil.AddMonths(first, -1)),
		Next:     dateutil.MonthKey(dateutil.AddMonths(first, 1)),
	}
	for i := range m.Weekdays {
		m.Weekdays[i] = weekdayShort[(int(weekStart)+i)%7]
	}

	for i := range m.Cells {
		dayNum := i - lead + 1
		if dayNum < 1 || dayNum > dim {
			m.Cells[i] = Cell{Index: i, Events: mo.None[model.GroupedDay]()}
			continue
		}
		date := time.Date(first.Year(), first.Month(), dayNum, 0, 0, 0, 0, first.Location())
		key := dateutil.DateKey(date)
		cell := Cell{
			Index:   i,
			Valid:   true,
			Day:     dayNum,
			DateKey: key,
			Today:   dateutil.IsSameCalendarDay(date, today),
			Events:  mo.None[model.GroupedDay](),
		}
		if gd, ok := days[key]; ok && len(gd.Events) > 0 {
			cell.Events = mo.Some(gd)
		}
		m.Cells[i] = cell
	}
	return m
}

// DayDetail is the expanded view of a single date.
type DayDetail struct {
	DateKey string
	Title   string
	Weekday string
	Day     model.GroupedDay
}

// Day builds the detail view for dateKey. Dates without events get an
// empty GroupedDay.
func Day(dateKey string, days map[string]model.GroupedDay) (DayDetail, error) {
	d, err := dateutil.ParseDateKey(dateKey)
	if err != nil {
		return DayDetail{}, err
	}
	title, _ := dateutil.Format(d, dateutil.PatternLongDate)
	weekday, _ := dateutil.Format(d, dateutil.PatternWeekday)

	gd, ok := days[dateKey]
	if !ok {
		gd = model.GroupedDay{Events: []model.LaneEvent{}}
	}
	return DayDetail{DateKey: dateKey, Title: title, Weekday: weekday, Day: gd}, nil
}
