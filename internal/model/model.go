package model

// Event is a single timed calendar entry as supplied by the static data
// source or created through the UI. All fields are plain values, so copying
// an Event copies everything.
type Event struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Date is the grouping key in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// StartTime / EndTime are 24h wall-clock values in HH:MM form.
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`

	// Color is passed through to the renderer untouched.
	Color string `json:"color" yaml:"color"`

	Completed bool `json:"completed" yaml:"completed"`
}

// LaneEvent is an Event annotated with the display lane computed by a
// layout pass. It is rebuilt on every pass and never written back.
type LaneEvent struct {
	Event
	Lane int `json:"lane"`
}

// GroupedDay is the layout result for one calendar date.
type GroupedDay struct {
	// Events are ordered by ascending start time; ties keep input order.
	Events     []LaneEvent `json:"events"`
	TotalLanes int         `json:"totalLanes"`
}

// NewEvent carries the user-supplied fields of an event being added.
// The store assigns the ID and Completed always starts out false.
type NewEvent struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Color     string `json:"color"`
}

// PresetColors is the palette offered by the add-event form.
var PresetColors = []string{
	"#f6be23",
	"#4a90e2",
	"#9b59b6",
	"#e24a90",
	"#50c878",
	"#f6501e",
	"#3498db",
	"#e67e22",
	"#16a085",
	"#c0392b",
	"#8e44ad",
	"#27ae60",
}

// DefaultColor is used when an event arrives without a color.
const DefaultColor = "#f6be23"
