package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthcal/internal/model"
)

const eventsJSON = `[
  {"id": "1", "title": "Team Meeting", "date": "2024-03-05", "startTime": "09:00", "endTime": "10:00", "color": "#4a90e2", "completed": false},
  {"id": "2", "title": "Code Review", "date": "2024-03-05", "startTime": "09:30", "endTime": "10:30", "color": "#9b59b6", "completed": true}
]`

const eventsYAML = `
- id: "1"
  title: Team Meeting
  date: "2024-03-05"
  startTime: "09:00"
  endTime: "10:00"
  color: "#4a90e2"
- id: "2"
  title: Code Review
  date: "2024-03-05"
  startTime: "09:30"
  endTime: "10:30"
  completed: true
`

var icsLines = []string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//EN",
	"BEGIN:VEVENT",
	"UID:timed-1",
	"DTSTAMP:20240301T000000Z",
	"DTSTART:20240305T090000Z",
	"DTEND:20240305T100000Z",
	"SUMMARY:Team Meeting",
	"COLOR:#4a90e2",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:done-1",
	"DTSTAMP:20240301T000000Z",
	"DTSTART:20240306T140000Z",
	"DTEND:20240306T143000Z",
	"SUMMARY:Dentist",
	"STATUS:COMPLETED",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:allday-1",
	"DTSTAMP:20240301T000000Z",
	"DTSTART;VALUE=DATE:20240307",
	"DTEND;VALUE=DATE:20240308",
	"SUMMARY:Holiday",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:weekly-1",
	"DTSTAMP:20240301T000000Z",
	"DTSTART:20240308T090000Z",
	"DTEND:20240308T100000Z",
	"RRULE:FREQ=WEEKLY;COUNT=3",
	"SUMMARY:Recurring",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:long-1",
	"DTSTAMP:20240301T000000Z",
	"DTSTART:20240309T220000Z",
	"DTEND:20240310T020000Z",
	"SUMMARY:Overnight",
	"END:VEVENT",
	"END:VCALENDAR",
}

func icsBody() []byte {
	return []byte(strings.Join(icsLines, "\r\n") + "\r\n")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"events.json":                            FormatJSON,
		"/srv/EVENTS.JSON":                       FormatJSON,
		"data/events.yaml":                       FormatYAML,
		"data/events.yml":                        FormatYAML,
		"cal.ics":                                FormatICS,
		"https://example.com/feed.ics?token=abc": FormatICS,
	}
	for in, want := range tests {
		got, err := DetectFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := DetectFormat("events.txt")
	assert.Error(t, err)
}

func TestLoadJSON(t *testing.T) {
	p := writeFile(t, "events.json", eventsJSON)

	res, err := NewLoader().Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, model.Event{
		ID: "1", Title: "Team Meeting", Date: "2024-03-05",
		StartTime: "09:00", EndTime: "10:00", Color: "#4a90e2",
	}, res.Events[0])
	assert.True(t, res.Events[1].Completed)
	assert.Equal(t, Fingerprint([]byte(eventsJSON)), res.Fingerprint)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "events.yaml", eventsYAML)

	res, err := NewLoader().Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "Team Meeting", res.Events[0].Title)
	assert.Equal(t, "09:30", res.Events[1].StartTime)
	assert.True(t, res.Events[1].Completed)
}

func TestLoadEmptyArray(t *testing.T) {
	p := writeFile(t, "events.json", "[]")
	res, err := NewLoader().Load(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, res.Events)
	assert.Empty(t, res.Events)
}

func TestLoadErrors(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	p := writeFile(t, "broken.json", "{not json")
	_, err = NewLoader().Load(context.Background(), p)
	assert.ErrorContains(t, err, "decode json source")
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS("test", icsBody())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, model.Event{
		ID: "timed-1", Title: "Team Meeting", Date: "2024-03-05",
		StartTime: "09:00", EndTime: "10:00", Color: "#4a90e2",
	}, events[0])

	assert.Equal(t, "done-1", events[1].ID)
	assert.Equal(t, "2024-03-06", events[1].Date)
	assert.Equal(t, "14:00", events[1].StartTime)
	assert.Equal(t, "14:30", events[1].EndTime)
	assert.Equal(t, model.DefaultColor, events[1].Color)
	assert.True(t, events[1].Completed)
}

func TestParseICSEmpty(t *testing.T) {
	_, err := ParseICS("test", nil)
	assert.Error(t, err)
}

func TestFetcherConditionalRequests(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(eventsJSON))
	}))
	defer srv.Close()

	f := NewFetcher()
	body, fromCache, err := f.Fetch(context.Background(), srv.URL+"/events.json")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.JSONEq(t, eventsJSON, string(body))

	body, fromCache, err = f.Fetch(context.Background(), srv.URL+"/events.json")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.JSONEq(t, eventsJSON, string(body))

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())
}

func TestFetcherFallsBackToCache(t *testing.T) {
	fail := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(eventsJSON))
	}))
	defer srv.Close()

	f := NewFetcher()
	_, _, err := f.Fetch(context.Background(), srv.URL+"/events.json")
	require.NoError(t, err)

	fail.Store(true)
	body, fromCache, err := f.Fetch(context.Background(), srv.URL+"/events.json")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.JSONEq(t, eventsJSON, string(body))

	_, _, err = NewFetcher().Fetch(context.Background(), srv.URL+"/events.json")
	assert.ErrorContains(t, err, "502")
}

func TestLoadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(icsBody())
	}))
	defer srv.Close()

	res, err := NewLoader().Load(context.Background(), srv.URL+"/calendar.ics?token=secret")
	require.NoError(t, err)
	assert.Len(t, res.Events, 2)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/feed.ics?token=abc"))
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com?token=abc"))
	assert.Equal(t, "source://...(redacted)", redactURL("not a url"))
}

type recordingSink struct {
	calls  int
	events []model.Event
}

func (r *recordingSink) Replace(events []model.Event) {
	r.calls++
	r.events = events
}

func TestWatcherSyncOnlyOnChange(t *testing.T) {
	p := writeFile(t, "events.json", eventsJSON)
	sink := &recordingSink{}
	w := NewWatcher(NewLoader(), p, sink)

	changed, err := w.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, sink.events, 2)

	changed, err = w.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, sink.calls)

	require.NoError(t, os.WriteFile(p, []byte("[]"), 0o600))
	changed, err = w.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, sink.calls)
	assert.Empty(t, sink.events)
}

func TestWatcherStart(t *testing.T) {
	p := writeFile(t, "events.json", eventsJSON)
	w := NewWatcher(NewLoader(), p, &recordingSink{})

	_, err := w.Start(context.Background(), "not a cron spec")
	assert.Error(t, err)

	c, err := w.Start(context.Background(), "@every 1h")
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
