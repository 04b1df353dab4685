package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"monthcal/internal/dateutil"
	"monthcal/internal/export"
	"monthcal/internal/grid"
	"monthcal/internal/layout"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/store"
)

// monthResponse is the JSON shape for /api/month.
type monthResponse struct {
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Prev     string    `json:"prev"`
	Next     string    `json:"next"`
	Weekdays []string  `json:"weekdays"`
	Cells    []cellDTO `json:"cells"`
}

// cellDTO is one grid cell. Placeholder cells only carry Valid=false.
type cellDTO struct {
	Valid         bool              `json:"valid"`
	Day           int               `json:"day,omitempty"`
	Date          string            `json:"date,omitempty"`
	Today         bool              `json:"today,omitempty"`
	Events        *model.GroupedDay `json:"events,omitempty"`
	Preview       []model.LaneEvent `json:"preview,omitempty"`
	More          int               `json:"more,omitempty"`
	MultipleLanes bool              `json:"multipleLanes,omitempty"`
}

// dayResponse is the JSON shape for /api/days/{date}.
type dayResponse struct {
	Date       string            `json:"date"`
	Title      string            `json:"title"`
	Weekday    string            `json:"weekday"`
	Events     []model.LaneEvent `json:"events"`
	TotalLanes int               `json:"totalLanes"`
}

// monthView builds the grid for the month query value (YYYY-MM, empty
// for the current month) with previewLimit events per cell.
func (s *Server) monthView(monthParam string, previewLimit int) (monthResponse, int, error) {
	today := s.today()
	ref := dateutil.MonthStart(today)
	if monthParam != "" {
		m, err := dateutil.ParseMonth(monthParam)
		if err != nil {
			return monthResponse{}, http.StatusBadRequest, err
		}
		ref = m
	}

	days, err := s.grouped()
	if err != nil {
		appLog.Error("layout failed", err)
		return monthResponse{}, http.StatusInternalServerError, err
	}

	m := grid.Build(ref, today, days, s.weekStart())
	resp := monthResponse{
		Title:    m.Title,
		Year:     m.Year,
		Month:    int(m.Month),
		Prev:     m.Prev,
		Next:     m.Next,
		Weekdays: m.Weekdays,
		Cells:    make([]cellDTO, len(m.Cells)),
	}
	for i, c := range m.Cells {
		if !c.Valid {
			continue
		}
		dto := cellDTO{
			Valid:         true,
			Day:           c.Day,
			Date:          c.DateKey,
			Today:         c.Today,
			MultipleLanes: c.MultipleLanes(),
		}
		if gd, ok := c.Events.Get(); ok {
			dto.Events = &gd
			dto.Preview, dto.More = c.Preview(previewLimit)
		}
		resp.Cells[i] = dto
	}
	return resp, http.StatusOK, nil
}

// handleMonth returns the month grid.
//
// GET /api/month?month=2024-03&limit=2
//   - month: YYYY-MM, defaults to the month containing today
//   - limit: events previewed per cell, defaults to preview_limit
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseIntDefault(q.Get("limit"), s.cfg.PreviewLimit)
	if limit < 0 {
		limit = s.cfg.PreviewLimit
	}

	resp, status, err := s.monthView(q.Get("month"), limit)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDay returns the detail view of one date.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	days, err := s.grouped()
	if err != nil {
		appLog.Error("layout failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	detail, err := grid.Day(r.PathValue("date"), days)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{
		Date:       detail.DateKey,
		Title:      detail.Title,
		Weekday:    detail.Weekday,
		Events:     detail.Day.Events,
		TotalLanes: detail.Day.TotalLanes,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

// handleAddEvent creates an event from a JSON model.NewEvent body.
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var in model.NewEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validateNewEvent(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := s.store.Add(in)
	s.metrics.mutations.WithLabelValues("add").Inc()
	appLog.Info("event added", "id", ev.ID, "date", ev.Date)
	writeJSON(w, http.StatusCreated, ev)
}

// validateNewEvent checks the fields the add form checks: a non-blank
// title, a real date and two HH:MM times. start < end is not enforced.
func validateNewEvent(in *model.NewEvent) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return errors.New("title is required")
	}
	if _, err := dateutil.ParseDateKey(in.Date); err != nil {
		return err
	}
	if _, err := layout.ParseClock(in.StartTime); err != nil {
		return err
	}
	if _, err := layout.ParseClock(in.EndTime); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleToggleEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.ToggleCompleted(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues("toggle").Inc()

	ev, ok := s.store.Get(id).Get()
	if !ok {
		// Deleted between the toggle and the read.
		writeError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.metrics.mutations.WithLabelValues("delete").Inc()
	appLog.Info("event deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// handleExport serves the collection as an iCalendar feed.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	body := export.ICS(s.store.List(), "-//monthcal//EN", s.now().UTC().Truncate(time.Second))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="monthcal.ics"`)
	_, _ = w.Write([]byte(body))
}
