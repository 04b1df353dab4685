package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"monthcal/internal/dateutil"
	appLog "monthcal/internal/log"
)

//go:embed templates/calendar.html
var templateFS embed.FS

// laneIndent is the left offset, in pixels, per lane inside a day cell.
const laneIndent = 3

var calendarTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	// indent is the margin for an event preview; single-lane days stay flush.
	"indent": func(lane int, multiple bool) int {
		if !multiple {
			return 0
		}
		return lane * laneIndent
	},
}).ParseFS(templateFS, "templates/calendar.html"))

type calendarPage struct {
	monthResponse
	// Rows splits the cells into weeks.
	Rows  [][]cellDTO
	Today string
}

// handleCalendarPage renders the server-side month view. The root element
// carries data-ready="true" once rendered so headless captures can wait on it.
//
// GET /calendar?month=2024-03
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	resp, status, err := s.monthView(r.URL.Query().Get("month"), s.cfg.PreviewLimit)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	page := calendarPage{monthResponse: resp, Today: dateutil.MonthKey(s.today())}
	for i := 0; i < len(resp.Cells); i += 7 {
		page.Rows = append(page.Rows, resp.Cells[i:min(i+7, len(resp.Cells))])
	}

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, page); err != nil {
		appLog.Error("failed to render calendar page", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
