package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"monthcal/internal/config"
	"monthcal/internal/layout"
	appLog "monthcal/internal/log"
	"monthcal/internal/model"
	"monthcal/internal/store"
)

// Server provides the HTTP UI and JSON API over an event store.
type Server struct {
	cfg   *config.Config
	store *store.Store
	mux   *http.ServeMux
	loc   *time.Location
	now   func() time.Time

	metrics *metrics

	// Grouped layout of the store, rebuilt whenever the store version moves.
	layoutMu    sync.RWMutex
	layoutCache *layoutCache
}

type layoutCache struct {
	version uint64
	days    map[string]model.GroupedDay
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		mux:     http.NewServeMux(),
		loc:     resolveLocationOrLocal(cfg.Timezone),
		now:     time.Now,
		metrics: newMetrics(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials mean auth is off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="monthcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the server on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartServer listens on cfg.Listen and serves until ctx is canceled.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store) error {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
	return NewServer(cfg, st).Serve(ctx, ln)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.handle("GET /api/month", s.handleMonth)
	s.handle("GET /api/days/{date}", s.handleDay)
	s.handle("GET /api/events", s.handleListEvents)
	s.handle("POST /api/events", s.handleAddEvent)
	s.handle("POST /api/events/{id}/toggle", s.handleToggleEvent)
	s.handle("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.handle("GET /api/events.ics", s.handleExport)

	s.handle("GET /calendar", s.handleCalendarPage)
	s.mux.Handle("GET /{$}", http.RedirectHandler("/calendar", http.StatusFound))

	if s.cfg.Metrics {
		s.mux.Handle("GET /metrics", s.metrics.handler())
	}
}

// handle registers h under pattern with request counting.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// grouped returns the store laid out by date, reusing the previous pass
// while the store is unchanged.
func (s *Server) grouped() (map[string]model.GroupedDay, error) {
	version := s.store.Version()

	s.layoutMu.RLock()
	lc := s.layoutCache
	s.layoutMu.RUnlock()
	if lc != nil && lc.version == version {
		return lc.days, nil
	}

	events, version := s.store.Snapshot()
	days, err := layout.GroupEventsByDate(events)
	s.metrics.layoutPasses.Inc()
	if err != nil {
		s.metrics.layoutErrors.Inc()
		return nil, err
	}

	s.layoutMu.Lock()
	s.layoutCache = &layoutCache{version: version, days: days}
	s.layoutMu.Unlock()

	appLog.Debug("layout pass", "version", version, "dates", len(days), "events", len(events))
	return days, nil
}

// today reads the clock once in the display zone.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

func (s *Server) weekStart() time.Weekday {
	if s.cfg.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
