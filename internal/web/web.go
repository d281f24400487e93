package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"festdir/internal/config"
	"festdir/internal/ics"
	"festdir/internal/loader"
	appLog "festdir/internal/log"
	"festdir/internal/metrics"
	"festdir/internal/model"
)

// Server provides the directory JSON API and the embedded UI.
type Server struct {
	cfg   *config.Config
	debug bool
	mux   *http.ServeMux
	loc   *time.Location

	// now is the clock used for upcoming/past decisions.
	now      func() time.Time
	exporter *ics.Exporter

	// The current dataset session. Reload swaps it; handlers take a
	// snapshot under the read lock and load through it.
	sessionMu sync.RWMutex
	session   *session
}

// session is one pair of memoized dataset loaders. Every request served
// within a session sees the same fetch outcome.
type session struct {
	festivals *loader.Loader[model.Dataset]
	venues    *loader.Loader[model.VenueDataset]
}

// embeddedStatic contains the directory UI.
//
//go:embed all:static
var embeddedStatic embed.FS

// strictPolicy strips all markup from dataset text before it is returned.
var strictPolicy = bluemonday.StrictPolicy()

// NewServer constructs a new Server and starts its first session.
func NewServer(cfg *config.Config, debug bool) *Server {
	s := &Server{
		cfg:      cfg,
		debug:    debug,
		mux:      http.NewServeMux(),
		loc:      resolveLocationOrLocal(cfg.Timezone),
		exporter: ics.NewExporter(cfg.CalendarDomain),
	}
	s.now = func() time.Time { return time.Now().In(s.loc) }
	s.Reload()
	s.registerRoutes()
	return s
}

// Reload discards the current session so the next request fetches the
// datasets again.
func (s *Server) Reload() {
	next := &session{
		festivals: loader.New[model.Dataset]("festivals", s.cfg.FestivalsURL),
		venues:    loader.New[model.VenueDataset]("venues", s.cfg.VenuesURL),
	}

	s.sessionMu.Lock()
	s.session = next
	s.sessionMu.Unlock()

	metrics.Sessions.Inc()
	appLog.Info("dataset session started", "festivals", next.festivals.Source(), "venues", next.venues.Source())
}

func (s *Server) current() *session {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	return s.session
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves s on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.mux.HandleFunc("GET /api/festivals", s.handleFestivals)
	s.mux.HandleFunc("GET /api/festivals/{slug}", s.handleFestival)
	s.mux.HandleFunc("GET /api/festivals/{slug}/{year}/calendar.ics", s.handleFestivalICS)
	s.mux.HandleFunc("GET /api/festival", s.handleFestivalBySlugParam)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/venues", s.handleVenues)
	s.mux.HandleFunc("GET /api/venues/{slug}", s.handleVenue)

	// Everything else is the embedded UI.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer returns an http.Handler that serves the embedded UI from
// internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown API paths are 404s, never HTML.
		path := r.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// loadFestivals returns the festival dataset of the current session. On
// failure it writes the terminal 503 response and returns false.
func (s *Server) loadFestivals(w http.ResponseWriter, r *http.Request) (*model.Dataset, bool) {
	data, err := s.current().festivals.Load(r.Context())
	if err != nil {
		appLog.Error("festival dataset unavailable", err, "path", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return data, true
}

func (s *Server) loadVenues(w http.ResponseWriter, r *http.Request) (*model.VenueDataset, bool) {
	data, err := s.current().venues.Load(r.Context())
	if err != nil {
		appLog.Error("venue dataset unavailable", err, "path", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return data, true
}

// plainText strips markup from dataset text. The JSON consumer renders text
// nodes, so entities are decoded again after stripping.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strictPolicy.Sanitize(s))
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

func parseBoolDefault(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
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
