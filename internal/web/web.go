package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"calview/internal/calendar"
	"calview/internal/config"
	appLog "calview/internal/log"
	"calview/internal/view"
)

const shutdownTimeout = 5 * time.Second

// Server exposes calendar views over HTTP. Each client mounts a view with
// POST /api/views and drives it with the navigation endpoints.
type Server struct {
	cfg      *config.Config
	sessions *view.Sessions
	palette  *calendar.Palette
	mux      *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, sessions *view.Sessions, palette *calendar.Palette) *Server {
	if palette == nil {
		palette = calendar.NewPalette(nil)
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		palette:  palette,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in Basic Auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		appLog.Info("HTTP server stopped")
		return nil
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="calview", charset="UTF-8"`)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/colors", s.handleColors)

	s.mux.HandleFunc("POST /api/views", s.handleCreateView)
	s.mux.HandleFunc("GET /api/views/{id}", s.withView(s.handleGetView))
	s.mux.HandleFunc("DELETE /api/views/{id}", s.handleDeleteView)
	s.mux.HandleFunc("POST /api/views/{id}/next", s.withView(s.transition((*view.Controller).Advance)))
	s.mux.HandleFunc("POST /api/views/{id}/prev", s.withView(s.transition((*view.Controller).Retreat)))
	s.mux.HandleFunc("POST /api/views/{id}/today", s.withView(s.transition((*view.Controller).Today)))
	s.mux.HandleFunc("POST /api/views/{id}/granularity", s.withView(s.handleSetGranularity))
	s.mux.HandleFunc("GET /api/views/{id}/events", s.withView(s.handleEvents))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleColors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.palette.Entries())
}

// viewHandler is a handler bound to the view named in the path.
type viewHandler func(w http.ResponseWriter, r *http.Request, id string, c *view.Controller)

func (s *Server) withView(h viewHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		c, err := s.sessions.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h(w, r, id, c)
	}
}

func (s *Server) transition(fn func(*view.Controller) (calendar.ViewState, error)) viewHandler {
	return func(w http.ResponseWriter, r *http.Request, id string, c *view.Controller) {
		if _, err := fn(c); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeView(w, http.StatusOK, id, c)
	}
}

// granularityRequest is the body of POST /api/views and
// POST /api/views/{id}/granularity.
type granularityRequest struct {
	Granularity string `json:"granularity"`
}

func decodeGranularity(r *http.Request) (*calendar.Granularity, error) {
	var req granularityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if req.Granularity == "" {
		return nil, nil
	}
	g, err := calendar.ParseGranularity(req.Granularity)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	g, err := decodeGranularity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, c, err := s.sessions.Create()
	if errors.Is(err, view.ErrTooManySessions) {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if g != nil {
		if _, err := c.SetGranularity(*g); err != nil {
			_ = s.sessions.Delete(id)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.writeView(w, http.StatusCreated, id, c)
}

func (s *Server) handleGetView(w http.ResponseWriter, _ *http.Request, id string, c *view.Controller) {
	s.writeView(w, http.StatusOK, id, c)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetGranularity(w http.ResponseWriter, r *http.Request, id string, c *view.Controller) {
	g, err := decodeGranularity(r)
	if err == nil && g == nil {
		err = errors.New("granularity is required")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := c.SetGranularity(*g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeView(w, http.StatusOK, id, c)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, id string, c *view.Controller) {
	markers, err := c.Overlay(r.Context())
	if err != nil {
		appLog.Error("api events: overlay failed", err, "id", id)
		writeError(w, http.StatusBadGateway, "failed to load events")
		return
	}

	dtos := make([]eventDTO, 0, len(markers))
	for _, m := range markers {
		dtos = append(dtos, eventDTO{
			SourceID:    m.Event.SourceID,
			UID:         m.Event.UID,
			InstanceKey: m.Event.InstanceKey,
			Title:       m.Event.Title,
			Status:      m.Event.Status,
			Location:    m.Event.Location,
			AllDay:      m.Event.AllDay,
			Start:       m.Event.Start,
			End:         m.Event.End,
			Color:       m.Color,
		})
	}
	writeJSON(w, http.StatusOK, eventsResponse{ID: id, State: c.State(), Events: dtos})
}

// viewResponse is the JSON shape of a mounted view.
type viewResponse struct {
	ID          string             `json:"id"`
	State       calendar.ViewState `json:"state"`
	WindowStart *time.Time         `json:"window_start,omitempty"`
	WindowEnd   *time.Time         `json:"window_end,omitempty"`
}

type eventsResponse struct {
	ID     string             `json:"id"`
	State  calendar.ViewState `json:"state"`
	Events []eventDTO         `json:"events"`
}

// eventDTO is a JSON-friendly view of an overlay marker.
type eventDTO struct {
	SourceID    string    `json:"source_id,omitempty"`
	UID         string    `json:"uid,omitempty"`
	InstanceKey string    `json:"instance_key,omitempty"`
	Title       string    `json:"title"`
	Status      string    `json:"status,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Color       string    `json:"color"`
}

func (s *Server) writeView(w http.ResponseWriter, status int, id string, c *view.Controller) {
	resp := viewResponse{ID: id, State: c.State()}
	start, end, bounded, err := c.Window()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bounded {
		resp.WindowStart, resp.WindowEnd = &start, &end
	}
	writeJSON(w, status, resp)
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
