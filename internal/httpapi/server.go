// Package httpapi serves the session REST routes from any sessions.Source.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/erg0nix/sessiontab/internal/core"
	"github.com/erg0nix/sessiontab/internal/metrics"
	"github.com/erg0nix/sessiontab/internal/sessions"
)

const (
	listRoute = "/apps/{app}/users/{user}/sessions"
	getRoute  = "/apps/{app}/users/{user}/sessions/{id}"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Server answers the same routes the ADK API server exposes for sessions,
// so adkapi.Client can talk to either.
type Server struct {
	source  sessions.Source
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  *mux.Router
}

func NewServer(source sessions.Source, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{source: source, metrics: m, logger: logger}

	router := mux.NewRouter()
	router.UseEncodedPath()
	if m != nil {
		router.Use(m.Middleware)
		router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc(listRoute, s.handleList).Methods(http.MethodGet)
	router.HandleFunc(getRoute, s.handleGet).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
	})

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	appName, userID := pathVar(r, "app"), pathVar(r, "user")

	list, err := s.source.ListSessions(r.Context(), appName, userID)
	if err != nil {
		s.logger.Error("list sessions failed", "app", appName, "user", userID, "error", err)
		if s.metrics != nil {
			s.metrics.ListFailures.Inc()
		}
		s.respondWithSourceError(w, err)
		return
	}
	if list == nil {
		list = []core.Session{}
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	appName, userID, sessionID := pathVar(r, "app"), pathVar(r, "user"), pathVar(r, "id")

	session, err := s.source.GetSession(r.Context(), userID, appName, sessionID)
	if err != nil {
		if !errors.Is(err, sessions.ErrNotFound) {
			s.logger.Error("get session failed", "app", appName, "user", userID, "session", sessionID, "error", err)
		}
		s.respondWithSourceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// pathVar unescapes a route variable; the router matches on the encoded path
// so an escaped slash stays inside its segment.
func pathVar(r *http.Request, key string) string {
	raw := mux.Vars(r)[key]
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) respondWithSourceError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessions.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	respondWithError(w, http.StatusInternalServerError, err.Error())
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, ErrorResponse{Error: message})
}
