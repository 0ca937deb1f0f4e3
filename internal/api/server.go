package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
	"github.com/fadedpez/pokerscribe/pkg/services/statistics"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Server exposes stored hands over HTTP and streams new ones over a websocket
type Server struct {
	reader hand.Reader
	stats  *statistics.Service
	hub    *Hub
	live   func() pipeline.StatsSnapshot
	logger *logging.Logger
}

// NewServer creates a server over reader. hub may be nil to disable /ws.
func NewServer(reader hand.Reader, hub *Hub, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default
	}
	return &Server{
		reader: reader,
		stats:  statistics.NewService(reader),
		hub:    hub,
		logger: logger,
	}
}

// WithLiveStats exposes a running pipeline's counters at /stats
func (s *Server) WithLiveStats(fn func() pipeline.StatsSnapshot) *Server {
	s.live = fn
	return s
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/players", func(r chi.Router) {
		r.Get("/", s.handleLeaderboard)
		r.Get("/{name}", s.handlePlayer)
		r.Get("/{name}/transactions", s.handleTransactions)
	})
	r.Get("/hands", s.handleHands)
	r.Get("/stats", s.handleStats)

	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}
	return r
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)

	board, err := s.stats.GetLeaderboard(r.Context(), page, perPage)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	summary, err := s.stats.GetPlayerSummary(r.Context(), name, queryInt(r, "recent", 10))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.reader.GetPlayer(r.Context(), name); err != nil {
		s.fail(w, err)
		return
	}

	txs, err := s.reader.GetTransactions(r.Context(), name, limit(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleHands(w http.ResponseWriter, r *http.Request) {
	txs, err := s.reader.ListHands(r.Context(), limit(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		writeError(w, http.StatusNotFound, "no live capture running")
		return
	}
	writeJSON(w, http.StatusOK, s.live())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, hand.ErrPlayerNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("API request failed: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func limit(r *http.Request) int {
	n := queryInt(r, "limit", defaultLimit)
	if n > maxLimit {
		n = maxLimit
	}
	return n
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
