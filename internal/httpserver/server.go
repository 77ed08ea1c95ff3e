// internal/httpserver/server.go
//
// HTTP server wiring for the memory game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health", "/catalog".
//   - Game endpoints (optional auth): /game/new, /game/{id}, select, reset, delete.
//   - Websocket push of board snapshots: /game/{id}/events.
//   - Daily deck leaderboard under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests, who are tracked with an anonymous cookie.
//   - Active games live only in the session store; finished decks are recorded in SQLite.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-game/internal/config"
	"github.com/robalobadob/memory-game/internal/daily"
	"github.com/robalobadob/memory-game/internal/game"
	"github.com/robalobadob/memory-game/internal/store"
)

// Server bundles router, session store, DB handle and configuration.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	catalog  []string
	store    store.Store
	db       *sql.DB
	daily    *daily.Store
	upgrader websocket.Upgrader

	dailyMu    sync.Mutex
	dailyGames map[string]string // owner|date → session id of the open daily deck

	now     func() time.Time
	newGame func(cfg game.Config, opts ...game.Option) (*game.Game, error)
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, catalog []string, st store.Store, db *sql.DB) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     cfg,
		catalog: catalog,
		store:   st,
		db:      db,
		daily:   daily.NewStore(db),
		now:     time.Now,
		newGame: game.New,

		dailyGames: make(map[string]string),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger)) // request-scoped logger
	s.r.Use(accessLog)                   // one log line per request
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(jsonContentType)             // default JSON responses
	s.r.Use(corsFrom(cfg.ClientOrigin))  // credentials-friendly CORS

	// Long-lived websocket; kept out of the request timeout.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"memory-go","endpoints":["/health","/catalog","POST /game/new","POST /game/{id}/select","POST /game/{id}/reset","/game/{id}/events","/daily/leaderboard","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "sessions": s.store.Len()})
		})
		r.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"images":          s.catalog,
				"turnLimit":       s.cfg.TurnLimit,
				"mismatchDelayMs": s.cfg.MismatchDelay.Milliseconds(),
			})
		})

		// Game endpoints: OPTIONAL AUTH (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			r.Post("/game/new", s.handleNewGame)
			r.Get("/game/{id}", s.handleGetGame)
			r.Post("/game/{id}/select", s.handleSelect)
			r.Post("/game/{id}/reset", s.handleReset)
			r.Delete("/game/{id}", s.handleDeleteGame)
		})

		// Daily leaderboard
		s.mountDaily(r)

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	go s.sweepIdle(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.store.Close()
		return srv.Shutdown(shutdownCtx)
	}
}

// sweepIdle prunes idle sessions until ctx is done.
func (s *Server) sweepIdle(ctx context.Context) {
	if s.cfg.SessionIdle <= 0 {
		return
	}
	every := s.cfg.SessionIdle / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pruneSessions(ctx)
		}
	}
}

// pruneSessions closes sessions idle for cfg.SessionIdle and forgets daily
// entries whose session is gone.
func (s *Server) pruneSessions(ctx context.Context) int {
	n := s.store.Prune(s.now(), s.cfg.SessionIdle)

	s.dailyMu.Lock()
	for key, id := range s.dailyGames {
		if _, err := s.store.Get(ctx, id); err != nil {
			delete(s.dailyGames, key)
		}
	}
	s.dailyMu.Unlock()

	if n > 0 {
		log.Info().Int("pruned", n).Int("active", s.store.Len()).Msg("idle sessions pruned")
	}
	return n
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFrom enables credentialed CORS for a single origin.
func corsFrom(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one zerolog line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("requestId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// ------------------------------- small util --------------------------------

// writeError writes {"error": code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// genID creates a 22‑char URL‑safe, crypto‑random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
