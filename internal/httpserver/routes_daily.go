// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily deck.
// Daily games are dealt through POST /game/new with {"daily":true}; every
// player gets the same permutation for a UTC date (HMAC of date + salt seeds
// the shuffle). An owner has at most one daily session per date: asking again
// returns the open one, and once its deck is won, lost or abandoned the day
// is locked.
//
//   - GET /daily/today       → today's date key and whether the caller already played
//   - GET /daily/leaderboard → top 20 winners for today (or ?date=YYYY-MM-DD)

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/memory-game/internal/daily"
	"github.com/robalobadob/memory-game/internal/game"
	"github.com/robalobadob/memory-game/internal/session"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.With(s.withOptionalAuth()).Get("/today", s.handleDailyToday)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// openDaily returns the owner's open daily session for today, dealing it on
// first request. Answers 409 once the owner has a daily result.
func (s *Server) openDaily(w http.ResponseWriter, r *http.Request, own owner) {
	now := s.now()
	date := daily.DateKey(now)
	key := own.id() + "|" + date

	s.dailyMu.Lock()
	defer s.dailyMu.Unlock()

	played, err := s.daily.AlreadyPlayed(r.Context(), own.id(), date)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("daily lookup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "already_played", "date": date})
		return
	}
	if id, ok := s.dailyGames[key]; ok {
		if sess, err := s.store.Get(r.Context(), id); err == nil {
			_ = json.NewEncoder(w).Encode(sess.Snapshot())
			return
		}
	}

	sess, err := s.startSession(r.Context(), own,
		[]game.Option{game.WithRand(daily.Rand(now, s.cfg.DailySalt))},
		session.WithDaily(date),
	)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("new daily game")
		writeError(w, http.StatusInternalServerError, "new_game_failed")
		return
	}
	s.dailyGames[key] = sess.ID()
	hlog.FromRequest(r).Info().Str("gameId", sess.ID()).Str("date", date).Msg("daily dealt")
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// todayRes is returned by /daily/today.
type todayRes struct {
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(s.now())
	own := s.ownerOf(w, r)
	played, err := s.daily.AlreadyPlayed(r.Context(), own.id(), date)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("daily lookup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(todayRes{Date: date, Played: played})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, 20)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
