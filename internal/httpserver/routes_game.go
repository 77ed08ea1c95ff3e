// internal/httpserver/routes_game.go
//
// Game endpoints. The browser only ever sends two kinds of input: a card
// selection and a reset. Everything else is reading the board.
//
//   - POST   /game/new          → deal a new game (or open today's daily deck)
//   - GET    /game/{id}         → current board
//   - POST   /game/{id}/select  → click a card; invalid clicks are no-ops, still 200
//   - POST   /game/{id}/reset   → reshuffle, clearing turns and win/loss (not for daily decks)
//   - DELETE /game/{id}         → tear the session down; an unfinished daily deck counts as lost

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/memory-game/internal/game"
	"github.com/robalobadob/memory-game/internal/session"
	"github.com/robalobadob/memory-game/internal/store"
)

// newGameReq is the optional payload for POST /game/new.
type newGameReq struct {
	Daily bool `json:"daily"` // deal today's shared deck
}

// selectReq is the payload for POST /game/{id}/select.
type selectReq struct {
	CardID string `json:"cardId"`
}

// selectRes is the board after a selection plus what the click did.
type selectRes struct {
	session.Snapshot
	Outcome string `json:"outcome"` // ignored | first_choice | matched | mismatched
}

// handleNewGame deals a new game for the caller and registers the session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	own := s.ownerOf(w, r)
	if req.Daily {
		s.openDaily(w, r, own)
		return
	}

	sess, err := s.startSession(r.Context(), own, nil)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("new game")
		writeError(w, http.StatusInternalServerError, "new_game_failed")
		return
	}
	hlog.FromRequest(r).Info().Str("gameId", sess.ID()).Msg("game dealt")
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// startSession deals a game for own and registers its session.
func (s *Server) startSession(ctx context.Context, own owner, gameOpts []game.Option, sessOpts ...session.Option) (*session.Session, error) {
	g, err := s.newGame(s.cfg.Game(s.catalog), gameOpts...)
	if err != nil {
		return nil, err
	}
	sessOpts = append(sessOpts,
		session.WithClock(func() time.Time { return s.now() }),
		session.WithOnFinish(func(res session.Result) { s.recordResult(own, res) }),
	)
	sess := session.New(genID(), g, sessOpts...)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// sessionFor loads the session named by the {id} URL param, writing 404 if missing.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleSelect applies a card click.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	snap, out := sess.Select(req.CardID)
	_ = json.NewEncoder(w).Encode(selectRes{Snapshot: snap, Outcome: out.String()})
}

// handleReset reshuffles the deck. A pending flip-back is cancelled.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	if sess.Daily() != "" {
		writeError(w, http.StatusConflict, "daily_no_reset")
		return
	}
	_ = json.NewEncoder(w).Encode(sess.Reset())
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
