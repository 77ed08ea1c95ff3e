// internal/session/session.go
//
// One player's active game.
// Responsibilities:
//   - Own exactly one *game.Game and serialize every event on it.
//   - Run the flip-back timer for mismatched pairs, tagged with the deck generation
//     that created it, and stop it on reset/close.
//   - Publish a Snapshot to subscribers after every state change.
//   - Report each finished deck once through the OnFinish hook. Closing a daily
//     session before its deck is over reports the deck as abandoned.
//   - Track the last activity so idle sessions can be pruned.

package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-game/internal/game"
)

// Timer is the part of *time.Timer the session needs.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Snapshot is the view of a session sent to clients.
type Snapshot struct {
	GameID string `json:"gameId"`
	Daily  string `json:"daily,omitempty"` // date key for daily decks
	game.View
}

// Result describes a deck that reached won or lost.
type Result struct {
	SessionID  string
	Daily      string
	Generation uint64
	Won        bool
	Turns      int
	Elapsed    time.Duration
	Abandoned  bool // daily deck closed before it was won or lost
}

// Session wraps a game with its timer and subscribers.
type Session struct {
	id    string
	daily string

	mu       sync.Mutex
	g        *game.Game
	sched    Scheduler
	now      func() time.Time
	timer    Timer
	started  time.Time
	touched  time.Time // last input or read
	reported uint64 // generation already passed to onFinish
	onFinish func(Result)
	subs     map[chan Snapshot]struct{}
	closed   bool
}

// Option customizes a Session.
type Option func(*Session)

// WithScheduler replaces the time.AfterFunc based scheduler.
func WithScheduler(s Scheduler) Option { return func(ss *Session) { ss.sched = s } }

// WithClock replaces time.Now for elapsed-time reporting.
func WithClock(now func() time.Time) Option { return func(ss *Session) { ss.now = now } }

// WithOnFinish registers a hook called once per deck that ends in won or lost.
// It runs outside the session lock.
func WithOnFinish(f func(Result)) Option { return func(ss *Session) { ss.onFinish = f } }

// WithDaily tags the session as playing the daily deck for date.
func WithDaily(date string) Option { return func(ss *Session) { ss.daily = date } }

// New wraps g in a session identified by id.
func New(id string, g *game.Game, opts ...Option) *Session {
	s := &Session{
		id:    id,
		g:     g,
		sched: realScheduler{},
		now:   time.Now,
		subs:  make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.touched = s.started
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Daily returns the daily date key, or "" for a regular game.
func (s *Session) Daily() string { return s.daily }

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()
	return s.snapshotLocked()
}

// IdleFor reports how long the session has gone without input or reads.
// A session with subscribers is never idle.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return 0
	}
	return now.Sub(s.touched)
}

// Select forwards a card click to the game. A mismatch schedules the flip-back.
func (s *Session) Select(cardID string) (Snapshot, game.Outcome) {
	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, game.Ignored
	}
	s.touched = s.now()
	out := s.g.Select(cardID)
	if out == game.Mismatched {
		gen := s.g.Generation()
		s.timer = s.sched.AfterFunc(s.g.Config().MismatchDelay, func() { s.completeMismatch(gen) })
	}
	var (
		snap Snapshot
		res  *Result
	)
	if out != game.Ignored {
		snap, res = s.changedLocked()
	} else {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	log.Debug().Str("gameId", s.id).Str("card", cardID).Str("outcome", out.String()).Msg("select")
	s.report(res)
	return snap, out
}

// completeMismatch is the timer callback. It does nothing for a superseded deck.
func (s *Session) completeMismatch(gen uint64) {
	s.mu.Lock()
	if s.closed || !s.g.CompleteMismatch(gen) {
		s.mu.Unlock()
		log.Debug().Str("gameId", s.id).Uint64("generation", gen).Msg("stale flip-back ignored")
		return
	}
	s.timer = nil
	_, res := s.changedLocked()
	s.mu.Unlock()
	s.report(res)
}

// Reset stops any pending flip-back and deals a fresh deck.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.stopTimerLocked()
	s.g.Shuffle()
	s.started = s.now()
	s.touched = s.started
	snap, res := s.changedLocked()
	s.mu.Unlock()

	log.Debug().Str("gameId", s.id).Uint64("generation", snap.Generation).Msg("reset")
	s.report(res)
	return snap
}

// Subscribe returns a channel receiving a Snapshot after every change and a
// func to stop receiving. The channel is closed on unsubscribe or Close.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.touched = s.now()
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// Close stops the timer and releases subscribers. The session ignores
// further input. An unfinished daily deck is reported as abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	res := s.abandonedLocked()
	s.mu.Unlock()
	s.report(res)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{GameID: s.id, Daily: s.daily, View: s.g.View()}
}

// changedLocked publishes the new state and returns a result if the deck just finished.
func (s *Session) changedLocked() (Snapshot, *Result) {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			log.Warn().Str("gameId", s.id).Msg("subscriber buffer full, dropping snapshot")
		}
	}
	gen := s.g.Generation()
	if !s.g.Over() || s.reported == gen {
		return snap, nil
	}
	s.reported = gen
	st := s.g.Status()
	return snap, &Result{
		SessionID:  s.id,
		Daily:      s.daily,
		Generation: gen,
		Won:        st.Won,
		Turns:      st.Turns,
		Elapsed:    s.now().Sub(s.started),
	}
}

// abandonedLocked returns a lost result for an unfinished daily deck, once.
func (s *Session) abandonedLocked() *Result {
	gen := s.g.Generation()
	if s.daily == "" || s.g.Over() || s.reported == gen {
		return nil
	}
	s.reported = gen
	return &Result{
		SessionID:  s.id,
		Daily:      s.daily,
		Generation: gen,
		Turns:      s.g.Status().Turns,
		Elapsed:    s.now().Sub(s.started),
		Abandoned:  true,
	}
}

func (s *Session) report(res *Result) {
	if res == nil || s.onFinish == nil {
		return
	}
	log.Info().Str("gameId", s.id).Bool("won", res.Won).Bool("abandoned", res.Abandoned).
		Int("turns", res.Turns).Msg("game finished")
	s.onFinish(*res)
}
