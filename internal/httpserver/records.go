// internal/httpserver/records.go
//
// Persistence of finished decks.
//   - One results row per (game, generation); signed-in owners also get their
//     games played, wins and streak counters updated.
//   - Daily decks add a daily_results row (won, lost or abandoned) that locks
//     the day for that owner.

package httpserver

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-game/internal/daily"
	"github.com/robalobadob/memory-game/internal/session"
)

// recordResult persists a finished deck. Best effort: failures are logged,
// the game itself is unaffected. Runs on the request goroutine for matches and
// on the timer goroutine for a losing flip-back.
func (s *Server) recordResult(own owner, res session.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger := log.With().Str("gameId", res.SessionID).Uint64("generation", res.Generation).Logger()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("begin result tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	out, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO results
			(game_id, generation, user_id, anonymous_id, won, turns, elapsed_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.Generation, nullable(own.userID), nullable(own.anonID),
		res.Won, res.Turns, res.Elapsed.Milliseconds(), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("insert result")
		return
	}
	if n, _ := out.RowsAffected(); n == 1 && own.userID != "" {
		if err := bumpStats(ctx, tx, own.userID, res.Won); err != nil {
			logger.Warn().Err(err).Str("user", own.userID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		logger.Warn().Err(err).Msg("commit result")
		return
	}

	if res.Daily != "" {
		if err := s.daily.InsertResult(ctx, daily.Result{
			OwnerID:   own.id(),
			Date:      res.Daily,
			Won:       res.Won,
			Turns:     res.Turns,
			ElapsedMs: int(res.Elapsed.Milliseconds()),
		}); err != nil {
			logger.Warn().Err(err).Msg("insert daily result")
		}
	}
}

// bumpStats increments games played; updates wins and streak based on result (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
