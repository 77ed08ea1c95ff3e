package daily

import (
	"context"
	"database/sql"
)

// Result is one owner's finished daily deck.
type Result struct {
	OwnerID   string `json:"ownerId"`
	Date      string `json:"date"`
	Won       bool   `json:"won"`
	Turns     int    `json:"turns"`
	ElapsedMs int    `json:"elapsedMs"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether owner has a recorded daily result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, ownerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE owner_id=? AND date=?",
		ownerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records r unless the owner already has a result for that date.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(owner_id, date, won, turns, elapsed_ms)
		 VALUES(?,?,?,?,?)`, r.OwnerID, r.Date, r.Won, r.Turns, r.ElapsedMs,
	)
	return err
}

// LBRow is one leaderboard entry. OwnerID stays server-side: for guests it is
// their anonymous cookie value.
type LBRow struct {
	OwnerID   string `json:"-"`
	Player    string `json:"player"` // username, or "guest"
	Guest     bool   `json:"guest"`
	Turns     int    `json:"turns"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard lists the winners for date: fewest turns first, then fastest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.owner_id, COALESCE(u.username, ''), d.turns, d.elapsed_ms
		 FROM daily_results d
		 LEFT JOIN users u ON u.id = d.owner_id
		 WHERE d.date=? AND d.won=1
		 ORDER BY d.turns ASC, d.elapsed_ms ASC, d.created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Player, &r.Turns, &r.ElapsedMs); err != nil {
			return nil, err
		}
		if r.Player == "" {
			r.Player, r.Guest = "guest", true
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
