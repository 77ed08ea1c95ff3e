package daily

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/memory-game/assets"
	"github.com/robalobadob/memory-game/internal/database"
	"github.com/robalobadob/memory-game/internal/game"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	got := DateKey(time.Date(2026, 3, 2, 5, 0, 0, 0, loc))
	if got != "2026-03-01" {
		t.Fatalf("DateKey = %s", got)
	}
}

func deckImages(t *testing.T, date time.Time, salt string) []string {
	t.Helper()
	g, err := game.New(game.Config{
		Catalog:   []string{"a", "b", "c", "d", "e", "f"},
		TurnLimit: 15,
	}, game.WithRand(Rand(date, salt)))
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, c := range g.Deck() {
		out = append(out, c.Image)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRand_SameDateSameDeck(t *testing.T) {
	morning := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC)
	if !equal(deckImages(t, morning, "s"), deckImages(t, evening, "s")) {
		t.Fatal("same date produced different decks")
	}
	// 12!/2^6 orderings make an accidental collision negligible.
	if equal(deckImages(t, morning, "s"), deckImages(t, morning.AddDate(0, 0, 1), "s")) {
		t.Fatal("consecutive dates produced the same deck")
	}
	if equal(deckImages(t, morning, "s"), deckImages(t, morning, "other")) {
		t.Fatal("different salts produced the same deck")
	}
}

func TestStore_OneResultPerOwnerAndLeaderboardOrder(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s := NewStore(db)
	date := "2026-05-01"

	results := []Result{
		{OwnerID: "slow", Date: date, Won: true, Turns: 8, ElapsedMs: 90000},
		{OwnerID: "fast", Date: date, Won: true, Turns: 8, ElapsedMs: 30000},
		{OwnerID: "lucky", Date: date, Won: true, Turns: 6, ElapsedMs: 120000},
		{OwnerID: "loser", Date: date, Won: false, Turns: 15, ElapsedMs: 1000},
		// Second attempt by the same owner is ignored.
		{OwnerID: "slow", Date: date, Won: true, Turns: 6, ElapsedMs: 1},
	}
	for _, r := range results {
		if err := s.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	played, err := s.AlreadyPlayed(ctx, "loser", date)
	if err != nil || !played {
		t.Fatalf("AlreadyPlayed(loser) = %v, %v", played, err)
	}
	played, err = s.AlreadyPlayed(ctx, "nobody", date)
	if err != nil || played {
		t.Fatalf("AlreadyPlayed(nobody) = %v, %v", played, err)
	}

	top, err := s.Leaderboard(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, r := range top {
		order = append(order, r.OwnerID)
	}
	if !equal(order, []string{"lucky", "fast", "slow"}) {
		t.Fatalf("leaderboard order = %v", order)
	}
	if top[2].Turns != 8 {
		t.Fatalf("second attempt overwrote first: %+v", top[2])
	}

	// Guests have no username; their owner id is never serialized.
	body, err := json.Marshal(top)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"slow", "fast", "lucky"} {
		if strings.Contains(string(body), id) {
			t.Fatalf("owner id %q leaked: %s", id, body)
		}
	}
	if !top[0].Guest || top[0].Player != "guest" {
		t.Fatalf("guest row = %+v", top[0])
	}
}
