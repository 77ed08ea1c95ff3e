package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/memory-game/internal/game"
	"github.com/robalobadob/memory-game/internal/session"
)

func newSession(t *testing.T, id string, opts ...session.Option) *session.Session {
	t.Helper()
	g, err := game.New(game.Config{Catalog: []string{"a", "b"}, TurnLimit: 3})
	if err != nil {
		t.Fatal(err)
	}
	return session.New(id, g, opts...)
}

// closed reports whether s has been torn down (its subscriptions close immediately).
func closed(s *session.Session) bool {
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()
	select {
	case _, ok := <-ch:
		return !ok
	default:
		return false
	}
}

func TestMemory_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := newSession(t, "one")

	if err := m.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "one")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d", m.Len())
	}

	if err := m.Delete(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if !closed(s) {
		t.Fatal("deleted session not closed")
	}
	if _, err := m.Get(ctx, "one"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := m.Delete(ctx, "one"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestMemory_SaveReplacesAndClosesOld(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	first := newSession(t, "x")
	second := newSession(t, "x")
	_ = m.Save(ctx, first)
	_ = m.Save(ctx, second)

	if !closed(first) {
		t.Fatal("replaced session not closed")
	}
	if closed(second) {
		t.Fatal("current session closed")
	}
	// Saving the same session again keeps it open.
	_ = m.Save(ctx, second)
	if closed(second) {
		t.Fatal("re-saving closed the session")
	}
}

func TestMemory_CloseTearsEverythingDown(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	a, b := newSession(t, "a"), newSession(t, "b")
	_ = m.Save(ctx, a)
	_ = m.Save(ctx, b)

	m.Close()

	if m.Len() != 0 || !closed(a) || !closed(b) {
		t.Fatal("store not fully closed")
	}
}

func TestMemory_PruneDropsIdleSessions(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	clock := session.WithClock(func() time.Time { return now })

	m := NewMemoryStore()
	old, fresh, watched := newSession(t, "old", clock), newSession(t, "fresh", clock), newSession(t, "watched", clock)
	_ = m.Save(ctx, old)
	_ = m.Save(ctx, watched)
	_, unsubscribe := watched.Subscribe()
	defer unsubscribe()

	now = start.Add(50 * time.Minute)
	_ = m.Save(ctx, fresh)
	fresh.Snapshot()

	if n := m.Prune(start.Add(time.Hour), 30*time.Minute); n != 1 {
		t.Fatalf("pruned %d sessions", n)
	}
	if _, err := m.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("idle session kept: %v", err)
	}
	if !closed(old) {
		t.Fatal("pruned session not closed")
	}
	for _, id := range []string{"fresh", "watched"} {
		if _, err := m.Get(ctx, id); err != nil {
			t.Fatalf("%s pruned: %v", id, err)
		}
	}
}
