// internal/game/engine.go
//
// Turn machine for a single memory game.
// Responsibilities:
//   - Build decks by duplicating the catalog and applying a uniform shuffle.
//   - Accept card selections, ignoring anything that is not a legal choice.
//   - Resolve pairs: matches synchronously, mismatches through CompleteMismatch.
//   - Recompute won/lost after every deck or turn change (won is checked first).
//
// Notes:
//   - Timers live in internal/session. The engine only reports that a mismatch is
//     pending and which generation it belongs to.
//   - Generation changes on every Shuffle so a stale completion can be detected.
package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Option customizes a Game at construction.
type Option func(*Game)

// WithRand makes the game shuffle with r instead of the process-wide source.
// Used for deterministic daily decks and tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) {
		if r != nil {
			g.shuffle = r.Shuffle
		}
	}
}

// New validates cfg and returns a game with a freshly shuffled deck.
func New(cfg Config, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		cfg:     cfg,
		shuffle: rand.Shuffle,
	}
	g.cfg.Catalog = append([]string(nil), cfg.Catalog...)
	for _, opt := range opts {
		opt(g)
	}
	g.Shuffle()
	return g, nil
}

// Shuffle replaces the deck and resets turns, selection and the won/lost flags.
// Any pending mismatch becomes stale.
func (g *Game) Shuffle() {
	g.deck = buildDeck(g.cfg.Catalog, g.shuffle)
	g.first, g.second = "", ""
	g.disabled = false
	g.turns = 0
	g.won, g.lost = false, false
	g.generation++
	g.recompute()
}

// Select applies a click on cardID.
//
// Ignored when input is disabled, the game is over, the card is unknown,
// already matched, or already the first choice.
func (g *Game) Select(cardID string) Outcome {
	if g.disabled || g.won || g.lost {
		return Ignored
	}
	i := g.index(cardID)
	if i < 0 || g.deck[i].Matched || cardID == g.first {
		return Ignored
	}
	if g.first == "" {
		g.first = cardID
		return FirstChoice
	}
	g.second = cardID
	return g.resolve()
}

// resolve compares the two choices.
func (g *Game) resolve() Outcome {
	a, b := g.index(g.first), g.index(g.second)
	if g.deck[a].Image == g.deck[b].Image {
		g.deck[a].Matched = true
		g.deck[b].Matched = true
		g.endTurn()
		return Matched
	}
	g.disabled = true
	return Mismatched
}

// CompleteMismatch flips a mismatched pair back and consumes the turn.
// Returns false (and changes nothing) when no mismatch is pending or gen
// belongs to a deck that has since been reshuffled.
func (g *Game) CompleteMismatch(gen uint64) bool {
	if gen != g.generation || !g.disabled {
		return false
	}
	g.endTurn()
	return true
}

// endTurn clears the selection, counts the turn and re-enables input.
func (g *Game) endTurn() {
	g.first, g.second = "", ""
	g.turns++
	g.disabled = false
	g.recompute()
}

// recompute derives won/lost. Won wins ties with the turn limit.
func (g *Game) recompute() {
	if len(g.deck) > 0 && allMatched(g.deck) {
		g.won, g.lost = true, false
		return
	}
	if !g.won && g.turns >= g.cfg.TurnLimit {
		g.lost = true
	}
}

// Generation identifies the current deck instance.
func (g *Game) Generation() uint64 { return g.generation }

// Pending reports whether a mismatched pair is waiting to flip back.
func (g *Game) Pending() bool { return g.disabled }

// Choices returns the IDs of the current choices ("" when unset).
func (g *Game) Choices() (first, second string) { return g.first, g.second }

// Config returns the game's configuration.
func (g *Game) Config() Config { return g.cfg }

// Deck returns a copy of the deck.
func (g *Game) Deck() []CardFace {
	return append([]CardFace(nil), g.deck...)
}

// Status returns turns, limit and the terminal flags.
func (g *Game) Status() Status {
	return Status{Turns: g.turns, TurnLimit: g.cfg.TurnLimit, Won: g.won, Lost: g.lost}
}

// State reports the coarse machine state.
func (g *Game) State() State {
	switch {
	case g.won:
		return StateWon
	case g.lost:
		return StateLost
	case g.disabled:
		return StateResolving
	case g.first != "":
		return StateSelecting
	default:
		return StateIdle
	}
}

// Over reports whether the current deck reached a terminal state.
func (g *Game) Over() bool { return g.won || g.lost }

func (g *Game) index(cardID string) int {
	if cardID == "" {
		return -1
	}
	for i := range g.deck {
		if g.deck[i].ID == cardID {
			return i
		}
	}
	return -1
}

// buildDeck duplicates every catalog entry, shuffles and assigns fresh IDs.
func buildDeck(catalog []string, shuffle func(n int, swap func(i, j int))) []CardFace {
	deck := make([]CardFace, 0, 2*len(catalog))
	for _, img := range catalog {
		deck = append(deck, CardFace{Image: img}, CardFace{Image: img})
	}
	shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	for i := range deck {
		deck[i].ID = uuid.NewString()
	}
	return deck
}

func allMatched(deck []CardFace) bool {
	for _, c := range deck {
		if !c.Matched {
			return false
		}
	}
	return true
}
