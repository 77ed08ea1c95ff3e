// internal/game/types.go
//
// Core type definitions for the memory match engine.
// Defines:
//   - CardFace: one entry of the deck.
//   - State: coarse state of the turn machine.
//   - Outcome: what a single selection did.
//   - Config: catalog, turn limit and flip-back delay for one game.
//   - Game: state for a single deck instance and its turns.

package game

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultTurnLimit     = 15
	DefaultMismatchDelay = 1000 * time.Millisecond
)

// ErrInvalidConfig is returned by New and Config.Validate.
var ErrInvalidConfig = errors.New("invalid game config")

// CardFace is a single card in the deck.
// ID is fixed when the deck is built; Matched flips to true at most once per deck.
type CardFace struct {
	ID      string `json:"id"`
	Image   string `json:"image"`
	Matched bool   `json:"matched"`
}

// State is the coarse position of the turn machine.
//   - "idle":      no choice yet.
//   - "selecting": first choice recorded, waiting for a partner.
//   - "resolving": a mismatched pair is face-up and input is disabled.
//   - "won"/"lost": terminal until the next shuffle.
type State string

const (
	StateIdle      State = "idle"
	StateSelecting State = "selecting"
	StateResolving State = "resolving"
	StateWon       State = "won"
	StateLost      State = "lost"
)

// Outcome reports what Select did with a card.
type Outcome int

const (
	Ignored     Outcome = iota // selection was a no-op
	FirstChoice                // recorded as first choice
	Matched                    // completed a matching pair
	Mismatched                 // completed a non-matching pair; flip-back pending
)

func (o Outcome) String() string {
	switch o {
	case FirstChoice:
		return "first_choice"
	case Matched:
		return "matched"
	case Mismatched:
		return "mismatched"
	default:
		return "ignored"
	}
}

// Config holds the tunables for a game.
type Config struct {
	Catalog       []string      // distinct image identifiers; each appears twice in the deck
	TurnLimit     int           // turns allowed before the game is lost
	MismatchDelay time.Duration // how long a mismatched pair stays face-up
}

// Validate checks that the catalog is non-empty with unique, non-blank identifiers
// and that the limits are positive.
func (c Config) Validate() error {
	if len(c.Catalog) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Catalog))
	for _, img := range c.Catalog {
		if img == "" {
			return fmt.Errorf("%w: blank image identifier", ErrInvalidConfig)
		}
		if _, dup := seen[img]; dup {
			return fmt.Errorf("%w: duplicate image %q", ErrInvalidConfig, img)
		}
		seen[img] = struct{}{}
	}
	if c.TurnLimit <= 0 {
		return fmt.Errorf("%w: turn limit must be positive", ErrInvalidConfig)
	}
	if c.MismatchDelay < 0 {
		return fmt.Errorf("%w: negative mismatch delay", ErrInvalidConfig)
	}
	return nil
}

// Status is the derived progress of the current deck.
type Status struct {
	Turns     int  `json:"turns"`
	TurnLimit int  `json:"turnLimit"`
	Won       bool `json:"won"`
	Lost      bool `json:"lost"`
}

// Game holds the state of a single memory game.
// It is not safe for concurrent use; callers serialize events (see internal/session).
type Game struct {
	cfg     Config
	shuffle func(n int, swap func(i, j int))

	deck       []CardFace
	first      string // card ID of the first choice, "" if none
	second     string // card ID of the second choice, "" if none
	disabled   bool   // true while a mismatched pair waits to flip back
	turns      int
	won        bool
	lost       bool
	generation uint64 // bumped by every Shuffle
}
