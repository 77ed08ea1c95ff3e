// internal/game/view.go
//
// Render contract for the board.
// A card shows its image only while flipped (a current choice or matched), and
// is interactable only when selecting it would not be ignored.

package game

// CardView is the client-facing representation of a card.
// Image is only included when the card is flipped (a current choice or matched).
type CardView struct {
	ID           string `json:"id"`
	Image        string `json:"image,omitempty"`
	Flipped      bool   `json:"flipped"`
	Interactable bool   `json:"interactable"`
}

// View is everything the presentation layer needs to draw the board.
type View struct {
	Cards      []CardView `json:"cards"`
	Turns      int        `json:"turns"`
	TurnLimit  int        `json:"turnLimit"`
	Won        bool       `json:"won"`
	Lost       bool       `json:"lost"`
	State      State      `json:"state"`
	Generation uint64     `json:"generation"`
}

// View builds the render contract for the current deck.
// A card is interactable when selecting it would not be ignored.
func (g *Game) View() View {
	open := !g.disabled && !g.won && !g.lost
	cards := make([]CardView, len(g.deck))
	for i, c := range g.deck {
		chosen := c.ID == g.first || c.ID == g.second
		cv := CardView{
			ID:           c.ID,
			Flipped:      chosen || c.Matched,
			Interactable: open && !c.Matched && c.ID != g.first,
		}
		if cv.Flipped {
			cv.Image = c.Image
		}
		cards[i] = cv
	}
	return View{
		Cards:      cards,
		Turns:      g.turns,
		TurnLimit:  g.cfg.TurnLimit,
		Won:        g.won,
		Lost:       g.lost,
		State:      g.State(),
		Generation: g.generation,
	}
}
