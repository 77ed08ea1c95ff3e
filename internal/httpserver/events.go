// internal/httpserver/events.go
//
// Websocket stream for one game: GET /game/{id}/events.
// The server writes a Snapshot on connect and after every change, including
// the delayed flip-back of a mismatched pair that no request triggered.
// Clients may also send the two game inputs over the same socket:
//   {"type":"select","cardId":"..."}  and  {"type":"reset"} (ignored for daily decks)

package httpserver

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-game/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// clientMsg is an input sent over the websocket.
type clientMsg struct {
	Type   string `json:"type"` // "select" | "reset"
	CardID string `json:"cardId,omitempty"`
}

// checkOrigin accepts same-origin requests, non-browser clients and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		log.Debug().Err(err).Str("gameId", sess.ID()).Msg("ws upgrade")
		return
	}
	updates, unsubscribe := sess.Subscribe()
	go readPump(conn, sess, unsubscribe)
	writePump(conn, sess.Snapshot(), updates)
}

// readPump applies inputs from the socket until it closes, then unsubscribes,
// which in turn stops the write pump.
func readPump(conn *websocket.Conn, sess *session.Session, unsubscribe func()) {
	defer func() {
		unsubscribe()
		conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("gameId", sess.ID()).Msg("ws read")
			}
			return
		}
		switch msg.Type {
		case "select":
			sess.Select(msg.CardID)
		case "reset":
			if sess.Daily() == "" {
				sess.Reset()
			}
		default:
			log.Debug().Str("gameId", sess.ID()).Str("type", msg.Type).Msg("ws unknown message")
		}
	}
}

// writePump is the only writer on conn.
func writePump(conn *websocket.Conn, first session.Snapshot, updates <-chan session.Snapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(first); err != nil {
		return
	}
	for {
		select {
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
