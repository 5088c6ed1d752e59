package websocket

import (
	"net/http"
	"time"

	"github.com/deepgram/pdfchat/internal/api/v1/handlers/sessions"
	"github.com/deepgram/pdfchat/internal/connections"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/deepgram/pdfchat/internal/services/chat"
	"github.com/deepgram/pdfchat/pkg/httpext"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// TODO: check origin against an allow-list once the browser client has a fixed host
			return true
		},
	}
)

// StreamMessage is pushed to the client on connect and after every state change
type StreamMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	models.Snapshot
}

// HandleStream upgrades to a WebSocket and pushes session snapshots until the
// client leaves or the session is unmounted. Bursts of changes are coalesced;
// the client always receives the latest state.
func HandleStream(manager *chat.Manager, conns *connections.Manager, w http.ResponseWriter, r *http.Request) {
	session, ok := sessions.Lookup(manager, r)
	if !ok {
		httpext.JsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conns.AddConnection(session.ID, conn)
	defer conns.RemoveConnection(session.ID, conn)

	timeouts := conns.GetTimeouts()
	log.Info().
		Str("session_id", session.ID).
		Int("session_streams", conns.SessionConnectionCount(session.ID)).
		Msg("Stream connected")

	changed := make(chan struct{}, 1)
	unsubscribe := session.Controller.Subscribe(func(models.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go readLoop(conn, timeouts, closed)

	send := func() error {
		conn.SetWriteDeadline(time.Now().Add(timeouts.WriteWait))
		return conn.WriteJSON(StreamMessage{
			Type:      "snapshot",
			SessionID: session.ID,
			Snapshot:  session.Controller.Snapshot(),
		})
	}

	if err := send(); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to send initial snapshot")
		return
	}

	ping := time.NewTicker(timeouts.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			log.Info().Str("session_id", session.ID).Msg("Stream disconnected")
			return
		case <-session.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
				time.Now().Add(timeouts.WriteWait))
			return
		case <-changed:
			if err := send(); err != nil {
				log.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to send snapshot")
				return
			}
		case <-ping.C:
			manager.Touch(session.ID)
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeouts.WriteWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and keeps the pong deadline fresh. It
// closes done when the connection fails or the client closes it.
func readLoop(conn *websocket.Conn, timeouts connections.TimeoutConfig, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Unexpected stream closure")
			}
			return
		}
	}
}
