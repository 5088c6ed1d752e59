package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// Manager tracks the stream connections attached to each session
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]map[*websocket.Conn]struct{}
	timeouts TimeoutConfig
}

var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		sessions: make(map[string]map[*websocket.Conn]struct{}),
		timeouts: timeouts,
	}
}

func (m *Manager) AddConnection(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.sessions[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		m.sessions[sessionID] = conns
	}
	conns[conn] = struct{}{}
}

func (m *Manager) RemoveConnection(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(m.sessions, sessionID)
	}
}

func (m *Manager) HasConnection(sessionID string, conn *websocket.Conn) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.sessions[sessionID][conn]
	return exists
}

// GetConnectionCount returns the number of connections across all sessions
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, conns := range m.sessions {
		count += len(conns)
	}
	return count
}

func (m *Manager) SessionConnectionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

// CloseSession sends a normal close frame to every connection on the session
// and forgets them. Stream handlers notice the closed socket and exit.
func (m *Manager) CloseSession(sessionID string) int {
	m.mu.Lock()
	conns := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	deadline := time.Now().Add(m.timeouts.WriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
	for conn := range conns {
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("Failed to send close frame")
		}
		conn.Close()
	}
	return len(conns)
}

func (m *Manager) GetTimeouts() TimeoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeouts
}

func (m *Manager) SetTimeouts(timeouts TimeoutConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = timeouts
}
