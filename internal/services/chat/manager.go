package chat

import (
	"context"
	"sync"
	"time"

	"github.com/deepgram/pdfchat/internal/domain/chat"
	"github.com/deepgram/pdfchat/internal/domain/chat/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session is a mounted conversation owned by a single authenticated subject
type Session struct {
	ID         string
	Owner      string
	Controller *Controller
	CreatedAt  time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	lastSeen time.Time
}

// Context is cancelled when the session is unmounted
func (s *Session) Context() context.Context {
	return s.ctx
}

// Manager mounts and unmounts sessions. Sessions live in memory only.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	backend  chat.Backend
	opts     []Option
	idleTTL  time.Duration
	now      func() time.Time
}

func NewManager(backend chat.Backend, idleTTL time.Duration, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		backend:  backend,
		opts:     opts,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create mounts an empty session for owner
func (m *Manager) Create(owner string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := m.now()

	session := &Session{
		ID:         uuid.New().String(),
		Owner:      owner,
		Controller: NewController(m.backend, m.opts...),
		CreatedAt:  now,
		ctx:        ctx,
		cancel:     cancel,
		lastSeen:   now,
	}

	// Any state change, including settlement, counts as activity
	session.Controller.Subscribe(func(models.Snapshot) {
		m.touch(session)
	})

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	log.Info().
		Str("session_id", session.ID).
		Str("owner", owner).
		Msg("Session mounted")

	return session
}

// Get returns the session if it exists and belongs to owner
func (m *Manager) Get(id, owner string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists || session.Owner != owner {
		return nil, false
	}
	session.lastSeen = m.now()
	return session, true
}

// Touch marks the session as active without an owner check. Open streams
// call it so a watched session is not swept.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[id]; exists {
		session.lastSeen = m.now()
	}
}

func (m *Manager) touch(session *Session) {
	m.mu.Lock()
	session.lastSeen = m.now()
	m.mu.Unlock()
}

// Delete unmounts the session, discarding its transcript
func (m *Manager) Delete(id, owner string) bool {
	m.mu.Lock()
	session, exists := m.sessions[id]
	if !exists || session.Owner != owner {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	session.cancel()
	log.Info().Str("session_id", id).Msg("Session unmounted")
	return true
}

// Count returns the number of mounted sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep unmounts sessions idle for longer than the TTL. Busy sessions are kept
// until their request settles.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	var expired []*Session
	for id, session := range m.sessions {
		if now.Sub(session.lastSeen) < m.idleTTL || session.Controller.Busy() {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, session)
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.cancel()
		log.Info().
			Str("session_id", session.ID).
			Dur("idle_ttl", m.idleTTL).
			Msg("Idle session unmounted")
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done, then unmounts
// everything that is left.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.cancel()
	}
	log.Info().Int("sessions", len(sessions)).Msg("All sessions unmounted")
}
