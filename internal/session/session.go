// Package session tracks per-chat progress through the multi-turn
// donation flow. At most one live session exists per chat; starting the
// flow again while one is open resets it rather than stacking a second.
package session

import "sync"

// State of a live session. A session that reached its end is removed from
// the table rather than kept in a terminal state.
type State int

const (
	// AwaitingDetails means the bot prompted for the 3-line donation
	// input and is waiting for it.
	AwaitingDetails State = iota
)

// Session is one chat's conversational state.
type Session struct {
	Owner int64
	State State
}

// Manager is the concurrent session table. Individual sessions need no
// lock of their own: the transport delivers one chat's updates serially.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Begin opens a session for owner, replacing any existing one.
func (m *Manager) Begin(owner int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{Owner: owner, State: AwaitingDetails}
	m.sessions[owner] = s
	return s
}

// Get returns the live session for owner, or nil.
func (m *Manager) Get(owner int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[owner]
}

// End discards the session for owner, if any.
func (m *Manager) End(owner int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, owner)
}
