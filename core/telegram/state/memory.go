package state

import (
	"sync"

	"github.com/spf13/cast"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryManager constructs an in-memory Manager implementation.
// Sessions do not survive restarts; use NewRedisManager for durability.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
	}
}

// Get returns the session for a user if it exists, otherwise a default idle session.
func (m *memoryManager) Get(userID int64) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}
	return &Session{Step: StateIdle, Fields: make(map[string]any)}
}

func (m *memoryManager) session(userID int64) *Session {
	session, ok := m.sessions[userID]
	if !ok {
		session = &Session{Step: StateIdle, Fields: make(map[string]any)}
		m.sessions[userID] = session
	}
	return session
}

// SetStep moves the user to the given step, creating a session if necessary.
func (m *memoryManager) SetStep(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).Step = st
}

// Step returns the current step of a user, or StateIdle if none exists.
func (m *memoryManager) Step(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.Step
	}
	return StateIdle
}

// InProgress reports whether the user currently has an active step.
func (m *memoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.Step != StateIdle
}

// UpdateFields merges the partial record into the user's scratch record.
func (m *memoryManager) UpdateFields(userID int64, partial map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.session(userID)
	for k, v := range partial {
		sess.Fields[k] = v
	}
}

// Fields returns a copy of the accumulated scratch record.
func (m *memoryManager) Fields(userID int64) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any)
	if sess, ok := m.sessions[userID]; ok {
		for k, v := range sess.Fields {
			out[k] = v
		}
	}
	return out
}

// Field retrieves a scratch value by key.
func (m *memoryManager) Field(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	val, ok := sess.Fields[key]
	return val, ok
}

// FieldString retrieves a scratch value coerced to string, or "" when absent.
func (m *memoryManager) FieldString(userID int64, key string) string {
	val, ok := m.Field(userID, key)
	if !ok {
		return ""
	}
	return cast.ToString(val)
}

// FieldInt64 retrieves a scratch value coerced to int64.
func (m *memoryManager) FieldInt64(userID int64, key string) (int64, bool) {
	val, ok := m.Field(userID, key)
	if !ok {
		return 0, false
	}
	v, err := cast.ToInt64E(val)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClearField removes a single key from the scratch record.
func (m *memoryManager) ClearField(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		delete(sess.Fields, key)
	}
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// ManagerHandler executes the handler registered for the user's current step, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	return dispatch(m, c)
}
