package checkin

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hadirku/hadirku-backend/internal/model"
)

// Cache holds the locally known sessions, records and history. It is mutated
// only by the Orchestrator after server confirmation; UI layers read it and
// must never write, which keeps optimistic updates from racing authoritative
// server state.
type Cache struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.AttendanceSession
	records  map[uuid.UUID]*model.AttendanceRecord // keyed by session ID
	history  []model.AttendanceRecord
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		sessions: make(map[uuid.UUID]*model.AttendanceSession),
		records:  make(map[uuid.UUID]*model.AttendanceRecord),
	}
}

// Session returns the cached session, or nil.
func (c *Cache) Session(sessionID uuid.UUID) *model.AttendanceSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[sessionID]
}

// PutSession stores a session fetched from the server.
func (c *Cache) PutSession(s *model.AttendanceSession) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
}

// Record returns the cached record for a session, or nil.
func (c *Cache) Record(sessionID uuid.UUID) *model.AttendanceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[sessionID]
}

// Reconcile replaces any locally held record for the session with the
// server-confirmed one. Server fields (status, distance, timestamp) win over
// the client's estimates.
func (c *Cache) Reconcile(rec *model.AttendanceRecord) {
	if rec == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[rec.SessionID] = rec

	for i := range c.history {
		if c.history[i].SessionID == rec.SessionID && c.history[i].StudentID == rec.StudentID {
			c.history[i] = *rec
			return
		}
	}
	c.history = append(c.history, *rec)
}

// History returns a copy of the cached history.
func (c *Cache) History() []model.AttendanceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.AttendanceRecord, len(c.history))
	copy(out, c.history)
	return out
}

// SetHistory replaces the cached history with a server-fetched page.
func (c *Cache) SetHistory(records []model.AttendanceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history[:0], records...)
	for i := range records {
		rec := records[i]
		c.records[rec.SessionID] = &rec
	}
}
