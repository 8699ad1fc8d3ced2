package chathub

import (
	"time"

	"anonpair/backend/internal/models"
)

// Session is one pairing. Both directory entries point at the same value, so
// the relation is symmetric by construction.
type Session struct {
	ID        string
	A, B      models.UserID
	StartedAt time.Time
	Messages  int
}

// Partner returns the other participant.
func (s *Session) Partner(u models.UserID) models.UserID {
	if s.A == u {
		return s.B
	}
	return s.A
}

// Directory maps each paired user to their session.
type Directory struct {
	entries map[models.UserID]*Session
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[models.UserID]*Session)}
}

// Pair creates both entries at once. The caller guarantees neither user is
// already paired.
func (d *Directory) Pair(id string, a, b models.UserID, now time.Time) *Session {
	s := &Session{ID: id, A: a, B: b, StartedAt: now}
	d.entries[a] = s
	d.entries[b] = s
	return s
}

func (d *Directory) Session(u models.UserID) (*Session, bool) {
	s, ok := d.entries[u]
	return s, ok
}

func (d *Directory) Partner(u models.UserID) (models.UserID, bool) {
	s, ok := d.entries[u]
	if !ok {
		return 0, false
	}
	return s.Partner(u), true
}

func (d *Directory) InSession(u models.UserID) bool {
	_, ok := d.entries[u]
	return ok
}

// Remove tears down the session of u, deleting both entries.
func (d *Directory) Remove(u models.UserID) (*Session, bool) {
	s, ok := d.entries[u]
	if !ok {
		return nil, false
	}
	delete(d.entries, s.A)
	delete(d.entries, s.B)
	return s, true
}

// Len returns the number of live sessions.
func (d *Directory) Len() int { return len(d.entries) / 2 }

// Partners returns a copy of the user -> partner mapping.
func (d *Directory) Partners() map[models.UserID]models.UserID {
	out := make(map[models.UserID]models.UserID, len(d.entries))
	for u, s := range d.entries {
		out[u] = s.Partner(u)
	}
	return out
}
