package chathub

import (
	"time"

	"anonpair/backend/internal/models"
)

// QueueState is the result of an enqueue request.
type QueueState int

const (
	QueueNone QueueState = iota
	Queued
	QueuedAlready
	QueuedAlreadyInSession
)

func (s QueueState) String() string {
	switch s {
	case Queued:
		return "queued"
	case QueuedAlready:
		return "already_queued"
	case QueuedAlreadyInSession:
		return "already_in_session"
	default:
		return "none"
	}
}

// MatcherService pairs waiting users in strict arrival order. It runs one
// matching pass per enqueue and never scans in the background.
type MatcherService struct {
	Queue     *WaitingQueue
	Directory *Directory
}

func NewMatcherService(q *WaitingQueue, d *Directory) *MatcherService {
	return &MatcherService{Queue: q, Directory: d}
}

// Enqueue appends u to the tail unless u is already paired or already waiting.
func (m *MatcherService) Enqueue(u models.UserID) QueueState {
	if m.Directory.InSession(u) {
		return QueuedAlreadyInSession
	}
	if !m.Queue.Push(u) {
		return QueuedAlready
	}
	return Queued
}

// TryMatch pops the two front waiters when at least two are queued and the
// front is not the user who was just inserted.
func (m *MatcherService) TryMatch(justInserted models.UserID) (models.UserID, models.UserID, bool) {
	if m.Queue.Len() < 2 {
		return 0, 0, false
	}
	if front, _ := m.Queue.Front(); front == justInserted {
		return 0, 0, false
	}
	return m.Queue.PopFront2()
}

// Pair records the session for a and b.
func (m *MatcherService) Pair(id string, a, b models.UserID, now time.Time) *Session {
	return m.Directory.Pair(id, a, b, now)
}

// Rollback removes both entries of a session that could not be announced.
func (m *MatcherService) Rollback(s *Session) {
	m.Directory.Remove(s.A)
}
