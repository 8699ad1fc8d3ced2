package chathub

import "anonpair/backend/internal/models"

// PendingBuffer holds, per user, copies of relayed payloads kept for replay
// into a freshly formed session. It has no eviction policy.
type PendingBuffer struct {
	byUser map[models.UserID][]models.PendingMessage
}

func NewPendingBuffer() *PendingBuffer {
	return &PendingBuffer{byUser: make(map[models.UserID][]models.PendingMessage)}
}

func (b *PendingBuffer) Append(u models.UserID, m models.PendingMessage) {
	b.byUser[u] = append(b.byUser[u], m)
}

// Entries returns a copy of the buffered messages of u.
func (b *PendingBuffer) Entries(u models.UserID) []models.PendingMessage {
	src := b.byUser[u]
	if len(src) == 0 {
		return nil
	}
	out := make([]models.PendingMessage, len(src))
	copy(out, src)
	return out
}

// Drain returns the buffered messages of u and clears them.
func (b *PendingBuffer) Drain(u models.UserID) []models.PendingMessage {
	out := b.byUser[u]
	delete(b.byUser, u)
	return out
}

func (b *PendingBuffer) Clear(users ...models.UserID) {
	for _, u := range users {
		delete(b.byUser, u)
	}
}

func (b *PendingBuffer) Len(u models.UserID) int { return len(b.byUser[u]) }
