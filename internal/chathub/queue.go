package chathub

import "anonpair/backend/internal/models"

// WaitingQueue is the FIFO of users looking for a partner. A user appears at
// most once. It is not safe for concurrent use; ManagerService serializes it.
type WaitingQueue struct {
	order   []models.UserID
	members map[models.UserID]struct{}
}

func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{members: make(map[models.UserID]struct{})}
}

// Push appends u to the tail. It returns false if u is already queued.
func (q *WaitingQueue) Push(u models.UserID) bool {
	if _, ok := q.members[u]; ok {
		return false
	}
	q.order = append(q.order, u)
	q.members[u] = struct{}{}
	return true
}

func (q *WaitingQueue) Contains(u models.UserID) bool {
	_, ok := q.members[u]
	return ok
}

// Remove deletes u from any position. Removing an absent user is a no-op.
func (q *WaitingQueue) Remove(u models.UserID) bool {
	if _, ok := q.members[u]; !ok {
		return false
	}
	delete(q.members, u)
	for i, id := range q.order {
		if id == u {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

// Front returns the head of the queue.
func (q *WaitingQueue) Front() (models.UserID, bool) {
	if len(q.order) == 0 {
		return 0, false
	}
	return q.order[0], true
}

// PopFront2 removes and returns the two oldest waiters.
func (q *WaitingQueue) PopFront2() (models.UserID, models.UserID, bool) {
	if len(q.order) < 2 {
		return 0, 0, false
	}
	a, b := q.order[0], q.order[1]
	q.order = q.order[2:]
	delete(q.members, a)
	delete(q.members, b)
	return a, b, true
}

func (q *WaitingQueue) Len() int { return len(q.order) }

// Snapshot returns a copy of the queue in arrival order.
func (q *WaitingQueue) Snapshot() []models.UserID {
	out := make([]models.UserID, len(q.order))
	copy(out, q.order)
	return out
}
