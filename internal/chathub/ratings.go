package chathub

import "anonpair/backend/internal/models"

const (
	MinScore = 1
	MaxScore = 5
	// SkipScore is the "skip" selection; it never touches the accumulator.
	SkipScore = 0
)

// RatingLedger keeps cumulative post-chat scores per user. Accumulators are
// created lazily and never deleted.
type RatingLedger struct {
	acc map[models.UserID]*models.RatingAccumulator
}

func NewRatingLedger() *RatingLedger {
	return &RatingLedger{acc: make(map[models.UserID]*models.RatingAccumulator)}
}

// Touch creates an empty accumulator for u if none exists.
func (l *RatingLedger) Touch(u models.UserID) *models.RatingAccumulator {
	a, ok := l.acc[u]
	if !ok {
		a = &models.RatingAccumulator{}
		l.acc[u] = a
	}
	return a
}

// Record adds score to target. Only scores in [MinScore, MaxScore] are kept;
// the return value reports whether the accumulator changed.
func (l *RatingLedger) Record(target models.UserID, score int) bool {
	a := l.Touch(target)
	if score < MinScore || score > MaxScore {
		return false
	}
	a.Total += float64(score)
	a.Count++
	return true
}

// Average is 0 for users without ratings.
func (l *RatingLedger) Average(u models.UserID) float64 {
	a, ok := l.acc[u]
	if !ok {
		return 0
	}
	return a.Average()
}

// Get returns a copy of the accumulator for u.
func (l *RatingLedger) Get(u models.UserID) models.RatingAccumulator {
	if a, ok := l.acc[u]; ok {
		return *a
	}
	return models.RatingAccumulator{}
}

func (l *RatingLedger) Len() int { return len(l.acc) }
