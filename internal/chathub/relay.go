package chathub

import (
	"context"
	"log"
	"time"

	"anonpair/backend/internal/models"
)

// Relay forwards payloads between the two participants of a session.
type Relay struct {
	Directory *Directory
	Pending   *PendingBuffer
	Gateway   Gateway
	Timeout   time.Duration
}

// Relay forwards p from sender to the partner. The payload is recorded in the
// sender's pending buffer whether or not delivery succeeds. It returns the
// partner, ErrNotInSession without a session, or a *DeliveryError.
func (r *Relay) Relay(ctx context.Context, sender models.UserID, p models.Payload) (models.UserID, error) {
	s, ok := r.Directory.Session(sender)
	if !ok {
		return 0, ErrNotInSession
	}
	partner := s.Partner(sender)
	s.Messages++
	r.Pending.Append(sender, models.PendingFrom(p))

	if err := r.forward(ctx, partner, p); err != nil {
		return partner, AsDeliveryError(partner, string(p.Kind), err)
	}
	return partner, nil
}

func (r *Relay) forward(ctx context.Context, to models.UserID, p models.Payload) error {
	cctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	if p.Kind == models.PayloadMedia {
		_, err := r.Gateway.SendMedia(cctx, to, p.Media, p.FileID, p.Caption)
		return err
	}
	_, err := r.Gateway.SendText(cctx, to, p.Text, UIHints{})
	return err
}

// ReplayPending flushes the buffered text entries of u to the current partner
// and clears the buffer. Media entries carry no file handle and are dropped.
func (r *Relay) ReplayPending(ctx context.Context, u models.UserID) int {
	partner, ok := r.Directory.Partner(u)
	if !ok {
		return 0
	}
	sent := 0
	for _, m := range r.Pending.Drain(u) {
		if m.Kind != models.PayloadText {
			continue
		}
		if err := r.forward(ctx, partner, models.TextPayload(m.Content, m.MessageID)); err != nil {
			log.Printf("ERROR: Failed to replay pending message %d from %d to %d: %v", m.MessageID, u, partner, err)
			continue
		}
		sent++
	}
	return sent
}

func (r *Relay) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultSendTimeout
	}
	return r.Timeout
}
