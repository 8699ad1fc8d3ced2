// Package transport routes engine deliveries to the transport that owns a user.
package transport

import (
	"context"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/models"
)

// Router sends to Anon for negative (WebSocket) identities and to Telegram
// for all others. A missing transport fails with a delivery error.
type Router struct {
	Telegram chathub.Gateway
	Anon     chathub.Gateway
}

func NewRouter(telegram, anon chathub.Gateway) *Router {
	return &Router{Telegram: telegram, Anon: anon}
}

func (r *Router) pick(u models.UserID) (chathub.Gateway, error) {
	gw := r.Telegram
	if u.IsAnon() {
		gw = r.Anon
	}
	if gw == nil {
		return nil, chathub.AsDeliveryError(u, "route", ErrNoTransport)
	}
	return gw, nil
}

func (r *Router) SendText(ctx context.Context, user models.UserID, text string, hints chathub.UIHints) (chathub.MessageRef, error) {
	gw, err := r.pick(user)
	if err != nil {
		return chathub.MessageRef{}, err
	}
	return gw.SendText(ctx, user, text, hints)
}

func (r *Router) SendMedia(ctx context.Context, user models.UserID, kind models.MediaKind, fileRef, caption string) (chathub.MessageRef, error) {
	gw, err := r.pick(user)
	if err != nil {
		return chathub.MessageRef{}, err
	}
	return gw.SendMedia(ctx, user, kind, fileRef, caption)
}

func (r *Router) EditText(ctx context.Context, ref chathub.MessageRef, text string) error {
	gw, err := r.pick(ref.User)
	if err != nil {
		return err
	}
	return gw.EditText(ctx, ref, text)
}
