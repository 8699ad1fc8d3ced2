// Package wsgate is the WebSocket transport for anonymous browser clients.
package wsgate

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/models"
)

var (
	ErrNotConnected = errors.New("client is not connected")
	ErrBufferFull   = errors.New("client send buffer is full")
)

// Submitter accepts inbound events; *chathub.ManagerService implements it.
type Submitter interface {
	Submit(ctx context.Context, ev chathub.Event) error
}

// Hub tracks connected clients and delivers frames to them. It implements
// chathub.Gateway for anonymous identities.
type Hub struct {
	Events Submitter
	// SubmitTimeout bounds the events submitted on disconnect.
	SubmitTimeout time.Duration

	mu      sync.Mutex
	clients map[models.UserID]*Client
	nextID  int
}

func NewHub(events Submitter) *Hub {
	return &Hub{
		Events:        events,
		SubmitTimeout: chathub.DefaultSendTimeout,
		clients:       make(map[models.UserID]*Client),
	}
}

// Register attaches c, replacing and closing an older connection of the same user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.UserID]
	h.clients[c.UserID] = c
	h.mu.Unlock()

	if old != nil && old != c {
		old.Close()
	}
	log.Printf("INFO: ws client %d connected", c.UserID)
}

// Unregister detaches c. A disconnect leaves the queue and any chat.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.UserID]
	if !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.UserID)
	h.mu.Unlock()

	c.Close()
	log.Printf("INFO: ws client %d disconnected", c.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), h.SubmitTimeout)
	defer cancel()
	for _, a := range []chathub.Action{chathub.ActionCancel, chathub.ActionExit} {
		if err := h.Events.Submit(ctx, chathub.ActionEvent(c.UserID, a)); err != nil {
			log.Printf("WARN: ws client %d: %v", c.UserID, err)
		}
	}
}

// Connected reports whether u has a live connection.
func (h *Hub) Connected(u models.UserID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[u]
	return ok
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) SendText(ctx context.Context, user models.UserID, text string, hints chathub.UIHints) (chathub.MessageRef, error) {
	f := OutFrame{
		Type:       FrameNotice,
		Text:       text,
		Keyboard:   keyboardName(hints.Keyboard),
		RateTarget: int64(hints.RateTarget),
		HTML:       hints.HTML,
	}
	if hints == (chathub.UIHints{}) {
		f.Type = FrameText
	}
	return h.deliver(ctx, user, "text", f)
}

func (h *Hub) SendMedia(ctx context.Context, user models.UserID, kind models.MediaKind, fileRef, caption string) (chathub.MessageRef, error) {
	return h.deliver(ctx, user, string(kind), OutFrame{
		Type:    FrameMedia,
		Media:   string(kind),
		FileID:  fileRef,
		Caption: caption,
	})
}

func (h *Hub) EditText(ctx context.Context, ref chathub.MessageRef, text string) error {
	f := OutFrame{Type: FrameEdit, Text: text}
	_, err := h.deliverWithID(ctx, ref.User, "edit", f, ref.MessageID)
	return err
}

func (h *Hub) deliver(ctx context.Context, user models.UserID, op string, f OutFrame) (chathub.MessageRef, error) {
	return h.deliverWithID(ctx, user, op, f, 0)
}

// deliverWithID queues f without blocking; id 0 assigns a fresh message id.
func (h *Hub) deliverWithID(ctx context.Context, user models.UserID, op string, f OutFrame, id int) (chathub.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, op, err)
	}

	h.mu.Lock()
	c, ok := h.clients[user]
	if id == 0 {
		h.nextID++
		id = h.nextID
	}
	h.mu.Unlock()
	if !ok {
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, op, ErrNotConnected)
	}

	f.ID = id
	if err := c.enqueue(f); err != nil {
		return chathub.MessageRef{}, chathub.AsDeliveryError(user, op, err)
	}
	return chathub.MessageRef{User: user, MessageID: id}, nil
}
