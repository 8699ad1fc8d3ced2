package chathub_test

import (
	"context"
	"errors"
	"sync"

	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

var errBlocked = errors.New("bot was blocked by the user")

type sent struct {
	To      models.UserID
	Text    string
	Media   models.MediaKind
	FileID  string
	Caption string
	Hints   chathub.UIHints
}

// recordingGateway records every delivery and fails for users listed in fail.
type recordingGateway struct {
	mu     sync.Mutex
	nextID int
	sent   []sent
	edits  map[int]string
	fail   map[models.UserID]error
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{edits: make(map[int]string), fail: make(map[models.UserID]error)}
}

func (g *recordingGateway) failFor(u models.UserID, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[u] = err
}

func (g *recordingGateway) heal(u models.UserID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.fail, u)
}

func (g *recordingGateway) SendText(_ context.Context, u models.UserID, text string, hints chathub.UIHints) (chathub.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[u]; err != nil {
		return chathub.MessageRef{}, err
	}
	g.nextID++
	g.sent = append(g.sent, sent{To: u, Text: text, Hints: hints})
	return chathub.MessageRef{User: u, MessageID: g.nextID}, nil
}

func (g *recordingGateway) SendMedia(_ context.Context, u models.UserID, kind models.MediaKind, fileRef, caption string) (chathub.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[u]; err != nil {
		return chathub.MessageRef{}, err
	}
	g.nextID++
	g.sent = append(g.sent, sent{To: u, Media: kind, FileID: fileRef, Caption: caption})
	return chathub.MessageRef{User: u, MessageID: g.nextID}, nil
}

func (g *recordingGateway) EditText(_ context.Context, ref chathub.MessageRef, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits[ref.MessageID] = text
	return nil
}

func (g *recordingGateway) to(u models.UserID) []sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sent
	for _, s := range g.sent {
		if s.To == u {
			out = append(out, s)
		}
	}
	return out
}

func (g *recordingGateway) last(u models.UserID) sent {
	all := g.to(u)
	if len(all) == 0 {
		return sent{}
	}
	return all[len(all)-1]
}

func (g *recordingGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = nil
}

// MockGateway is a testify mock of chathub.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendText(ctx context.Context, u models.UserID, text string, hints chathub.UIHints) (chathub.MessageRef, error) {
	args := m.Called(ctx, u, text, hints)
	return args.Get(0).(chathub.MessageRef), args.Error(1)
}

func (m *MockGateway) SendMedia(ctx context.Context, u models.UserID, kind models.MediaKind, fileRef, caption string) (chathub.MessageRef, error) {
	args := m.Called(ctx, u, kind, fileRef, caption)
	return args.Get(0).(chathub.MessageRef), args.Error(1)
}

func (m *MockGateway) EditText(ctx context.Context, ref chathub.MessageRef, text string) error {
	args := m.Called(ctx, ref, text)
	return args.Error(0)
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
}

func (s *recordingSink) Publish(ev models.LifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) types() []models.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}
