package chathub

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"anonpair/backend/internal/localization"
	"anonpair/backend/internal/models"

	"github.com/google/uuid"
)

// DefaultSendTimeout bounds every gateway call made while handling an event.
const DefaultSendTimeout = 10 * time.Second

// Options configure a ManagerService.
type Options struct {
	// Language selects the translation used for notices.
	Language    string
	SendTimeout time.Duration
	// Observers are privileged identities; their pairing notices disclose the
	// partner's cached profile.
	Observers []models.UserID
	Sink      EventSink
	// IncomingSize is the buffer of the Incoming channel.
	IncomingSize int

	Now          func() time.Time
	NewSessionID func() string
}

// Stats is a lock-consistent view of the engine.
type Stats struct {
	Waiting  int `json:"waiting"`
	Sessions int `json:"sessions"`
	Users    int `json:"users"`
}

// ManagerService is the session lifecycle controller. It owns every piece of
// pairing state and serializes all access to it behind one mutex; an event is
// handled to completion, gateway calls included, before the next one starts.
type ManagerService struct {
	mu sync.Mutex

	queue     *WaitingQueue
	directory *Directory
	ratings   *RatingLedger
	pending   *PendingBuffer
	matcher   *MatcherService
	relay     *Relay

	states    map[models.UserID]models.State
	profiles  map[models.UserID]models.UserProfile
	observers map[models.UserID]struct{}
	// ratees holds, for users in RATING, the partner they may rate.
	ratees map[models.UserID]models.UserID

	gateway   Gateway
	localizer *localization.Localizer
	lang      string
	timeout   time.Duration
	sink      EventSink
	now       func() time.Time
	newID     func() string

	// Incoming is drained by Run, one event at a time.
	Incoming chan Event
}

func NewManagerService(gw Gateway, loc *localization.Localizer, opts Options) *ManagerService {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Language == "" {
		opts.Language = localization.DefaultLanguage
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.IncomingSize <= 0 {
		opts.IncomingSize = 64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSessionID == nil {
		opts.NewSessionID = func() string { return uuid.New().String() }
	}
	if loc == nil {
		loc = localization.Default(opts.Language)
	}

	q := NewWaitingQueue()
	d := NewDirectory()
	p := NewPendingBuffer()
	m := &ManagerService{
		queue:     q,
		directory: d,
		ratings:   NewRatingLedger(),
		pending:   p,
		matcher:   NewMatcherService(q, d),
		relay:     &Relay{Directory: d, Pending: p, Gateway: gw, Timeout: opts.SendTimeout},
		states:    make(map[models.UserID]models.State),
		profiles:  make(map[models.UserID]models.UserProfile),
		observers: make(map[models.UserID]struct{}, len(opts.Observers)),
		ratees:    make(map[models.UserID]models.UserID),
		gateway:   gw,
		localizer: loc,
		lang:      opts.Language,
		timeout:   opts.SendTimeout,
		sink:      opts.Sink,
		now:       opts.Now,
		newID:     opts.NewSessionID,
		Incoming:  make(chan Event, opts.IncomingSize),
	}
	for _, id := range opts.Observers {
		m.observers[id] = struct{}{}
	}
	return m
}

// Run handles submitted events sequentially until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	log.Println("Manager Service started.")
	for {
		select {
		case ev := <-m.Incoming:
			m.HandleEvent(ctx, ev)
		case <-ctx.Done():
			log.Println("Manager Service stopped.")
			return
		}
	}
}

// Submit queues ev for Run. It blocks until there is room or ctx ends.
func (m *ManagerService) Submit(ctx context.Context, ev Event) error {
	select {
	case m.Incoming <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleEvent applies one inbound event and reports the transition it caused.
func (m *ManagerService) HandleEvent(ctx context.Context, ev Event) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := ev.User
	m.ratings.Touch(u)
	if ev.Profile != nil {
		p := *ev.Profile
		p.SeenAt = m.now()
		m.profiles[u] = p
	}

	out := &Outcome{User: u, From: m.stateOf(u)}

	if ev.Kind == EventAction && ev.Action == ActionRestart {
		m.restart(ctx, out)
	} else {
		switch out.From {
		case models.StateSearching:
			m.onSearching(ctx, out, ev)
		case models.StateInChat:
			m.onInChat(ctx, out, ev)
		case models.StateRating:
			m.onRating(ctx, out, ev)
		}
	}

	out.To = m.stateOf(u)
	if out.From != out.To {
		log.Printf("INFO: user %d %s -> %s", u, out.From, out.To)
	}
	return *out
}

func (m *ManagerService) onSearching(ctx context.Context, out *Outcome, ev Event) {
	u := ev.User
	switch {
	case ev.Kind == EventAction && ev.Action == ActionSearch:
		m.search(ctx, out, u, "searching")
	case ev.Kind == EventAction && ev.Action == ActionCancel:
		m.queue.Remove(u)
		m.notify(ctx, out, u, m.text("search_cancelled"), UIHints{Keyboard: KeyboardMain})
	case ev.Kind == EventRating:
		// stale rating keyboard, nothing to rate
	default:
		m.queueStatus(ctx, out, u)
	}
}

func (m *ManagerService) onInChat(ctx context.Context, out *Outcome, ev Event) {
	u := ev.User
	switch ev.Kind {
	case EventAction:
		switch ev.Action {
		case ActionSearch:
			m.search(ctx, out, u, "searching")
		case ActionExit:
			m.leave(ctx, out, u, false)
		case ActionExitNext:
			m.leave(ctx, out, u, true)
		default:
			m.notify(ctx, out, u, m.text("already_in_chat"), UIHints{Keyboard: KeyboardChat})
		}
	case EventText, EventMedia:
		m.relayPayload(ctx, out, u, ev.Payload)
	}
}

func (m *ManagerService) onRating(ctx context.Context, out *Outcome, ev Event) {
	u := ev.User
	switch ev.Kind {
	case EventMedia:
		// media is ignored while a rating is pending
		return
	case EventRating:
		m.rate(ctx, out, u, ev)
	}
	// Text and actions in RATING are an implicit skip.
	delete(m.ratees, u)
	m.states[u] = models.StateSearching
	m.notify(ctx, out, u, m.text("after_rating"), UIHints{Keyboard: KeyboardMain})
}

// search enqueues u and runs the single matching pass that follows an enqueue.
func (m *ManagerService) search(ctx context.Context, out *Outcome, u models.UserID, key string) {
	out.Queue = m.matcher.Enqueue(u)
	switch out.Queue {
	case QueuedAlreadyInSession:
		out.Err = ErrAlreadyInSession
		m.states[u] = models.StateInChat
		m.notify(ctx, out, u, m.text("already_in_chat"), UIHints{Keyboard: KeyboardChat})
	case QueuedAlready:
		out.Err = ErrAlreadyQueued
		m.states[u] = models.StateSearching
		m.notify(ctx, out, u, m.text("already_searching"), UIHints{Keyboard: KeyboardSearching})
	case Queued:
		m.states[u] = models.StateSearching
		m.notify(ctx, out, u, m.text(key), UIHints{Keyboard: KeyboardSearching})
		if a, b, ok := m.matcher.TryMatch(u); ok {
			m.pair(ctx, out, a, b)
		}
	}
}

// pair forms the session and announces it to both sides. If either notice
// fails the session is rolled back before the lock is released; neither user
// is re-queued.
func (m *ManagerService) pair(ctx context.Context, out *Outcome, a, b models.UserID) {
	s := m.matcher.Pair(m.newID(), a, b, m.now())
	ratingA, ratingB := m.ratings.Average(a), m.ratings.Average(b)

	err := m.notify(ctx, out, a, m.matchText(a, b, ratingB), UIHints{Keyboard: KeyboardChat})
	if err == nil {
		err = m.notify(ctx, out, b, m.matchText(b, a, ratingA), UIHints{Keyboard: KeyboardChat})
	}
	if err != nil {
		log.Printf("ERROR: Error starting chat %s between %d and %d: %v", s.ID, a, b, err)
		m.matcher.Rollback(s)
		m.states[a] = models.StateSearching
		m.states[b] = models.StateSearching
		m.notify(ctx, out, a, m.text("match_failed"), UIHints{Keyboard: KeyboardMain})
		m.notify(ctx, out, b, m.text("match_failed"), UIHints{Keyboard: KeyboardMain})
		out.Err = err
		return
	}

	m.states[a] = models.StateInChat
	m.states[b] = models.StateInChat
	out.Paired = s
	log.Printf("Match found: %d and %d in room %s", a, b, s.ID)
	m.sink.Publish(models.LifecycleEvent{
		Type:   models.EventSessionStarted,
		RoomID: s.ID,
		Users:  []models.UserID{a, b},
		At:     s.StartedAt,
	})

	m.relay.ReplayPending(ctx, a)
	m.relay.ReplayPending(ctx, b)
}

func (m *ManagerService) relayPayload(ctx context.Context, out *Outcome, u models.UserID, p models.Payload) {
	partner, err := m.relay.Relay(ctx, u, p)
	if errors.Is(err, ErrNotInSession) {
		out.Err = err
		m.states[u] = models.StateSearching
		m.queueStatus(ctx, out, u)
		return
	}

	n := Notice{To: partner, Text: p.Text, Media: p.Media, Err: err}
	out.Notices = append(out.Notices, n)
	if err == nil {
		return
	}

	log.Printf("ERROR: Error forwarding %s from %d: %v", p.Kind, u, err)
	out.Err = err
	key := "send_failed_text"
	if p.Kind == models.PayloadMedia {
		key = "send_failed_media"
	}
	m.notify(ctx, out, u, m.text(key), UIHints{})
}

// leave is the IN_CHAT exit. With next set and no partner to rate, u is put
// straight back into the queue.
func (m *ManagerService) leave(ctx context.Context, out *Outcome, u models.UserID, next bool) {
	reason := models.EndReasonExit
	if next {
		reason = models.EndReasonNext
	}
	partner, had := m.teardown(ctx, out, u, reason)
	if had {
		m.states[u] = models.StateRating
		m.ratees[u] = partner
		m.notify(ctx, out, u, m.text("you_left_rate"), UIHints{Keyboard: KeyboardRating, RateTarget: partner})
		return
	}
	// IN_CHAT without a session only happens if the directory and the state
	// map disagree; u is then treated as SEARCHING.
	if next {
		m.search(ctx, out, u, "searching_next")
		return
	}
	m.states[u] = models.StateSearching
	m.notify(ctx, out, u, m.text("you_left"), UIHints{Keyboard: KeyboardMain})
}

// teardown removes the session of u together with both pending buffers and
// asks the partner for a rating.
func (m *ManagerService) teardown(ctx context.Context, out *Outcome, u models.UserID, reason string) (models.UserID, bool) {
	s, ok := m.directory.Remove(u)
	if !ok {
		return 0, false
	}
	partner := s.Partner(u)
	m.pending.Clear(u, partner)
	m.states[partner] = models.StateRating
	m.ratees[partner] = u

	m.sink.Publish(models.LifecycleEvent{
		Type:     models.EventSessionEnded,
		RoomID:   s.ID,
		Users:    []models.UserID{u, partner},
		Messages: s.Messages,
		Reason:   reason,
		At:       m.now(),
	})

	if err := m.notify(ctx, out, partner, m.text("partner_left"), UIHints{Keyboard: KeyboardRating, RateTarget: u}); err != nil {
		log.Printf("ERROR: Error notifying partner %d: %v", partner, err)
	}
	return partner, true
}

func (m *ManagerService) restart(ctx context.Context, out *Outcome) {
	u := out.User
	if m.directory.InSession(u) {
		m.teardown(ctx, out, u, models.EndReasonRestart)
	}
	delete(m.ratees, u)
	m.states[u] = models.StateSearching
	m.notify(ctx, out, u, m.text("welcome"), UIHints{Keyboard: KeyboardMain})
}

func (m *ManagerService) rate(ctx context.Context, out *Outcome, u models.UserID, ev Event) {
	text := m.text("rate_skipped")
	if expected, ok := m.ratees[u]; !ok || expected != ev.RateTarget {
		log.Printf("WARN: Ignoring rating of %d from %d, last partner was %d", ev.RateTarget, u, expected)
	} else if m.ratings.Record(ev.RateTarget, ev.Score) {
		text = m.localizer.Format(m.lang, "rate_thanks", ev.Score)
		m.sink.Publish(models.LifecycleEvent{
			Type:  models.EventRatingRecorded,
			Users: []models.UserID{u, ev.RateTarget},
			Score: ev.Score,
			At:    m.now(),
		})
	} else if ev.Score != SkipScore {
		log.Printf("WARN: Ignoring out of range score %d from %d", ev.Score, u)
	}

	if ev.Prompt.MessageID == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.gateway.EditText(cctx, ev.Prompt, text); err != nil {
		log.Printf("WARN: Failed to edit rating prompt %d for %d: %v", ev.Prompt.MessageID, u, err)
	}
}

func (m *ManagerService) queueStatus(ctx context.Context, out *Outcome, u models.UserID) {
	if m.queue.Contains(u) {
		m.notify(ctx, out, u, m.text("still_searching"), UIHints{})
		return
	}
	m.notify(ctx, out, u, m.text("press_to_search"), UIHints{Keyboard: KeyboardMain})
}

// notify sends a text notice and records it in out. Failures are returned as
// *DeliveryError and never change state.
func (m *ManagerService) notify(ctx context.Context, out *Outcome, to models.UserID, text string, hints UIHints) error {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	n := Notice{To: to, Text: text, Hints: hints}
	_, err := m.gateway.SendText(cctx, to, text, hints)
	if err != nil {
		de := AsDeliveryError(to, "text", err)
		n.Err = de
		out.Notices = append(out.Notices, n)
		log.Printf("ERROR: Failed to send notice to %d: %v", to, err)
		return de
	}
	out.Notices = append(out.Notices, n)
	return nil
}

func (m *ManagerService) matchText(viewer, partner models.UserID, partnerRating float64) string {
	text := m.localizer.Format(m.lang, "match_found", partnerRating)
	if _, ok := m.observers[viewer]; !ok {
		return text
	}
	return text + m.localizer.Format(m.lang, "match_observer", describeProfile(partner, m.profiles[partner]))
}

func describeProfile(u models.UserID, p models.UserProfile) string {
	switch {
	case p.Handle != "" && p.DisplayName != "":
		return "@" + p.Handle + " (" + p.DisplayName + ")"
	case p.Handle != "":
		return "@" + p.Handle
	case p.DisplayName != "":
		return p.DisplayName
	default:
		return "id " + strconv.FormatInt(int64(u), 10)
	}
}

func (m *ManagerService) text(key string) string {
	return m.localizer.GetString(m.lang, key)
}

func (m *ManagerService) stateOf(u models.UserID) models.State {
	if s, ok := m.states[u]; ok {
		return s
	}
	return models.StateSearching
}

// Snapshot reports queue length, live sessions and known users.
func (m *ManagerService) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Waiting: m.queue.Len(), Sessions: m.directory.Len(), Users: m.ratings.Len()}
}

// State returns the lifecycle state of u. Unknown users are SEARCHING.
func (m *ManagerService) State(u models.UserID) models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateOf(u)
}

func (m *ManagerService) Partner(u models.UserID) (models.UserID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directory.Partner(u)
}

// Sessions returns a copy of the live sessions, one per pair.
func (m *ManagerService) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var out []Session
	for u := range m.directory.Partners() {
		s, ok := m.directory.Session(u)
		if !ok {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, *s)
	}
	return out
}

func (m *ManagerService) Queued(u models.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Contains(u)
}

// QueueSnapshot returns the waiting users from front to tail.
func (m *ManagerService) QueueSnapshot() []models.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Snapshot()
}

func (m *ManagerService) PendingEntries(u models.UserID) []models.PendingMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Entries(u)
}

func (m *ManagerService) Average(u models.UserID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratings.Average(u)
}

// Profile returns the cached display metadata of u.
func (m *ManagerService) Profile(u models.UserID) (models.UserProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[u]
	return p, ok
}
