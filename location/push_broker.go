package location

import (
	"context"
	"sync"
	"time"

	"venue-radar/logger"
	"venue-radar/models"
)

// PushBroker is an in-process Broker fed with locations pushed by a client
// (the HTTP location endpoint or a configured seed).
type PushBroker struct {
	mu        sync.Mutex
	ready     bool
	last      *models.Location
	subs      map[*pushSubscription]struct{}
	listeners []Availability
}

// NewPushBroker creates a disconnected broker.
func NewPushBroker() *PushBroker {
	return &PushBroker{subs: make(map[*pushSubscription]struct{})}
}

// AddListener registers a lifecycle listener. If the broker is already
// ready the listener is notified immediately.
func (b *PushBroker) AddListener(l Availability) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	ready := b.ready
	b.mu.Unlock()

	if ready {
		l.OnReady(b)
	}
}

// Connect marks the broker ready and notifies listeners.
func (b *PushBroker) Connect() {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return
	}
	b.ready = true
	listeners := append([]Availability(nil), b.listeners...)
	b.mu.Unlock()

	logger.WithComponent("PushBroker").Info().Msg("Location broker connected")
	for _, l := range listeners {
		l.OnReady(b)
	}
}

// Disconnect notifies listeners, then drops every remaining subscription
// with ErrNotConnected.
func (b *PushBroker) Disconnect() {
	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return
	}
	b.ready = false
	listeners := append([]Availability(nil), b.listeners...)
	b.mu.Unlock()

	logger.WithComponent("PushBroker").Info().Msg("Location broker disconnected")
	for _, l := range listeners {
		l.OnUnavailable()
	}

	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*pushSubscription]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.drop(ErrNotConnected)
	}
}

// IsReady reports whether the broker accepts requests.
func (b *PushBroker) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Push records loc as the last known location and offers it to every
// subscription.
func (b *PushBroker) Push(loc models.Location) error {
	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return ErrNotConnected
	}
	b.last = &loc
	subs := make([]*pushSubscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.offer(loc)
	}
	return nil
}

// LastKnown returns the last pushed location.
func (b *PushBroker) LastKnown(ctx context.Context) (*models.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return nil, ErrNotConnected
	}
	if b.last == nil {
		return nil, nil
	}
	loc := *b.last
	return &loc, nil
}

// RequestUpdates registers a subscription honoring cfg.
func (b *PushBroker) RequestUpdates(ctx context.Context, cfg RequestConfig) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if !b.ready {
		b.mu.Unlock()
		return nil, ErrNotConnected
	}
	sub := newPushSubscription(b, cfg)
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	if cfg.Interval > 0 {
		go sub.repeatLastKnown(cfg.Interval)
	}
	return sub, nil
}

func (b *PushBroker) remove(sub *pushSubscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

func (b *PushBroker) lastLocation() (models.Location, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return models.Location{}, false
	}
	return *b.last, true
}

// pushSubscription conflates updates into a one-slot buffer: a slow reader
// only ever sees the latest pending location.
type pushSubscription struct {
	broker *PushBroker
	cfg    RequestConfig
	ch     chan models.Location
	done   chan struct{}

	mu        sync.Mutex
	closed    bool
	err       error
	lastOffer time.Time
}

func newPushSubscription(b *PushBroker, cfg RequestConfig) *pushSubscription {
	return &pushSubscription{
		broker: b,
		cfg:    cfg,
		ch:     make(chan models.Location, 1),
		done:   make(chan struct{}),
	}
}

func (s *pushSubscription) Locations() <-chan models.Location {
	return s.ch
}

func (s *pushSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *pushSubscription) Close() error {
	s.broker.remove(s)
	s.drop(nil)
	return nil
}

func (s *pushSubscription) drop(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.done)
	close(s.ch)
}

func (s *pushSubscription) offer(loc models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	now := time.Now()
	if s.cfg.FastestInterval > 0 && !s.lastOffer.IsZero() && now.Sub(s.lastOffer) < s.cfg.FastestInterval {
		return
	}
	s.lastOffer = now

	select {
	case <-s.ch:
	default:
	}
	s.ch <- loc
}

func (s *pushSubscription) repeatLastKnown(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if loc, ok := s.broker.lastLocation(); ok {
				s.offer(loc)
			}
		case <-s.done:
			return
		}
	}
}
