package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds bus counters.
type Stats struct {
	EventsPublished   uint64
	HandlersExecuted  uint64
	HandlerErrors     uint64
	HandlerPanics     uint64
	ActiveSubscribers int
}

// Bus delivers published events to matching subscriptions.
// It is safe for concurrent use; handlers run on the publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	seq    uint64
	closed bool

	published atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*subscription)}
}

// Subscribe registers handler for every event whose topic matches pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	b.seq++
	s := &subscription{
		id:       newID(time.Now()),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityNormal,
		seq:      b.seq,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.active.Store(true)
	b.subs[s.id] = s
	return s, nil
}

// SubscribeFunc is a convenience wrapper around Subscribe.
func (b *Bus) SubscribeFunc(pattern Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe cancels and removes a subscription.
func (b *Bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}
	sub.Cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.ID()]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.subs, sub.ID())
	return nil
}

// Publish delivers event to every matching subscription, in priority order,
// before returning. Handler failures are collected and returned joined.
func (b *Bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || !tp.EventTopic().IsValid() {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	matched := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.IsActive() && t.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority < matched[j].priority
		}
		return matched[i].seq < matched[j].seq
	})

	b.published.Add(1)

	var errs []error
	for _, s := range matched {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		// A handler earlier in this delivery may have cancelled s.
		if !s.IsActive() {
			continue
		}
		err := b.deliver(ctx, t, s, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.once {
			_ = b.Unsubscribe(s)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, t Topic, s *subscription, event any) (err error) {
	b.executed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
			err = &PanicError{
				SubscriptionID: s.id,
				Topic:          t,
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()

	if herr := s.handler.Handle(ctx, event); herr != nil {
		b.failed.Add(1)
		return &HandlerError{SubscriptionID: s.id, Topic: t, Err: herr}
	}
	return nil
}

// Close cancels every subscription. Later Publish and Subscribe calls fail
// with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.subs {
		s.Cancel()
		delete(b.subs, id)
	}
	b.closed = true
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.published.Load(),
		HandlersExecuted:  b.executed.Load(),
		HandlerErrors:     b.failed.Load(),
		HandlerPanics:     b.panicked.Load(),
		ActiveSubscribers: active,
	}
}

// String implements fmt.Stringer for debugging.
func (s Stats) String() string {
	return fmt.Sprintf("published=%d executed=%d errors=%d panics=%d active=%d",
		s.EventsPublished, s.HandlersExecuted, s.HandlerErrors, s.HandlerPanics, s.ActiveSubscribers)
}
