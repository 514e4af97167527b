package event

import (
	"context"
	"sync/atomic"
)

// Priority determines handler execution order. Lower values run first.
type Priority int

const (
	// PriorityHigh is for handlers other handlers depend on (metadata, modes).
	PriorityHigh Priority = 100

	// PriorityNormal is the default.
	PriorityNormal Priority = 200

	// PriorityLow is for observers such as tracing.
	PriorityLow Priority = 300
)

// Handler processes an event. The event is type-erased; handlers type-assert.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// Typed adapts a handler for a single payload type. Events of any other type
// published on the same topic are ignored.
func Typed[T any](fn func(ctx context.Context, ev Event[T]) error) HandlerFunc {
	return func(ctx context.Context, event any) error {
		ev, ok := event.(Event[T])
		if !ok {
			return nil
		}
		return fn(ctx, ev)
	}
}

// Subscription is a registered handler on a topic pattern.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed pattern.
	Topic() Topic

	// IsActive reports whether the subscription still receives events.
	IsActive() bool

	// Cancel stops delivery permanently.
	Cancel()
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscription)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *subscription) {
		s.priority = p
	}
}

// WithOnce cancels the subscription after its first successful delivery.
func WithOnce() SubscriptionOption {
	return func(s *subscription) {
		s.once = true
	}
}

type subscription struct {
	id       string
	pattern  Topic
	handler  Handler
	priority Priority
	once     bool
	seq      uint64
	active   atomic.Bool
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Topic() Topic {
	return s.pattern
}

func (s *subscription) IsActive() bool {
	return s.active.Load()
}

func (s *subscription) Cancel() {
	s.active.Store(false)
}
