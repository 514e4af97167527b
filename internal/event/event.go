package event

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Topic is a hierarchical, dot separated event type such as "cell.created".
type Topic string

// Wildcards accepted in subscription patterns.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more trailing segments.
	WildcardMulti = "**"

	separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// IsValid reports whether t is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range strings.Split(string(t), separator) {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether the concrete topic t matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	if pattern == t {
		return true
	}
	segs := strings.Split(string(t), separator)
	pats := strings.Split(string(pattern), separator)

	for i, p := range pats {
		if p == WildcardMulti {
			return i == len(pats)-1
		}
		if i >= len(segs) {
			return false
		}
		if p != WildcardSingle && p != segs[i] {
			return false
		}
	}
	return len(segs) == len(pats)
}

// Event is a typed event published on the bus.
type Event[T any] struct {
	// Type is the event topic.
	Type Topic

	// Payload carries the event-specific data.
	Payload T

	// Metadata describes where and when the event was created.
	Metadata Metadata
}

// Metadata contains the information attached to every event.
type Metadata struct {
	// ID uniquely identifies the event; IDs sort by creation time.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source names the publisher.
	Source string
}

// New creates an event with fresh metadata.
func New[T any](eventType Topic, payload T, source string) Event[T] {
	now := time.Now()
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        newID(now),
			Timestamp: now,
			Source:    source,
		},
	}
}

// EventTopic returns the event's topic for type-erased handling.
func (e Event[T]) EventTopic() Topic {
	return e.Type
}

// TopicProvider is implemented by anything that can be published.
type TopicProvider interface {
	EventTopic() Topic
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
