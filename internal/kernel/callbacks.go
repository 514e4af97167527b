package kernel

import (
	"sync"
)

// Callbacks are the per-request response slots, keyed by channel. The
// modern slots receive whole messages; the legacy slots receive bare content.
type Callbacks struct {
	// ShellReply receives the shell channel reply message.
	ShellReply func(msg []byte)

	// IOPubOutput receives iopub output messages.
	IOPubOutput func(msg []byte)

	// CompleteReply receives the legacy reply content.
	CompleteReply func(content []byte)

	// Output receives legacy output content along with its message type.
	Output func(msgType string, content []byte)
}

// Handlers are the two logical response handlers every request needs.
type Handlers struct {
	OnReply  func(Reply)
	OnOutput func(Output)

	// OnError is called with decode failures. Optional.
	OnError func(error)
}

// Route fills all four callback slots from h, decoding every payload into
// the canonical Reply or Output first.
func Route(h Handlers) Callbacks {
	fail := func(err error) {
		if h.OnError != nil {
			h.OnError(err)
		}
	}
	reply := func(payload []byte) {
		r, err := DecodeReply(payload)
		if err != nil {
			fail(err)
			return
		}
		if h.OnReply != nil {
			h.OnReply(r)
		}
	}
	output := func(payload []byte) {
		o, err := DecodeOutput(payload)
		if err != nil {
			fail(err)
			return
		}
		if h.OnOutput != nil {
			h.OnOutput(o)
		}
	}

	return Callbacks{
		ShellReply:    reply,
		IOPubOutput:   output,
		CompleteReply: reply,
		Output:        func(_ string, content []byte) { output(content) },
	}
}

// Registry maps outstanding msg_ids to their callbacks. An entry is
// dropped once both the shell reply and the iopub idle status for it have
// been seen; the two arrive on separate streams in either order.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	cb      Callbacks
	replied bool
	idle    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Set registers cb for msgID, replacing any previous entry.
func (r *Registry) Set(msgID string, cb Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[msgID] = &entry{cb: cb}
}

// Get returns the callbacks for msgID.
func (r *Registry) Get(msgID string) (Callbacks, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[msgID]
	if !ok {
		return Callbacks{}, false
	}
	return e.cb, true
}

// MarkReplied records the shell reply for msgID. It reports whether the
// entry was dropped as a result.
func (r *Registry) MarkReplied(msgID string) bool {
	return r.mark(msgID, func(e *entry) { e.replied = true })
}

// MarkIdle records the iopub idle status for msgID. It reports whether the
// entry was dropped as a result.
func (r *Registry) MarkIdle(msgID string) bool {
	return r.mark(msgID, func(e *entry) { e.idle = true })
}

func (r *Registry) mark(msgID string, set func(*entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[msgID]
	if !ok {
		return false
	}
	set(e)
	if e.replied && e.idle {
		delete(r.entries, msgID)
		return true
	}
	return false
}

// Forget drops the entry for msgID.
func (r *Registry) Forget(msgID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, msgID)
}

// Pending returns the number of outstanding entries.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
