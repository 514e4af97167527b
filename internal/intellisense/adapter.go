package intellisense

import (
	"context"
	"sync"

	"github.com/dshills/nbsense/internal/editor"
)

// Callback receives a fired trigger and the cursor position at the time.
type Callback func(ctx context.Context, t Trigger, pos editor.Position)

// Adapter coordinates the triggers, callbacks and completion state of one
// editor. It is safe for concurrent use: replies are applied from the kernel
// client's goroutine.
type Adapter struct {
	editor editor.Editor

	mu            sync.Mutex
	triggers      []Trigger
	onDeclaration Callback
	onMethods     Callback
	declarations  []string
	startColumn   int
	signature     string
	seq           uint64
	lastRequestID string
}

// NewAdapter creates an adapter for ed with no triggers.
func NewAdapter(ed editor.Editor) *Adapter {
	return &Adapter{editor: ed}
}

// Editor returns the adapted editor.
func (a *Adapter) Editor() editor.Editor {
	return a.editor
}

// AddDeclarationTrigger registers t in the declaration category.
func (a *Adapter) AddDeclarationTrigger(t Trigger) {
	t.Category = CategoryDeclaration
	a.addTrigger(t)
}

// AddMethodsTrigger registers t in the methods category.
func (a *Adapter) AddMethodsTrigger(t Trigger) {
	t.Category = CategoryMethods
	a.addTrigger(t)
}

func (a *Adapter) addTrigger(t Trigger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.triggers = append(a.triggers, t)
}

// Triggers returns a copy of the registered triggers.
func (a *Adapter) Triggers() []Trigger {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Trigger(nil), a.triggers...)
}

// OnDeclaration sets the declaration callback.
func (a *Adapter) OnDeclaration(cb Callback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onDeclaration = cb
}

// OnMethod sets the methods callback.
func (a *Adapter) OnMethod(cb Callback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onMethods = cb
}

// HandleKey fires the callback of the first trigger matching ev. It reports
// whether a trigger fired and whether the host should suppress the key's
// default action.
func (a *Adapter) HandleKey(ctx context.Context, ev KeyEvent) (fired, preventDefault bool) {
	a.mu.Lock()
	var (
		matched Trigger
		found   bool
	)
	for _, t := range a.triggers {
		if t.Matches(ev) {
			matched, found = t, true
			break
		}
	}
	var cb Callback
	if found {
		switch matched.Category {
		case CategoryDeclaration:
			cb = a.onDeclaration
		case CategoryMethods:
			cb = a.onMethods
		}
	}
	a.mu.Unlock()

	if !found {
		return false, false
	}
	if cb != nil {
		cb(ctx, matched, a.editor.Cursor())
	}
	return true, matched.PreventDefault
}

// SetDeclarations replaces the completion candidates.
func (a *Adapter) SetDeclarations(items []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declarations = append([]string(nil), items...)
}

// Declarations returns the current completion candidates.
func (a *Adapter) Declarations() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.declarations...)
}

// SetStartColumnIndex sets the column where an accepted completion begins
// replacing text.
func (a *Adapter) SetStartColumnIndex(col int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startColumn = col
}

// StartColumnIndex returns the replacement start column.
func (a *Adapter) StartColumnIndex() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startColumn
}

// SetSignature stores signature help text.
func (a *Adapter) SetSignature(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signature = s
}

// Signature returns the last signature help text.
func (a *Adapter) Signature() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signature
}

// LastRequestID returns the correlation id of the latest request.
func (a *Adapter) LastRequestID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRequestID
}

// beginRequest records a new outgoing request and returns its sequence
// number.
func (a *Adapter) beginRequest(msgID string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.lastRequestID = msgID
	return a.seq
}

// isLatest reports whether seq belongs to the most recent request.
func (a *Adapter) isLatest(seq uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return seq == a.seq
}
