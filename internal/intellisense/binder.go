package intellisense

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/kernel"
	"github.com/dshills/nbsense/internal/logging"
	"github.com/dshills/nbsense/internal/notebook"
)

// DefaultTheme is applied to every attached editor.
const DefaultTheme = "neat"

// Messenger is the kernel messaging port.
type Messenger interface {
	// NewMessage builds a message with a fresh msg_id.
	NewMessage(msgType string, content any) *kernel.Message

	// SetCallbacks registers response callbacks for msgID.
	SetCallbacks(msgID string, cb kernel.Callbacks)

	// Send writes msg on the shell channel without waiting for a reply.
	Send(ctx context.Context, msg *kernel.Message) error
}

// MethodsHook produces signature help for a methods trigger. An empty
// result leaves the current signature untouched.
type MethodsHook interface {
	OnMethod(ctx context.Context, keyCode int, line string, pos editor.Position) (string, error)
}

// UpdateKind identifies what a kernel response changed.
type UpdateKind int

const (
	// UpdateCompletions means the candidate list was replaced.
	UpdateCompletions UpdateKind = iota + 1

	// UpdateDiagnostics means the error markers were replaced.
	UpdateDiagnostics
)

// Update describes state applied from a kernel response.
type Update struct {
	Kind         UpdateKind
	Adapter      *Adapter
	Declarations []string
	StartColumn  int
	Markers      int
}

// Options configures a Binder.
type Options struct {
	// Language is forced as the highlight mode of every attached cell.
	Language string

	// Theme is the editor theme option. Defaults to DefaultTheme.
	Theme string

	// MarkerClass tags diagnostic marks. Defaults to DefaultMarkerClass.
	MarkerClass string

	// StaleGuard drops responses that belong to superseded requests.
	StaleGuard bool

	// Methods handles methods triggers. Nil makes them no-ops.
	Methods MethodsHook

	// OnUpdate is called after a response is applied. Optional.
	OnUpdate func(Update)

	Logger *logging.Logger
}

// DefaultOptions returns the standard binder options.
func DefaultOptions() Options {
	return Options{
		Language:    notebook.DefaultLanguage,
		Theme:       DefaultTheme,
		MarkerClass: DefaultMarkerClass,
		StaleGuard:  true,
	}
}

// Binder attaches adapters to the code cells of one document and runs the
// declaration protocol against the kernel.
type Binder struct {
	doc       notebook.Document
	messenger Messenger
	opts      Options
	log       *logging.Logger

	mu       sync.Mutex
	adapters map[editor.Editor]*binding

	// diagSeq numbers declaration requests across every adapter. Diagnostics
	// replace the markers of all code cells, so only the newest request in
	// the document may apply them.
	diagSeq uint64
}

type binding struct {
	adapter *Adapter
	cell    notebook.Cell
	closed  bool
}

// NewBinder creates a binder for doc that talks to the kernel through m.
func NewBinder(doc notebook.Document, m Messenger, opts Options) *Binder {
	if opts.Language == "" {
		opts.Language = notebook.DefaultLanguage
	}
	if opts.Theme == "" {
		opts.Theme = DefaultTheme
	}
	if opts.MarkerClass == "" {
		opts.MarkerClass = DefaultMarkerClass
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Binder{
		doc:       doc,
		messenger: m,
		opts:      opts,
		log:       log.WithComponent("intellisense"),
		adapters:  make(map[editor.Editor]*binding),
	}
}

// Document returns the bound document.
func (b *Binder) Document() notebook.Document {
	return b.doc
}

// Attach installs an adapter on cell. Non-code cells and editors that
// already have an adapter are left alone. It reports whether an adapter was
// created.
func (b *Binder) Attach(cell notebook.Cell) bool {
	if cell == nil || cell.Type() != notebook.CellCode {
		return false
	}
	ed := cell.Editor()
	if ed == nil {
		return false
	}

	if b.Adapter(cell) != nil {
		return false
	}

	// The adapter is complete before it becomes visible to HandleKey.
	bd := &binding{adapter: NewAdapter(ed), cell: cell}
	a := bd.adapter
	for _, t := range DefaultTriggers() {
		switch t.Category {
		case CategoryMethods:
			a.AddMethodsTrigger(t)
		default:
			a.AddDeclarationTrigger(t)
		}
	}
	a.OnDeclaration(func(ctx context.Context, t Trigger, pos editor.Position) {
		b.declare(ctx, bd, t)
	})
	a.OnMethod(func(ctx context.Context, t Trigger, pos editor.Position) {
		b.methods(ctx, bd, t, pos)
	})

	b.mu.Lock()
	if _, ok := b.adapters[ed]; ok {
		b.mu.Unlock()
		return false
	}
	b.adapters[ed] = bd
	b.mu.Unlock()

	cell.ForceHighlight(b.opts.Language)
	ed.SetOption(editor.OptionTheme, b.opts.Theme)

	b.log.Debug("attached adapter to cell %s", cell.ID())
	return true
}

// AttachAll attaches every current cell of the document and returns the
// number of adapters created.
func (b *Binder) AttachAll() int {
	n := 0
	for _, c := range b.doc.Cells() {
		if b.Attach(c) {
			n++
		}
	}
	return n
}

// Detach removes the adapter of cell and clears its error markers.
func (b *Binder) Detach(cell notebook.Cell) bool {
	if cell == nil || cell.Editor() == nil {
		return false
	}
	ed := cell.Editor()

	b.mu.Lock()
	bd, ok := b.adapters[ed]
	if ok {
		bd.closed = true
		delete(b.adapters, ed)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}
	editor.ClearMarks(ed, b.opts.MarkerClass)
	b.log.Debug("detached adapter from cell %s", cell.ID())
	return true
}

// DetachAll removes every adapter.
func (b *Binder) DetachAll() int {
	b.mu.Lock()
	cells := make([]notebook.Cell, 0, len(b.adapters))
	for _, bd := range b.adapters {
		cells = append(cells, bd.cell)
	}
	b.mu.Unlock()

	n := 0
	for _, c := range cells {
		if b.Detach(c) {
			n++
		}
	}
	return n
}

// Adapter returns the adapter attached to cell, or nil.
func (b *Binder) Adapter(cell notebook.Cell) *Adapter {
	if cell == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd, ok := b.adapters[cell.Editor()]; ok {
		return bd.adapter
	}
	return nil
}

// Len returns the number of attached adapters.
func (b *Binder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.adapters)
}

// HandleKey routes a key event to the adapter of cell. It reports whether a
// trigger fired and whether the host should suppress the default action.
func (b *Binder) HandleKey(ctx context.Context, cell notebook.Cell, ev KeyEvent) (fired, preventDefault bool) {
	a := b.Adapter(cell)
	if a == nil {
		return false, false
	}
	return a.HandleKey(ctx, ev)
}

func (b *Binder) declare(ctx context.Context, bd *binding, t Trigger) {
	a := bd.adapter
	snap, err := TakeSnapshot(b.doc, a.Editor())
	if err != nil {
		b.log.Debug("skip request: %v", err)
		return
	}
	if !Classify(t.KeyCode, snap.Line()) {
		b.log.Debug("trigger %s not valid on line %q", t, snap.Line())
		return
	}

	content, err := BuildRequest(snap)
	if err != nil {
		b.log.Error("build request: %v", err)
		return
	}

	msg := b.messenger.NewMessage(kernel.MsgIntellisenseRequest, content)
	seq := a.beginRequest(msg.ID())
	b.mu.Lock()
	b.diagSeq++
	diagSeq := b.diagSeq
	b.mu.Unlock()
	log := b.log.WithField("msg_id", msg.ID())

	b.messenger.SetCallbacks(msg.ID(), kernel.Route(kernel.Handlers{
		OnReply: func(r kernel.Reply) {
			if !b.current(bd, seq) {
				log.Debug("drop stale reply")
				return
			}
			a.SetDeclarations(r.Matches)
			a.SetStartColumnIndex(r.FilterStartIndex)
			b.notify(Update{
				Kind:         UpdateCompletions,
				Adapter:      a,
				Declarations: r.Matches,
				StartColumn:  r.FilterStartIndex,
			})
		},
		OnOutput: func(o kernel.Output) {
			if !b.currentDiagnostics(bd, diagSeq) {
				log.Debug("drop stale diagnostics")
				return
			}
			n := ReplaceMarkers(notebook.CodeCells(b.doc), o.Errors, b.opts.MarkerClass, log)
			b.notify(Update{Kind: UpdateDiagnostics, Adapter: a, Markers: n})
		},
		OnError: func(err error) {
			log.Warn("ignore response: %v", err)
		},
	}))

	if err := b.messenger.Send(ctx, msg); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error("send intellisense request: %v", err)
		}
	}
}

func (b *Binder) methods(ctx context.Context, bd *binding, t Trigger, pos editor.Position) {
	if b.opts.Methods == nil {
		return
	}
	a := bd.adapter
	sig, err := b.opts.Methods.OnMethod(ctx, t.KeyCode, a.Editor().Line(pos.Line), pos)
	if err != nil {
		b.log.Warn("methods hook: %v", err)
		return
	}
	if sig != "" {
		a.SetSignature(sig)
	}
}

// current reports whether a completion reply for seq may be applied to bd.
func (b *Binder) current(bd *binding, seq uint64) bool {
	b.mu.Lock()
	closed := bd.closed
	b.mu.Unlock()
	if closed {
		return false
	}
	return !b.opts.StaleGuard || bd.adapter.isLatest(seq)
}

// currentDiagnostics reports whether a diagnostics output for the
// document-wide sequence seq may be applied.
func (b *Binder) currentDiagnostics(bd *binding, seq uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd.closed {
		return false
	}
	return !b.opts.StaleGuard || seq == b.diagSeq
}

func (b *Binder) notify(u Update) {
	if b.opts.OnUpdate != nil {
		b.opts.OnUpdate(u)
	}
}
