package editor

import (
	"strings"
	"sync"
)

// Buffer is an in-memory Editor. It backs the CLI session and tests.
// Buffer is safe for concurrent use: kernel replies arrive on the client's
// read goroutine while keystrokes come from the caller.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	cursor  Position
	options map[string]any
	marks   []*bufferMark
}

// NewBuffer creates a buffer holding text with the cursor at the origin.
func NewBuffer(text string) *Buffer {
	return &Buffer{
		lines:   strings.Split(text, "\n"),
		options: make(map[string]any),
	}
}

// Value returns the full text.
func (b *Buffer) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// SetValue replaces the text. Existing marks are dropped and the cursor is
// clamped into the new text.
func (b *Buffer) SetValue(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = strings.Split(text, "\n")
	for _, m := range b.marks {
		m.cleared = true
	}
	b.marks = nil
	b.cursor = b.clamp(b.cursor)
}

// Line returns line n, or "" when n is out of range.
func (b *Buffer) Line(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursor moves the cursor, clamped to the text.
func (b *Buffer) SetCursor(p Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clamp(p)
}

// SetOption sets an option.
func (b *Buffer) SetOption(name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.options[name] = value
}

// Option returns an option or nil.
func (b *Buffer) Option(name string) any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.options[name]
}

// MarkText adds a mark over [from, to).
func (b *Buffer) MarkText(from, to Position, opts MarkOptions) Mark {
	if to.Before(from) {
		from, to = to, from
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m := &bufferMark{buf: b, from: from, to: to, opts: opts}
	b.marks = append(b.marks, m)
	return m
}

// Marks returns the live marks in creation order.
func (b *Buffer) Marks() []Mark {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Mark, 0, len(b.marks))
	for _, m := range b.marks {
		out = append(out, m)
	}
	return out
}

func (b *Buffer) clamp(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Ch < 0 {
		p.Ch = 0
	}
	if n := len(b.lines[p.Line]); p.Ch > n {
		p.Ch = n
	}
	return p
}

func (b *Buffer) removeMark(target *bufferMark) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, m := range b.marks {
		if m == target {
			b.marks = append(b.marks[:i], b.marks[i+1:]...)
			return
		}
	}
}

type bufferMark struct {
	buf     *Buffer
	from    Position
	to      Position
	opts    MarkOptions
	cleared bool
}

func (m *bufferMark) ClassName() string {
	return m.opts.ClassName
}

func (m *bufferMark) Title() string {
	return m.opts.Title
}

func (m *bufferMark) Find() (Position, Position, bool) {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	if m.cleared {
		return Position{}, Position{}, false
	}
	return m.from, m.to, true
}

func (m *bufferMark) Clear() {
	m.buf.mu.Lock()
	if m.cleared {
		m.buf.mu.Unlock()
		return
	}
	m.cleared = true
	m.buf.mu.Unlock()

	m.buf.removeMark(m)
}
