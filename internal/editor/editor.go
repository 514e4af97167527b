// Package editor defines the port through which nbsense reads and annotates a
// cell's code editor, plus an in-memory implementation of it.
//
// The host owns the real editor widget. nbsense only needs to read the text
// and cursor, set a handful of options (theme, mode) and manage text marks,
// so the Editor interface is limited to exactly that surface.
package editor

// Position is a zero-based line/column location in an editor.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Before reports whether p sorts before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Ch < q.Ch
}

// Option names understood by editors.
const (
	OptionMode  = "mode"
	OptionTheme = "theme"
)

// MarkOptions describes a text mark.
type MarkOptions struct {
	// ClassName tags the mark so it can be found and cleared selectively.
	ClassName string

	// Title is shown as a tooltip when hovering the marked range.
	Title string
}

// Mark is a highlighted range in an editor.
type Mark interface {
	// ClassName returns the tag the mark was created with.
	ClassName() string

	// Title returns the mark's tooltip text.
	Title() string

	// Find returns the marked range. ok is false once the mark is cleared.
	Find() (from, to Position, ok bool)

	// Clear removes the mark from its editor. Clearing twice is a no-op.
	Clear()
}

// Editor is the per-cell code editor port.
type Editor interface {
	// Value returns the full text.
	Value() string

	// Line returns the text of line n without its newline, or "" when n is
	// out of range.
	Line(n int) string

	// Cursor returns the primary cursor position.
	Cursor() Position

	// SetOption sets an editor option such as OptionTheme.
	SetOption(name string, value any)

	// Option returns an editor option, or nil when unset.
	Option(name string) any

	// MarkText highlights the range [from, to) and returns the mark.
	MarkText(from, to Position, opts MarkOptions) Mark

	// Marks returns all live marks.
	Marks() []Mark
}

// Factory creates editors for new cells.
type Factory interface {
	New(text string) Editor
}

// ClearMarks clears every mark on ed tagged className and reports how many
// were removed.
func ClearMarks(ed Editor, className string) int {
	n := 0
	for _, m := range ed.Marks() {
		if m.ClassName() == className {
			m.Clear()
			n++
		}
	}
	return n
}

// MarksWithClass returns the live marks on ed tagged className.
func MarksWithClass(ed Editor, className string) []Mark {
	var out []Mark
	for _, m := range ed.Marks() {
		if m.ClassName() == className {
			out = append(out, m)
		}
	}
	return out
}
