// Package notebook models the host document as nbsense sees it: a metadata
// map and an ordered list of cells, each with its own editor.
package notebook

import (
	"fmt"
	"math"
	"sync"

	"github.com/dshills/nbsense/internal/editor"
)

// DefaultLanguage is the language tag written into documents that lack one.
const DefaultLanguage = "fsharp"

// MetadataLanguage is the metadata key holding the language tag.
const MetadataLanguage = "language"

// CellType discriminates code cells from everything else.
type CellType string

// Cell types.
const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// Metadata holds document level properties.
type Metadata map[string]any

// Language returns the language tag and whether it is set. Any value other
// than null, false, zero or the empty string counts as set; non-string
// values are returned in their printed form.
func (m Metadata) Language() (string, bool) {
	v, ok := m[MetadataLanguage]
	if !ok || !isSet(v) {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func isSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

// Cell is one unit of document content. The host owns its lifecycle.
type Cell interface {
	// ID identifies the cell for the lifetime of the document.
	ID() string

	// Type returns the cell type.
	Type() CellType

	// Selected reports whether the cell has focus.
	Selected() bool

	// Editor returns the cell's editor.
	Editor() editor.Editor

	// ForceHighlight switches the cell's syntax highlighting to mode.
	ForceHighlight(mode string)
}

// Document is the host document port.
type Document interface {
	// Metadata returns the live metadata map; writes are visible to the host.
	Metadata() Metadata

	// Cells returns the cells in display order.
	Cells() []Cell
}

// CodeCells returns the code cells of doc in display order.
func CodeCells(doc Document) []Cell {
	var out []Cell
	for _, c := range doc.Cells() {
		if c.Type() == CellCode {
			out = append(out, c)
		}
	}
	return out
}

// MemoryCell is an in-memory Cell.
type MemoryCell struct {
	mu        sync.Mutex
	id        string
	cellType  CellType
	selected  bool
	editor    editor.Editor
	highlight string
}

// NewMemoryCell creates a cell backed by ed.
func NewMemoryCell(id string, cellType CellType, ed editor.Editor) *MemoryCell {
	return &MemoryCell{id: id, cellType: cellType, editor: ed}
}

// ID returns the cell id.
func (c *MemoryCell) ID() string { return c.id }

// Type returns the cell type.
func (c *MemoryCell) Type() CellType { return c.cellType }

// Editor returns the cell's editor.
func (c *MemoryCell) Editor() editor.Editor { return c.editor }

// Selected reports whether the cell is selected.
func (c *MemoryCell) Selected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// ForceHighlight records the forced highlighting mode.
func (c *MemoryCell) ForceHighlight(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highlight = mode
}

// Highlight returns the mode last passed to ForceHighlight.
func (c *MemoryCell) Highlight() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlight
}

func (c *MemoryCell) setSelected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = v
}

// Memory is an in-memory Document.
type Memory struct {
	mu       sync.RWMutex
	metadata Metadata
	cells    []*MemoryCell
}

// NewMemory creates an empty document with the given metadata.
func NewMemory(md Metadata) *Memory {
	if md == nil {
		md = make(Metadata)
	}
	return &Memory{metadata: md}
}

// Metadata returns the metadata map.
func (d *Memory) Metadata() Metadata {
	return d.metadata
}

// Cells returns all cells in display order.
func (d *Memory) Cells() []Cell {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Cell, len(d.cells))
	for i, c := range d.cells {
		out[i] = c
	}
	return out
}

// Append adds c at the end of the document.
func (d *Memory) Append(c *MemoryCell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cells = append(d.cells, c)
}

// Remove deletes the cell with id and returns it, or nil when absent.
func (d *Memory) Remove(id string) *MemoryCell {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, c := range d.cells {
		if c.id == id {
			d.cells = append(d.cells[:i], d.cells[i+1:]...)
			return c
		}
	}
	return nil
}

// Select marks the cell with id as the only selected cell. It reports
// whether the cell exists.
func (d *Memory) Select(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := false
	for _, c := range d.cells {
		c.setSelected(c.id == id)
		if c.id == id {
			found = true
		}
	}
	return found
}

// Cell returns the cell with id, or nil.
func (d *Memory) Cell(id string) *MemoryCell {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.cells {
		if c.id == id {
			return c
		}
	}
	return nil
}
