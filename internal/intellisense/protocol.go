package intellisense

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/notebook"
)

// ErrNoCodeCells is returned when a snapshot finds nothing to send.
var ErrNoCodeCells = errors.New("document has no code cells")

// Snapshot is the state of all code cells at the moment a trigger fired.
type Snapshot struct {
	// Cells are the code cells in display order.
	Cells []notebook.Cell

	// Codes holds the full text of each cell in Cells.
	Codes []string

	// SelectedIndex is the index into Cells of the selected cell.
	SelectedIndex int

	// Cursor is the selected cell's cursor.
	Cursor editor.Position
}

// Selected returns the selected cell.
func (s Snapshot) Selected() notebook.Cell {
	return s.Cells[s.SelectedIndex]
}

// Line returns the text of the cursor's line in the selected cell.
func (s Snapshot) Line() string {
	return s.Selected().Editor().Line(s.Cursor.Line)
}

// TakeSnapshot captures the code cells of doc. When no cell is flagged as
// selected, the cell whose editor is origin is used.
func TakeSnapshot(doc notebook.Document, origin editor.Editor) (Snapshot, error) {
	var s Snapshot
	selected, originIndex := -1, -1

	for _, c := range notebook.CodeCells(doc) {
		if c.Selected() && selected < 0 {
			selected = len(s.Cells)
		}
		if c.Editor() == origin {
			originIndex = len(s.Cells)
		}
		s.Cells = append(s.Cells, c)
		s.Codes = append(s.Codes, c.Editor().Value())
	}

	if len(s.Cells) == 0 {
		return Snapshot{}, ErrNoCodeCells
	}
	switch {
	case selected >= 0:
		s.SelectedIndex = selected
	case originIndex >= 0:
		s.SelectedIndex = originIndex
	}
	s.Cursor = s.Selected().Editor().Cursor()
	return s, nil
}

// Block locates the cursor within the document.
type Block struct {
	SelectedIndex int `json:"selectedIndex"`
	Ch            int `json:"ch"`
	Line          int `json:"line"`
}

// RequestContent is the intellisense_request body. Text and Block travel
// as JSON-encoded strings.
type RequestContent struct {
	Text      string `json:"text"`
	Line      string `json:"line"`
	Block     string `json:"block"`
	CursorPos int    `json:"cursor_pos"`
}

// BuildRequest serializes a snapshot into request content.
func BuildRequest(s Snapshot) (RequestContent, error) {
	codes := s.Codes
	if codes == nil {
		codes = []string{}
	}
	text, err := json.Marshal(codes)
	if err != nil {
		return RequestContent{}, fmt.Errorf("encode cell texts: %w", err)
	}
	block, err := json.Marshal(Block{
		SelectedIndex: s.SelectedIndex,
		Ch:            s.Cursor.Ch,
		Line:          s.Cursor.Line,
	})
	if err != nil {
		return RequestContent{}, fmt.Errorf("encode block: %w", err)
	}
	return RequestContent{
		Text:      string(text),
		Line:      "",
		Block:     string(block),
		CursorPos: s.Cursor.Ch,
	}, nil
}
