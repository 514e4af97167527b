package intellisense

import (
	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/kernel"
	"github.com/dshills/nbsense/internal/logging"
	"github.com/dshills/nbsense/internal/notebook"
)

// DefaultMarkerClass tags error marks created from diagnostics.
const DefaultMarkerClass = "br-errormarker"

// ReplaceMarkers clears every className mark on every code cell, then adds
// one mark per error record. Records naming a cell that does not exist are
// skipped. It returns the number of marks created.
func ReplaceMarkers(cells []notebook.Cell, errs []kernel.ErrorRecord, className string, log *logging.Logger) int {
	if log == nil {
		log = logging.Nop()
	}

	for _, c := range cells {
		editor.ClearMarks(c.Editor(), className)
	}

	created := 0
	for _, e := range errs {
		if e.CellNumber < 0 || e.CellNumber >= len(cells) {
			log.Warn("diagnostic for unknown cell %d: %s", e.CellNumber, e.Message)
			continue
		}
		from := editor.Position{Line: e.StartLine, Ch: e.StartColumn}
		to := editor.Position{Line: e.EndLine, Ch: e.EndColumn}
		cells[e.CellNumber].Editor().MarkText(from, to, editor.MarkOptions{
			ClassName: className,
			Title:     e.Message,
		})
		created++
	}
	return created
}
