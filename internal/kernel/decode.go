package kernel

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Shape identifies which protocol generation produced a payload.
type Shape int

const (
	// ShapeLegacy payloads carry the fields at the top level.
	ShapeLegacy Shape = iota + 1

	// ShapeModern payloads are whole messages with the fields under content.
	ShapeModern
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeModern:
		return "modern"
	default:
		return "unknown"
	}
}

// Reply is the canonical completion reply.
type Reply struct {
	Shape            Shape
	Matches          []string
	FilterStartIndex int
}

// ErrorRecord is one diagnostic reported by the kernel.
type ErrorRecord struct {
	CellNumber  int    `json:"CellNumber"`
	StartLine   int    `json:"StartLine"`
	StartColumn int    `json:"StartColumn"`
	EndLine     int    `json:"EndLine"`
	EndColumn   int    `json:"EndColumn"`
	Message     string `json:"Message"`
}

// Output is the canonical diagnostics output.
type Output struct {
	Shape  Shape
	Errors []ErrorRecord
}

// SniffShape reports whether payload is a whole modern message or a bare
// legacy body.
func SniffShape(payload []byte) Shape {
	if gjson.GetBytes(payload, "content").IsObject() {
		return ShapeModern
	}
	return ShapeLegacy
}

func body(payload []byte) (gjson.Result, Shape, error) {
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, 0, fmt.Errorf("%w: malformed JSON", ErrInvalidResponse)
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return gjson.Result{}, 0, fmt.Errorf("%w: payload is not an object", ErrInvalidResponse)
	}
	if shape := SniffShape(payload); shape == ShapeModern {
		return root.Get("content"), shape, nil
	}
	return root, ShapeLegacy, nil
}

// DecodeReply decodes either reply shape. A missing filter_start_index falls
// back to cursor_start, then to zero.
func DecodeReply(payload []byte) (Reply, error) {
	b, shape, err := body(payload)
	if err != nil {
		return Reply{}, err
	}

	matches := b.Get("matches")
	if !matches.IsArray() {
		return Reply{}, fmt.Errorf("%w: matches is not a list", ErrInvalidResponse)
	}

	r := Reply{Shape: shape, Matches: make([]string, 0, len(matches.Array()))}
	for _, m := range matches.Array() {
		if m.Type != gjson.String {
			return Reply{}, fmt.Errorf("%w: non-string match %s", ErrInvalidResponse, m.Raw)
		}
		r.Matches = append(r.Matches, m.Str)
	}

	switch start := b.Get("filter_start_index"); {
	case start.Type == gjson.Number:
		r.FilterStartIndex = int(start.Int())
	case b.Get("cursor_start").Type == gjson.Number:
		r.FilterStartIndex = int(b.Get("cursor_start").Int())
	}
	return r, nil
}

// DecodeOutput decodes either diagnostics shape. An empty error list is valid.
func DecodeOutput(payload []byte) (Output, error) {
	b, shape, err := body(payload)
	if err != nil {
		return Output{}, err
	}

	errs := b.Get("data.errors")
	if !errs.IsArray() {
		return Output{}, fmt.Errorf("%w: data.errors is not a list", ErrInvalidResponse)
	}

	out := Output{Shape: shape, Errors: make([]ErrorRecord, 0, len(errs.Array()))}
	for _, e := range errs.Array() {
		if !e.IsObject() {
			return Output{}, fmt.Errorf("%w: error record is not an object", ErrInvalidResponse)
		}
		out.Errors = append(out.Errors, ErrorRecord{
			CellNumber:  int(e.Get("CellNumber").Int()),
			StartLine:   int(e.Get("StartLine").Int()),
			StartColumn: int(e.Get("StartColumn").Int()),
			EndLine:     int(e.Get("EndLine").Int()),
			EndColumn:   int(e.Get("EndColumn").Int()),
			Message:     e.Get("Message").String(),
		})
	}
	return out, nil
}
