package editor

import (
	"testing"
)

func TestBuffer_Lines(t *testing.T) {
	b := NewBuffer("let x = 1\n#load \"\nx.")

	if got := b.LineCount(); got != 3 {
		t.Fatalf("LineCount: got %d, want 3", got)
	}
	if got := b.Line(1); got != `#load "` {
		t.Errorf("Line(1): got %q", got)
	}
	if got := b.Line(-1); got != "" {
		t.Errorf("Line(-1): got %q, want empty", got)
	}
	if got := b.Line(3); got != "" {
		t.Errorf("Line(3): got %q, want empty", got)
	}
	if got := b.Value(); got != "let x = 1\n#load \"\nx." {
		t.Errorf("Value: got %q", got)
	}
}

func TestBuffer_CursorIsClamped(t *testing.T) {
	b := NewBuffer("ab\ncdef")

	tests := []struct {
		in   Position
		want Position
	}{
		{Position{Line: 1, Ch: 2}, Position{Line: 1, Ch: 2}},
		{Position{Line: 5, Ch: 0}, Position{Line: 1, Ch: 0}},
		{Position{Line: 0, Ch: 9}, Position{Line: 0, Ch: 2}},
		{Position{Line: -1, Ch: -1}, Position{Line: 0, Ch: 0}},
	}

	for _, tt := range tests {
		b.SetCursor(tt.in)
		if got := b.Cursor(); got != tt.want {
			t.Errorf("SetCursor(%+v): got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestBuffer_Marks(t *testing.T) {
	b := NewBuffer("let x = y\nlet z = w")

	m1 := b.MarkText(Position{0, 8}, Position{0, 9}, MarkOptions{ClassName: "err", Title: "y undefined"})
	b.MarkText(Position{1, 8}, Position{1, 9}, MarkOptions{ClassName: "err", Title: "w undefined"})
	b.MarkText(Position{0, 0}, Position{0, 3}, MarkOptions{ClassName: "keyword"})

	if got := len(b.Marks()); got != 3 {
		t.Fatalf("Marks: got %d, want 3", got)
	}

	from, to, ok := m1.Find()
	if !ok || from != (Position{0, 8}) || to != (Position{0, 9}) {
		t.Errorf("Find: got %+v %+v %v", from, to, ok)
	}
	if m1.Title() != "y undefined" {
		t.Errorf("Title: got %q", m1.Title())
	}

	if n := ClearMarks(b, "err"); n != 2 {
		t.Errorf("ClearMarks: got %d, want 2", n)
	}
	if got := MarksWithClass(b, "err"); len(got) != 0 {
		t.Errorf("err marks left after clear: %d", len(got))
	}
	if got := MarksWithClass(b, "keyword"); len(got) != 1 {
		t.Errorf("keyword marks: got %d, want 1", len(got))
	}

	if _, _, ok := m1.Find(); ok {
		t.Error("cleared mark still findable")
	}
	m1.Clear() // second clear is a no-op
}

func TestBuffer_MarkTextNormalizesRange(t *testing.T) {
	b := NewBuffer("abcdef")
	m := b.MarkText(Position{0, 4}, Position{0, 1}, MarkOptions{})

	from, to, _ := m.Find()
	if from != (Position{0, 1}) || to != (Position{0, 4}) {
		t.Errorf("range not normalized: %+v %+v", from, to)
	}
}

func TestBuffer_SetValueDropsMarks(t *testing.T) {
	b := NewBuffer("abc")
	m := b.MarkText(Position{0, 0}, Position{0, 1}, MarkOptions{ClassName: "err"})
	b.SetCursor(Position{0, 3})

	b.SetValue("a")

	if len(b.Marks()) != 0 {
		t.Error("marks survived SetValue")
	}
	if _, _, ok := m.Find(); ok {
		t.Error("old mark still findable")
	}
	if got := b.Cursor(); got != (Position{0, 1}) {
		t.Errorf("cursor not clamped: %+v", got)
	}
}

func TestMemoryFactory_InheritsDefaults(t *testing.T) {
	d := NewDefaults()
	f := MemoryFactory{Defaults: d}

	before := f.New("")
	d.Set(OptionMode, "fsharp")
	after := f.New("")

	if before.Option(OptionMode) != nil {
		t.Errorf("editor created before defaults changed got mode %v", before.Option(OptionMode))
	}
	if after.Option(OptionMode) != "fsharp" {
		t.Errorf("new editor mode: got %v, want fsharp", after.Option(OptionMode))
	}
	if d.Mode() != "fsharp" {
		t.Errorf("Defaults.Mode: got %q", d.Mode())
	}
}
