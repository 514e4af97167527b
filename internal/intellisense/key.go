package intellisense

import "strings"

// Browser key codes used by the trigger set.
const (
	KeyZero      = 48
	KeyNine      = 57
	KeySpace     = 32
	KeyPeriod    = 190
	KeySlash     = 191
	KeyBackslash = 220
	KeyQuote     = 222
)

// EventType is the phase of a key event.
type EventType string

// Key event phases. The zero value is treated as KeyUp.
const (
	KeyUp   EventType = "up"
	KeyDown EventType = "down"
)

func (t EventType) normalize() EventType {
	if t == "" {
		return KeyUp
	}
	return t
}

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key.
	ModAlt

	// ModMeta indicates the Meta key.
	ModMeta
)

// Has returns true if m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String returns a representation like "Ctrl+Shift".
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// KeyEvent is a keystroke delivered to a cell editor.
type KeyEvent struct {
	KeyCode   int
	Modifiers Modifier
	Type      EventType
}
