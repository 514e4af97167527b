package intellisense

import (
	"fmt"
	"strings"
)

// Category is the kind of assistance a trigger requests.
type Category int

const (
	// CategoryDeclaration opens a completion list.
	CategoryDeclaration Category = iota + 1

	// CategoryMethods shows call-signature help.
	CategoryMethods
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryDeclaration:
		return "declaration"
	case CategoryMethods:
		return "methods"
	default:
		return "unknown"
	}
}

// Trigger is a key-match descriptor paired with a category.
type Trigger struct {
	KeyCode        int
	Modifiers      Modifier
	PreventDefault bool
	Type           EventType
	Category       Category
}

// Matches reports whether ev fires t. Key code, phase and the exact modifier
// set must all agree.
func (t Trigger) Matches(ev KeyEvent) bool {
	return t.KeyCode == ev.KeyCode &&
		t.Modifiers == ev.Modifiers &&
		t.Type.normalize() == ev.Type.normalize()
}

// String returns a short description such as "Ctrl+32/down declaration".
func (t Trigger) String() string {
	var b strings.Builder
	if t.Modifiers != ModNone {
		b.WriteString(t.Modifiers.String())
		b.WriteString("+")
	}
	fmt.Fprintf(&b, "%d/%s %s", t.KeyCode, t.Type.normalize(), t.Category)
	if t.PreventDefault {
		b.WriteString(" (prevent default)")
	}
	return b.String()
}

// DefaultTriggers returns the fixed trigger set installed on every adapter.
func DefaultTriggers() []Trigger {
	return []Trigger{
		{KeyCode: KeyPeriod, Category: CategoryDeclaration},
		{KeyCode: KeySpace, Modifiers: ModCtrl, PreventDefault: true, Type: KeyDown, Category: CategoryDeclaration},
		{KeyCode: KeySlash, Category: CategoryDeclaration},
		{KeyCode: KeyBackslash, Category: CategoryDeclaration},
		{KeyCode: KeyQuote, Category: CategoryDeclaration},
		{KeyCode: KeyQuote, Modifiers: ModShift, Category: CategoryDeclaration},
		{KeyCode: KeyNine, Modifiers: ModShift, Category: CategoryMethods},
		{KeyCode: KeyZero, Modifiers: ModShift, Category: CategoryMethods},
	}
}
