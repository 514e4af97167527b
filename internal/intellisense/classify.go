package intellisense

import "strings"

// Directives that take a path argument.
const (
	DirectiveLoad      = "#load"
	DirectiveReference = "#r"
)

// pathOpeners are the only lines on which a quote keystroke asks for path
// completion: a directive followed by a plain or verbatim string opener.
var pathOpeners = map[string]bool{
	`#load "`:  true,
	`#r "`:     true,
	`#load @"`: true,
	`#r @"`:    true,
}

// IsSlash reports whether keyCode is a path separator key.
func IsSlash(keyCode int) bool {
	return keyCode == KeySlash || keyCode == KeyBackslash
}

// IsQuote reports whether keyCode is the quote key.
func IsQuote(keyCode int) bool {
	return keyCode == KeyQuote
}

// Classify reports whether a declaration trigger for keyCode should issue a
// request given the text of the cursor's line. Separator keys only count on
// #load/#r lines; quote keys only count right after a directive's string
// opener. Every other key is always valid.
func Classify(keyCode int, line string) bool {
	switch {
	case IsSlash(keyCode):
		return strings.HasPrefix(line, DirectiveLoad) || strings.HasPrefix(line, DirectiveReference)
	case IsQuote(keyCode):
		return pathOpeners[line]
	default:
		return true
	}
}
