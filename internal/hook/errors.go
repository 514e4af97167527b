package hook

import "errors"

var (
	// ErrClosed is returned when calling into a closed hook.
	ErrClosed = errors.New("hook is closed")

	// ErrNoHandler is returned when a script does not define on_method.
	ErrNoHandler = errors.New("script does not define " + FuncOnMethod)

	// ErrBadReturn is returned when on_method returns something other than
	// a string or nil.
	ErrBadReturn = errors.New(FuncOnMethod + " must return a string or nil")
)
