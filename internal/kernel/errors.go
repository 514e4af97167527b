// Package kernel speaks the notebook kernel messaging protocol: it builds
// requests, correlates replies by msg_id, and decodes the two generations of
// intellisense reply payloads into one canonical form.
package kernel

import "errors"

var (
	// ErrClosed indicates the client connection has been closed.
	ErrClosed = errors.New("kernel connection closed")

	// ErrInvalidResponse indicates a reply or output payload with missing or
	// mistyped fields.
	ErrInvalidResponse = errors.New("invalid kernel response")
)
