// Package intellisense binds keystroke triggers on notebook code cells to
// kernel completion and diagnostics requests.
//
// A Binder owns one Adapter per code cell editor. Each adapter carries the
// fixed trigger set from DefaultTriggers. Declaration triggers run the
// request protocol: snapshot every code cell, classify the keystroke against
// the cursor's line, send an intellisense_request and apply the reply
// (completion candidates) and output (error markers) when they arrive.
//
// Replies may come in either the legacy or the modern message shape; both
// are decoded by the kernel package into the same canonical values before
// they reach an adapter.
package intellisense
