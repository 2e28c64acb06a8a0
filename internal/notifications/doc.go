// Package notifications pushes pipeline outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Only dispatch success, gate failure, and
// the manual test event produce a message.
package notifications
