// Package notifications delivers build events via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Event kinds cover the milestones of a
// build; each formats its own title, message and tags from a Payload.
package notifications
