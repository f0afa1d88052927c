package ports

import "time"

// CookieOptions controls how a session value is persisted. Path is always
// "/" and SameSite always Lax; only the knobs that vary per value appear
// here.
type CookieOptions struct {
	HTTPOnly bool
	MaxAge   time.Duration
}

// SessionStore abstracts the cookie jar so the auth and subscription logic
// can run against an in-memory fake in tests. The production implementation
// reads from the inbound request and writes Set-Cookie headers.
type SessionStore interface {
	// Get returns the stored value, or "" when absent.
	Get(name string) string
	Set(name, value string, opts CookieOptions)
	Delete(name string)
}
