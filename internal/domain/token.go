package domain

import "time"

// TokenIssuer issues a signed admin session token scoped to one event.
type TokenIssuer interface {
	Issue(eventURL string, expiry time.Duration) (string, error)
}

// TokenVerifier validates an admin session token and returns the event URL
// it is scoped to.
type TokenVerifier interface {
	Verify(token string) (eventURL string, err error)
}
