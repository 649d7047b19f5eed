package service

import (
	"github.com/google/uuid"
)

// Actor is the authenticated identity making a request. It is extracted
// from the verified JWT by the middleware and passed explicitly into every
// service call; services never read ambient session state.
type Actor struct {
	UserID string
	Role   string
}

// uid parses the actor's user id, returning nil when absent or malformed
// (audit rows tolerate a missing user the same way automated writes do).
func (a Actor) uid() *uuid.UUID {
	if parsed, err := uuid.Parse(a.UserID); err == nil {
		return &parsed
	}
	return nil
}
