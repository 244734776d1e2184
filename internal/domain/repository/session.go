package repository

import "context"

// Session exposes repositories bound to one database session.
type Session interface {
	Users() UserRepository
	Verifications() UserVerificationRepository
}

// SessionRunner acquires a session scoped to ctx, runs fn inside a transaction
// and releases the session when fn returns. A non-nil error from fn rolls back.
type SessionRunner interface {
	InSession(ctx context.Context, fn func(s Session) error) error
}
