package identity

import "context"

// Authenticator port (interface for the remote identity provider).
// Each call is a single remote round trip; there are no retries.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
}
