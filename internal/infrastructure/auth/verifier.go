package auth

import "context"

// Principal is the authenticated caller of a request or socket.
type Principal struct {
	UserID string
	// Role is empty when the token does not carry one.
	Role string
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Principal, error)
}
