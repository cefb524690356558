// Package identity resolves bearer tokens to actors. Token issuance (OTP/PIN
// login) belongs to the external auth collaborator; this core only consumes
// getActorIdentity(token).
package identity

import (
	"context"
	"errors"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// ErrUnauthenticated means the token is missing, unknown, or expired.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver maps a bearer token to the actor behind it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Actor, error)
}
