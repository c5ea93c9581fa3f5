// Package identity defines the boundary to the external identity provider
// (e.g., a Farcaster user search). The engine never accepts the provider's
// open-ended user records; collaborators convert them to the narrow
// ResolvedUser contract at this boundary.
package identity

import (
	"context"
	"errors"
)

// ErrUnknownHandle is returned when the provider has no user for a handle.
var ErrUnknownHandle = errors.New("unknown handle")

// ResolvedUser is the result of an identity provider lookup, reduced to
// the fields the engine consumes.
type ResolvedUser struct {
	// ID is the provider-assigned numeric identifier. Always positive.
	ID int64

	// Handle is the provider handle the user was found under.
	Handle string

	// DisplayName is the provider display name. May be empty.
	DisplayName string

	// Addresses are the user's verified wallet addresses, in provider
	// order. May be empty for users who have not linked a wallet.
	Addresses []string
}

// FirstVerifiedAddress returns the first verified address, if any. The
// engine treats a user without one as unresolved until their wallet is
// linked.
func (u ResolvedUser) FirstVerifiedAddress() (string, bool) {
	if len(u.Addresses) == 0 {
		return "", false
	}
	return u.Addresses[0], true
}

// Resolver looks up a user by handle. Implementations call out to the
// identity provider and must be invoked outside any group critical
// section; results are fed back into the engine as plain data.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (ResolvedUser, error)
}

// StaticResolver is a Resolver backed by a fixed handle table. Used in
// tests and local development.
type StaticResolver map[string]ResolvedUser

// Resolve returns the user registered under handle, or ErrUnknownHandle.
func (r StaticResolver) Resolve(_ context.Context, handle string) (ResolvedUser, error) {
	user, ok := r[handle]
	if !ok {
		return ResolvedUser{}, ErrUnknownHandle
	}
	return user, nil
}
