// Package auth implements the single-principal access guard and the
// bearer-token resolution used by the HTTP surface.
package auth

import "errors"

// ErrNotOwner is returned when a caller other than the fixed owner attempts
// a mutating operation.
var ErrNotOwner = errors.New("caller is not the owner")

// Principal identifies the entity making a request.
type Principal string

// Guard gates every mutating operation on the fixed owner identity. The
// owner is set once at construction and never transferred; there is no
// transfer-of-ownership path. Authorize has no side effects.
type Guard struct {
	owner Principal
}

// NewGuard creates a guard for the given owner.
func NewGuard(owner Principal) *Guard {
	return &Guard{owner: owner}
}

// Owner returns the fixed owner identity.
func (g *Guard) Owner() Principal {
	return g.owner
}

// Authorize returns ErrNotOwner unless caller is the owner.
func (g *Guard) Authorize(caller Principal) error {
	if caller != g.owner {
		return ErrNotOwner
	}
	return nil
}
