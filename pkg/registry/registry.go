// Package registry is the authoritative record of which transaction
// identifiers may be executed. It is a flag store, not a history log: a
// TxID maps to a boolean "is queued" flag, default false for any key never
// inserted. Entries are never deleted, only flipped, and the same TxID may
// be queued, executed, and re-queued indefinitely.
package registry

import (
	"context"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// Store persists the queued flag per transaction identifier.
//
// Implementations must treat an absent key as false and must be safe for
// concurrent use; operation-level atomicity is enforced by the gate service,
// which performs at most one flag mutation per operation and compensates on
// dispatch failure.
type Store interface {
	// IsQueued reports the current flag for id.
	IsQueued(ctx context.Context, id contracts.TxID) (bool, error)
	// SetQueued flips the flag for id.
	SetQueued(ctx context.Context, id contracts.TxID, queued bool) error
	// Close releases any underlying resources.
	Close() error
}
