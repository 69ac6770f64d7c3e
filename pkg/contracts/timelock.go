// Package contracts defines the shared data types of the timelock gate:
// transaction identifiers, call descriptors, and the notification records
// emitted when a descriptor is queued, executed, or cancelled.
package contracts

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// TxID is the fixed-width identifier derived from a Descriptor. It is the
// primary key into the queue registry.
type TxID [32]byte

// Hex returns the lowercase hex encoding of the identifier.
func (id TxID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id TxID) String() string {
	return id.Hex()
}

// MarshalJSON encodes the identifier as a hex string.
func (id TxID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON decodes a hex string into the identifier.
func (id *TxID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTxID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseTxID decodes a 64-character hex string into a TxID.
func ParseTxID(s string) (TxID, error) {
	var id TxID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse tx id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("parse tx id: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Descriptor describes a delayed call. It is never persisted as a struct;
// it exists only to derive a TxID and, at execute time, to reconstruct the
// dispatch payload. Two descriptors differing in any field (including
// ScheduledTime) derive different identifiers.
type Descriptor struct {
	// Target is the address-like identifier of the callee.
	Target string `json:"target"`
	// Value is the amount forwarded to the target on execution.
	Value uint64 `json:"value"`
	// Data is the opaque call payload.
	Data []byte `json:"data"`
	// FunctionSignature, when non-empty, selects the target-side routine;
	// its selector is prepended to Data at dispatch time.
	FunctionSignature string `json:"function_signature,omitempty"`
	// ScheduledTime is the earliest execution time, in unix seconds.
	ScheduledTime int64 `json:"scheduled_time"`
}

// QueuedEvent is emitted when a descriptor enters the registry.
type QueuedEvent struct {
	TxID              TxID   `json:"tx_id"`
	Target            string `json:"target"`
	Value             uint64 `json:"value"`
	Data              []byte `json:"data"`
	FunctionSignature string `json:"function_signature,omitempty"`
	ScheduledTime     int64  `json:"scheduled_time"`
}

// ExecutedEvent is emitted after a successful dispatch. It carries the same
// fields as QueuedEvent so observers can correlate without re-deriving state.
type ExecutedEvent struct {
	TxID              TxID   `json:"tx_id"`
	Target            string `json:"target"`
	Value             uint64 `json:"value"`
	Data              []byte `json:"data"`
	FunctionSignature string `json:"function_signature,omitempty"`
	ScheduledTime     int64  `json:"scheduled_time"`
}

// CancelledEvent is emitted when a pending descriptor is withdrawn.
type CancelledEvent struct {
	TxID TxID `json:"tx_id"`
}
