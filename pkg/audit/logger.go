// Package audit provides the append-only, externally observable notification
// log of the gate: Queued, Executed, and Cancelled records as structured
// JSON lines, each content-addressed by a canonical (RFC 8785) hash.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// Action identifies the notification kind.
type Action string

const (
	ActionQueued    Action = "QUEUED"
	ActionExecuted  Action = "EXECUTED"
	ActionCancelled Action = "CANCELLED"
)

// Record is a single notification entry.
type Record struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actor_id"`
	Action    Action      `json:"action"`
	TxID      string      `json:"tx_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
	// Hash is the SHA-256 of the canonical JSON of the record with this
	// field empty; it content-addresses the entry.
	Hash string `json:"hash"`
}

// Log writes notification records to a configurable writer, one JSON object
// per line.
type Log struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLog creates a Log writing to os.Stdout.
func NewLog() *Log {
	return NewLogWithWriter(os.Stdout)
}

// NewLogWithWriter creates a Log writing to the given writer.
// This allows injection for testing and custom sinks.
func NewLogWithWriter(w io.Writer) *Log {
	if w == nil {
		w = os.Stdout
	}
	return &Log{writer: w}
}

// Queued records a Queued notification.
func (l *Log) Queued(ctx context.Context, ev contracts.QueuedEvent) {
	l.append(ctx, ActionQueued, ev.TxID.Hex(), ev)
}

// Executed records an Executed notification.
func (l *Log) Executed(ctx context.Context, ev contracts.ExecutedEvent) {
	l.append(ctx, ActionExecuted, ev.TxID.Hex(), ev)
}

// Cancelled records a Cancelled notification.
func (l *Log) Cancelled(ctx context.Context, ev contracts.CancelledEvent) {
	l.append(ctx, ActionCancelled, ev.TxID.Hex(), ev)
}

func (l *Log) append(ctx context.Context, action Action, txID string, payload interface{}) {
	actor := "system"
	if p, err := auth.GetPrincipal(ctx); err == nil {
		actor = string(p)
	}

	rec := Record{
		ID:        uuid.New().String(),
		ActorID:   actor,
		Action:    action,
		TxID:      txID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	h, err := hashRecord(rec)
	if err != nil {
		return // Notification sinks never veto operations.
	}
	rec.Hash = h

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append(data, '\n'))
}

// hashRecord returns the SHA-256 hex digest of the RFC 8785 canonical form
// of the record.
func hashRecord(rec Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
