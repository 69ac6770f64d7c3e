package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

func TestLog_RecordsNotifications(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogWithWriter(&buf)
	ctx := auth.WithPrincipal(context.Background(), "owner-1")

	var id contracts.TxID
	id[0] = 0x42

	l.Queued(ctx, contracts.QueuedEvent{TxID: id, Target: "t-1", ScheduledTime: 100})
	l.Executed(ctx, contracts.ExecutedEvent{TxID: id, Target: "t-1", ScheduledTime: 100})
	l.Cancelled(ctx, contracts.CancelledEvent{TxID: id})

	scanner := bufio.NewScanner(&buf)
	var records []Record
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSON line: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantActions := []Action{ActionQueued, ActionExecuted, ActionCancelled}
	for i, rec := range records {
		if rec.Action != wantActions[i] {
			t.Errorf("record %d: action %s, want %s", i, rec.Action, wantActions[i])
		}
		if rec.ActorID != "owner-1" {
			t.Errorf("record %d: actor %s, want owner-1", i, rec.ActorID)
		}
		if rec.TxID != id.Hex() {
			t.Errorf("record %d: tx id %s, want %s", i, rec.TxID, id.Hex())
		}
		if rec.ID == "" || rec.Hash == "" {
			t.Errorf("record %d: missing id or hash", i)
		}
	}
}

func TestLog_HashIsContentAddressed(t *testing.T) {
	rec := Record{ID: "fixed", ActorID: "a", Action: ActionQueued, TxID: "00"}

	h1, err := hashRecord(rec)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := hashRecord(rec)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash not deterministic")
	}

	rec.TxID = "01"
	h3, _ := hashRecord(rec)
	if h3 == h1 {
		t.Fatalf("different content produced the same hash")
	}
}

func TestLog_NoPrincipalFallsBackToSystem(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogWithWriter(&buf)

	l.Cancelled(context.Background(), contracts.CancelledEvent{})

	var rec Record
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec.ActorID != "system" {
		t.Fatalf("actor %s, want system", rec.ActorID)
	}
}
