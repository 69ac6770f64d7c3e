package registry

import (
	"context"
	"testing"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

func testID(b byte) contracts.TxID {
	var id contracts.TxID
	for i := range id {
		id[i] = b
	}
	return id
}

// Flag semantics shared by every backend: absent reads false, flips stick,
// flipping back to false does not delete the entry's meaning.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	id := testID(0xaa)
	other := testID(0xbb)

	queued, err := s.IsQueued(ctx, id)
	if err != nil {
		t.Fatalf("IsQueued on fresh store: %v", err)
	}
	if queued {
		t.Fatalf("never-inserted id must read as not queued")
	}

	if err := s.SetQueued(ctx, id, true); err != nil {
		t.Fatalf("SetQueued true: %v", err)
	}
	if queued, _ = s.IsQueued(ctx, id); !queued {
		t.Fatalf("flag did not flip to true")
	}
	if queued, _ = s.IsQueued(ctx, other); queued {
		t.Fatalf("unrelated id reads as queued")
	}

	if err := s.SetQueued(ctx, id, false); err != nil {
		t.Fatalf("SetQueued false: %v", err)
	}
	if queued, _ = s.IsQueued(ctx, id); queued {
		t.Fatalf("flag did not flip back to false")
	}

	// Re-queue after clearing: the registry has no memory beyond the flag.
	if err := s.SetQueued(ctx, id, true); err != nil {
		t.Fatalf("re-queue: %v", err)
	}
	if queued, _ = s.IsQueued(ctx, id); !queued {
		t.Fatalf("re-queue did not flip the flag")
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	runStoreContract(t, s)
}

func TestSQLiteStore_Contract(t *testing.T) {
	s, err := OpenSQLiteStore(t.TempDir() + "/registry.db")
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer func() { _ = s.Close() }()
	runStoreContract(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/registry.db"
	ctx := context.Background()
	id := testID(0x01)

	s, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetQueued(ctx, id, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	queued, err := s.IsQueued(ctx, id)
	if err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if !queued {
		t.Fatalf("flag did not survive reopen")
	}
}
