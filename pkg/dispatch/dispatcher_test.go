package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLocalDispatcher_RoutesToHandler(t *testing.T) {
	d := NewLocalDispatcher()
	var gotPayload []byte
	var gotValue uint64

	d.Register("t-1", func(ctx context.Context, payload []byte, value uint64) ([]byte, error) {
		gotPayload = payload
		gotValue = value
		return []byte("ok"), nil
	})

	out, err := d.Dispatch(context.Background(), "t-1", []byte{0x01}, 7)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !bytes.Equal(out, []byte("ok")) {
		t.Fatalf("unexpected result %q", out)
	}
	if !bytes.Equal(gotPayload, []byte{0x01}) || gotValue != 7 {
		t.Fatalf("handler saw payload=%x value=%d", gotPayload, gotValue)
	}
}

func TestLocalDispatcher_UnknownTarget(t *testing.T) {
	d := NewLocalDispatcher()
	if _, err := d.Dispatch(context.Background(), "missing", nil, 0); err == nil {
		t.Fatalf("expected error for unregistered target")
	}
}

func TestLocalDispatcher_HandlerFailurePropagates(t *testing.T) {
	d := NewLocalDispatcher()
	boom := errors.New("callee reverted")
	d.Register("t-1", func(ctx context.Context, payload []byte, value uint64) ([]byte, error) {
		return nil, boom
	})

	if _, err := d.Dispatch(context.Background(), "t-1", nil, 0); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}
