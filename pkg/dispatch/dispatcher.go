// Package dispatch abstracts the actual invocation of a target: given a
// payload and a forwarded value, invoke the target and report success or
// failure. The gate treats this as an opaque primitive.
package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Dispatcher invokes a target with a payload and forwarded value, returning
// the raw result bytes. A non-nil error means the call failed and the
// enclosing operation must roll back.
type Dispatcher interface {
	Dispatch(ctx context.Context, target string, payload []byte, value uint64) ([]byte, error)
}

// Handler is the callee side of a local dispatch. Handlers may call back
// into the gate service; reentrant queue/cancel during a dispatch is
// permitted.
type Handler func(ctx context.Context, payload []byte, value uint64) ([]byte, error)

// LocalDispatcher routes dispatches to in-process handlers registered per
// target. It backs tests and the demo harness; remote transports implement
// Dispatcher separately.
type LocalDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewLocalDispatcher() *LocalDispatcher {
	return &LocalDispatcher{handlers: make(map[string]Handler)}
}

// Register binds a handler to a target, replacing any previous binding.
func (d *LocalDispatcher) Register(target string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[target] = h
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, target string, payload []byte, value uint64) ([]byte, error) {
	d.mu.RLock()
	h, ok := d.handlers[target]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dispatch: no handler for target %q", target)
	}
	return h(ctx, payload, value)
}
