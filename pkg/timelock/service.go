// Package timelock implements the delayed-execution authorization gate: a
// single owner queues an arbitrary call, and the call may only be dispatched
// after a minimum delay has elapsed and before a grace window expires.
package timelock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/contracts"
	"github.com/Mindburn-Labs/timelock/pkg/dispatch"
	"github.com/Mindburn-Labs/timelock/pkg/registry"
	"github.com/Mindburn-Labs/timelock/pkg/txid"
)

// Window constants, in seconds on the authority clock. MinDelay < MaxDelay.
const (
	// MinDelay is the minimum lead time a queued call must carry.
	MinDelay int64 = 10
	// MaxDelay is the maximum lead time a queued call may carry.
	MaxDelay int64 = 1000
	// GracePeriod is the window after the scheduled time during which
	// execution remains valid.
	GracePeriod int64 = 1000
)

// Notifier receives the externally observable notifications. Implementations
// must be append-only observers; they cannot veto an operation.
type Notifier interface {
	Queued(ctx context.Context, ev contracts.QueuedEvent)
	Executed(ctx context.Context, ev contracts.ExecutedEvent)
	Cancelled(ctx context.Context, ev contracts.CancelledEvent)
}

// Metrics records operation outcomes. Satisfied by observability.Provider.
type Metrics interface {
	RecordOperation(ctx context.Context, op string, err error)
}

// Service is the gate instance: owner guard, queue registry, dispatcher,
// clock, and the funds held for forwarding. The hosting platform serializes
// operations; internal locking only protects against data races, not
// interleaving.
type Service struct {
	guard      *auth.Guard
	store      registry.Store
	dispatcher dispatch.Dispatcher
	clock      Clock
	logger     *slog.Logger

	notifier Notifier
	metrics  Metrics

	balanceMu sync.Mutex
	balance   uint64
}

// NewService creates a gate for the given owner. If clock is nil, wall-clock
// time is used.
func NewService(owner auth.Principal, store registry.Store, dispatcher dispatch.Dispatcher, clock Clock) *Service {
	if clock == nil {
		clock = wallClock{}
	}
	return &Service{
		guard:      auth.NewGuard(owner),
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     slog.Default(),
	}
}

// SetNotifier injects the notification sink after initialization.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetMetrics injects the metrics recorder after initialization.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// SetLogger replaces the default structured logger.
func (s *Service) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Owner returns the fixed owner identity.
func (s *Service) Owner() auth.Principal {
	return s.guard.Owner()
}

// DeriveID maps a descriptor to its transaction identifier. Pure; requires
// no authorization.
func (s *Service) DeriveID(d contracts.Descriptor) contracts.TxID {
	return txid.Derive(d)
}

// Balance returns the funds currently held by the gate.
func (s *Service) Balance() uint64 {
	s.balanceMu.Lock()
	defer s.balanceMu.Unlock()
	return s.balance
}

// Deposit accepts funds into the gate. No authorization and no further
// logic; it only increases the held balance.
func (s *Service) Deposit(ctx context.Context, value uint64) {
	s.balanceMu.Lock()
	s.balance += value
	s.balanceMu.Unlock()
	s.logger.InfoContext(ctx, "deposit accepted", "value", value)
}

// Queue registers a descriptor for later execution. Preconditions, in order:
// the caller is the owner, the derived identifier is not already queued, and
// the scheduled time lies within [now+MinDelay, now+MaxDelay] inclusive.
// No value transfer occurs here.
func (s *Service) Queue(ctx context.Context, caller auth.Principal, d contracts.Descriptor) (contracts.TxID, error) {
	id, err := s.queue(ctx, caller, d)
	s.record(ctx, "queue", err)
	return id, err
}

func (s *Service) queue(ctx context.Context, caller auth.Principal, d contracts.Descriptor) (contracts.TxID, error) {
	var zero contracts.TxID
	if err := s.guard.Authorize(caller); err != nil {
		return zero, err
	}

	id := txid.Derive(d)
	queued, err := s.store.IsQueued(ctx, id)
	if err != nil {
		return zero, err
	}
	if queued {
		return zero, &AlreadyQueuedError{TxID: id}
	}

	now := s.clock.Now().Unix()
	if d.ScheduledTime < now+MinDelay || d.ScheduledTime > now+MaxDelay {
		return zero, &TimeWindowError{Now: now, ScheduledTime: d.ScheduledTime}
	}

	if err := s.store.SetQueued(ctx, id, true); err != nil {
		return zero, err
	}

	s.logger.InfoContext(ctx, "transaction queued",
		"tx_id", id.Hex(), "target", d.Target, "scheduled_time", d.ScheduledTime)
	if s.notifier != nil {
		s.notifier.Queued(ctx, contracts.QueuedEvent{
			TxID:              id,
			Target:            d.Target,
			Value:             d.Value,
			Data:              d.Data,
			FunctionSignature: d.FunctionSignature,
			ScheduledTime:     d.ScheduledTime,
		})
	}
	return id, nil
}

// Execute dispatches a previously queued descriptor. The descriptor must
// exactly match the queued one to reproduce its identifier. Preconditions,
// in order: the caller is the owner, the identifier is queued, now is at or
// after the scheduled time, and now is at or before scheduled time plus
// GracePeriod (both bounds inclusive).
//
// The queued flag is cleared BEFORE the dispatch, so a reentrant call during
// the dispatch cannot observe the transaction as still queued. If the
// dispatch fails, every mutation made by this operation is undone and
// CallFailedError is returned: the operation is all-or-nothing.
func (s *Service) Execute(ctx context.Context, caller auth.Principal, d contracts.Descriptor, attached uint64) ([]byte, error) {
	out, err := s.execute(ctx, caller, d, attached)
	s.record(ctx, "execute", err)
	return out, err
}

func (s *Service) execute(ctx context.Context, caller auth.Principal, d contracts.Descriptor, attached uint64) ([]byte, error) {
	if err := s.guard.Authorize(caller); err != nil {
		return nil, err
	}

	id := txid.Derive(d)
	queued, err := s.store.IsQueued(ctx, id)
	if err != nil {
		return nil, err
	}
	if !queued {
		return nil, &NotQueuedError{TxID: id}
	}

	now := s.clock.Now().Unix()
	if now < d.ScheduledTime {
		return nil, &TooEarlyError{Now: now, ScheduledTime: d.ScheduledTime}
	}
	if now > d.ScheduledTime+GracePeriod {
		return nil, &ExpiredError{Now: now, ScheduledTime: d.ScheduledTime}
	}

	// Clear the flag before dispatching (checks-effects-interactions).
	if err := s.store.SetQueued(ctx, id, false); err != nil {
		return nil, err
	}

	// Credit the attached value, then reserve the forwarded value. Both are
	// undone if the dispatch fails.
	s.balanceMu.Lock()
	s.balance += attached
	if s.balance < d.Value {
		s.balance -= attached
		s.balanceMu.Unlock()
		s.rollbackFlag(ctx, id)
		return nil, &CallFailedError{TxID: id, Err: ErrInsufficientFunds}
	}
	s.balance -= d.Value
	s.balanceMu.Unlock()

	payload := txid.BuildPayload(d.FunctionSignature, d.Data)

	out, err := s.dispatcher.Dispatch(ctx, d.Target, payload, d.Value)
	if err != nil {
		s.balanceMu.Lock()
		s.balance += d.Value
		s.balance -= attached
		s.balanceMu.Unlock()
		s.rollbackFlag(ctx, id)
		return nil, &CallFailedError{TxID: id, Err: err}
	}

	s.logger.InfoContext(ctx, "transaction executed",
		"tx_id", id.Hex(), "target", d.Target, "value", d.Value)
	if s.notifier != nil {
		s.notifier.Executed(ctx, contracts.ExecutedEvent{
			TxID:              id,
			Target:            d.Target,
			Value:             d.Value,
			Data:              d.Data,
			FunctionSignature: d.FunctionSignature,
			ScheduledTime:     d.ScheduledTime,
		})
	}
	return out, nil
}

// Cancel withdraws a pending transaction by identifier. No dispatch occurs.
func (s *Service) Cancel(ctx context.Context, caller auth.Principal, id contracts.TxID) error {
	err := s.cancel(ctx, caller, id)
	s.record(ctx, "cancel", err)
	return err
}

func (s *Service) cancel(ctx context.Context, caller auth.Principal, id contracts.TxID) error {
	if err := s.guard.Authorize(caller); err != nil {
		return err
	}

	queued, err := s.store.IsQueued(ctx, id)
	if err != nil {
		return err
	}
	if !queued {
		return &NotQueuedError{TxID: id}
	}

	if err := s.store.SetQueued(ctx, id, false); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "transaction cancelled", "tx_id", id.Hex())
	if s.notifier != nil {
		s.notifier.Cancelled(ctx, contracts.CancelledEvent{TxID: id})
	}
	return nil
}

// rollbackFlag restores the queued flag after a failed dispatch. A restore
// failure leaves the flag cleared; the owner can re-queue, so log rather
// than mask the original dispatch error.
func (s *Service) rollbackFlag(ctx context.Context, id contracts.TxID) {
	if err := s.store.SetQueued(ctx, id, true); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore queued flag after dispatch failure",
			"tx_id", id.Hex(), "error", err)
	}
}

func (s *Service) record(ctx context.Context, op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, op, err)
	}
}
