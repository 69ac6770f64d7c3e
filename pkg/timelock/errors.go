package timelock

import (
	"errors"
	"fmt"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// ErrNotOwner is re-exported so callers can match it without importing auth.
var ErrNotOwner = auth.ErrNotOwner

// ErrInsufficientFunds is the dispatch-side cause when the gate's balance
// (including the attached value) cannot cover the forwarded value.
var ErrInsufficientFunds = errors.New("insufficient funds for forwarded value")

// AlreadyQueuedError reports a duplicate queue attempt for an identical,
// still-pending descriptor.
type AlreadyQueuedError struct {
	TxID contracts.TxID
}

func (e *AlreadyQueuedError) Error() string {
	return fmt.Sprintf("transaction %s is already queued", e.TxID)
}

// TimeWindowError reports a queue-time scheduling outside
// [now+MinDelay, now+MaxDelay].
type TimeWindowError struct {
	Now           int64
	ScheduledTime int64
}

func (e *TimeWindowError) Error() string {
	return fmt.Sprintf("scheduled time %d outside [%d, %d]",
		e.ScheduledTime, e.Now+MinDelay, e.Now+MaxDelay)
}

// NotQueuedError reports an execute or cancel referencing an identifier with
// no pending entry.
type NotQueuedError struct {
	TxID contracts.TxID
}

func (e *NotQueuedError) Error() string {
	return fmt.Sprintf("transaction %s is not queued", e.TxID)
}

// TooEarlyError reports an execute attempted before the scheduled time.
type TooEarlyError struct {
	Now           int64
	ScheduledTime int64
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("execution window not open: now %d < scheduled %d", e.Now, e.ScheduledTime)
}

// ExpiredError reports an execute attempted after the grace period.
type ExpiredError struct {
	Now           int64
	ScheduledTime int64
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("execution window expired: now %d > scheduled %d + grace %d",
		e.Now, e.ScheduledTime, GracePeriod)
}

// CallFailedError reports that the forwarded dispatch itself failed. The
// operation's state mutations are rolled back before this is returned.
type CallFailedError struct {
	TxID contracts.TxID
	Err  error
}

func (e *CallFailedError) Error() string {
	return fmt.Sprintf("dispatch for transaction %s failed: %v", e.TxID, e.Err)
}

func (e *CallFailedError) Unwrap() error {
	return e.Err
}
