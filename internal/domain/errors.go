package domain

import (
	"errors"
	"fmt"
)

// Reasons a bet is rejected. They are wrapped in a *BetError.
var (
	ErrInvalidAmount     = errors.New("invalid bet amount")
	ErrAboveCeiling      = errors.New("bet exceeds house ceiling")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidSelector   = errors.New("invalid selector")
	ErrUnknownBetKind    = errors.New("unknown bet kind")
)

var ErrAccountNotFound = errors.New("account not found")

// BetError is a user-caused rejection. Nothing was charged and retrying the
// same bet will fail the same way.
type BetError struct {
	Reason error
	Detail string
}

func (e *BetError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func (e *BetError) Unwrap() error { return e.Reason }

// EngineError is a system-caused failure while recording a round. The
// unit of work was rolled back, so the whole spin can be retried.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Temporary reports that the failure is retryable.
func (e *EngineError) Temporary() bool { return true }

// IsBetError reports whether err is, or wraps, a *BetError.
func IsBetError(err error) bool {
	var be *BetError
	return errors.As(err, &be)
}

// IsEngineError reports whether err is, or wraps, an *EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
