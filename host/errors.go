// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a contract-visible failure.
type ErrorKind uint8

const (
	GuestPanic ErrorKind = iota + 1
	GasExceeded
	GasLimitExceeded
	BalanceExceeded
	ProhibitedInView
	InvalidPromiseIndex
	InvalidPromiseResultIndex
	KeyLengthExceeded
	ValueLengthExceeded
	NumberOfLogsExceeded
	TotalLogLengthExceeded
	NumberPromisesExceeded
	InvalidAccountID
	IntegerOverflow
	MethodNotFound
	CodeDoesNotExist
	AccountDoesNotExist
)

var kindNames = map[ErrorKind]string{
	GuestPanic:                "GuestPanic",
	GasExceeded:               "Exceeded the prepaid gas",
	GasLimitExceeded:          "Exceeded the maximum amount of gas allowed to burn per contract",
	BalanceExceeded:           "Exceeded the account balance",
	ProhibitedInView:          "ProhibitedInView",
	InvalidPromiseIndex:       "InvalidPromiseIndex",
	InvalidPromiseResultIndex: "InvalidPromiseResultIndex",
	KeyLengthExceeded:         "KeyLengthExceeded",
	ValueLengthExceeded:       "ValueLengthExceeded",
	NumberOfLogsExceeded:      "NumberOfLogsExceeded",
	TotalLogLengthExceeded:    "TotalLogLengthExceeded",
	NumberPromisesExceeded:    "NumberPromisesExceeded",
	InvalidAccountID:          "InvalidAccountId",
	IntegerOverflow:           "IntegerOverflow",
	MethodNotFound:            "MethodNotFound",
	CodeDoesNotExist:          "CodeDoesNotExist",
	AccountDoesNotExist:       "AccountDoesNotExist",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// IsGas reports whether [k] is a gas exhaustion.
func (k ErrorKind) IsGas() bool {
	return k == GasExceeded || k == GasLimitExceeded
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrGuestPanic                = &Error{Kind: GuestPanic}
	ErrGasExceeded               = &Error{Kind: GasExceeded}
	ErrGasLimitExceeded          = &Error{Kind: GasLimitExceeded}
	ErrBalanceExceeded           = &Error{Kind: BalanceExceeded}
	ErrProhibitedInView          = &Error{Kind: ProhibitedInView}
	ErrInvalidPromiseIndex       = &Error{Kind: InvalidPromiseIndex}
	ErrInvalidPromiseResultIndex = &Error{Kind: InvalidPromiseResultIndex}
	ErrKeyLengthExceeded         = &Error{Kind: KeyLengthExceeded}
	ErrValueLengthExceeded       = &Error{Kind: ValueLengthExceeded}
	ErrNumberOfLogsExceeded      = &Error{Kind: NumberOfLogsExceeded}
	ErrTotalLogLengthExceeded    = &Error{Kind: TotalLogLengthExceeded}
	ErrNumberPromisesExceeded    = &Error{Kind: NumberPromisesExceeded}
	ErrInvalidAccountID          = &Error{Kind: InvalidAccountID}
	ErrIntegerOverflow           = &Error{Kind: IntegerOverflow}
	ErrMethodNotFound            = &Error{Kind: MethodNotFound}
	ErrCodeDoesNotExist          = &Error{Kind: CodeDoesNotExist}
	ErrAccountDoesNotExist       = &Error{Kind: AccountDoesNotExist}
)

// Error is a failure raised inside a frame. It aborts the frame it was
// raised in and nothing else.
type Error struct {
	Kind ErrorKind
	Msg  string
}

// NewError returns an *Error of [kind] with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	if e.Kind == GuestPanic {
		return "Smart contract panicked: " + e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// KindOf returns the kind of the *Error wrapped in [err], if any.
func KindOf(err error) (ErrorKind, bool) {
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Kind, true
	}
	return 0, false
}
