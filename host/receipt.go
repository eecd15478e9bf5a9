// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/vmcontext"
)

// NoParent marks a root receipt.
const NoParent = -1

// Receipt is a deferred call created by a frame. Receipts created by one
// frame form a forest addressed by their index in creation order: a
// callback names its single parent and the parent lists its callbacks.
type Receipt struct {
	Receiver vmcontext.AccountID
	// Method is empty for a plain transfer of [Deposit].
	Method  string
	Args    []byte
	Deposit uint256.Int
	Gas     vmcontext.Gas

	Parent    int
	Callbacks []int
}

// IsTransfer reports whether the receipt only moves tokens.
func (r *Receipt) IsTransfer() bool { return r.Method == "" }

// IsCallback reports whether the receipt waits on another receipt.
func (r *Receipt) IsCallback() bool { return r.Parent != NoParent }

// PromiseStatus is the state of a promise as seen by a callback.
type PromiseStatus uint8

const (
	NotReady PromiseStatus = iota
	Successful
	Failed
)

func (s PromiseStatus) String() string {
	switch s {
	case NotReady:
		return "NotReady"
	case Successful:
		return "Successful"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// PromiseResult is the outcome of a resolved receipt.
type PromiseResult struct {
	Status PromiseStatus
	Data   []byte
}

// SuccessResult returns a successful result carrying [data].
func SuccessResult(data []byte) PromiseResult {
	return PromiseResult{Status: Successful, Data: data}
}

// FailedResult returns a failed result.
func FailedResult() PromiseResult { return PromiseResult{Status: Failed} }

// NotReadyResult returns a result for a promise that has not resolved.
func NotReadyResult() PromiseResult { return PromiseResult{Status: NotReady} }

// IsSuccessful reports whether the receipt succeeded.
func (p PromiseResult) IsSuccessful() bool { return p.Status == Successful }
