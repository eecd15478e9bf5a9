// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"github.com/ava-labs/contractvm/host"
)

// Phase is a step of a transfer-and-call.
type Phase uint8

const (
	Idle Phase = iota
	Transferring
	AwaitingReceiverResponse
	// ResolvedKeep: the receiver keeps the token.
	ResolvedKeep
	// ResolvedReturn: the receiver asked for the token to be returned.
	ResolvedReturn
	// ResolvedPanicKeep: the receiver aborted and the token is returned.
	ResolvedPanicKeep
)

var phaseNames = map[Phase]string{
	Idle:                     "Idle",
	Transferring:             "Transferring",
	AwaitingReceiverResponse: "AwaitingReceiverResponse",
	ResolvedKeep:             "ResolvedKeep",
	ResolvedReturn:           "ResolvedReturn",
	ResolvedPanicKeep:        "ResolvedPanicKeep",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether [p] ends a transfer-and-call.
func (p Phase) Terminal() bool { return p >= ResolvedKeep }

// Returns reports whether the token goes back to the previous owner.
func (p Phase) Returns() bool { return p == ResolvedReturn || p == ResolvedPanicKeep }

// Classify maps the result of nft_on_transfer to the terminal phase. Only an
// explicit false keeps the token; a malformed response counts as a return.
// A result that is not ready leaves the call in AwaitingReceiverResponse.
func Classify(result host.PromiseResult) Phase {
	switch result.Status {
	case host.Successful:
		var returnIt bool
		if err := host.DecodeResult(result, &returnIt); err == nil && !returnIt {
			return ResolvedKeep
		}
		return ResolvedReturn
	case host.Failed:
		return ResolvedPanicKeep
	default:
		return AwaitingReceiverResponse
	}
}
