// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

const (
	eventPrefix   = "EVENT_JSON:"
	eventStandard = "nep171"
	eventVersion  = "1.0.0"
)

// Event is a NEP-297 formatted event log.
type Event struct {
	Standard string      `json:"standard"`
	Version  string      `json:"version"`
	Event    string      `json:"event"`
	Data     interface{} `json:"data"`
}

// TransferData is one entry of an nft_transfer event.
type TransferData struct {
	OldOwnerID   vmcontext.AccountID  `json:"old_owner_id"`
	NewOwnerID   vmcontext.AccountID  `json:"new_owner_id"`
	TokenIDs     []string             `json:"token_ids"`
	AuthorizedID *vmcontext.AccountID `json:"authorized_id,omitempty"`
	Memo         *string              `json:"memo,omitempty"`
}

// MintData is one entry of an nft_mint event.
type MintData struct {
	OwnerID  vmcontext.AccountID `json:"owner_id"`
	TokenIDs []string            `json:"token_ids"`
	Memo     *string             `json:"memo,omitempty"`
}

func emit(h *host.Host, event string, data interface{}) error {
	b, err := json.Marshal(&Event{
		Standard: eventStandard,
		Version:  eventVersion,
		Event:    event,
		Data:     data,
	})
	if err != nil {
		return h.Panic("Failed to serialize event")
	}
	return h.Log(eventPrefix + string(b))
}

func emitTransfer(h *host.Host, oldOwner, newOwner vmcontext.AccountID, tokenID string, memo *string) error {
	return emit(h, "nft_transfer", []TransferData{{
		OldOwnerID: oldOwner,
		NewOwnerID: newOwner,
		TokenIDs:   []string{tokenID},
		Memo:       memo,
	}})
}

func emitMint(h *host.Host, owner vmcontext.AccountID, tokenID string) error {
	return emit(h, "nft_mint", []MintData{{
		OwnerID:  owner,
		TokenIDs: []string{tokenID},
	}})
}

// ParseEvent decodes a log emitted by emit. It reports false for any other log.
func ParseEvent(log string, data interface{}) (*Event, bool) {
	if len(log) < len(eventPrefix) || log[:len(eventPrefix)] != eventPrefix {
		return nil, false
	}
	event := &Event{Data: data}
	if err := json.Unmarshal([]byte(log[len(eventPrefix):]), event); err != nil {
		return nil, false
	}
	return event, true
}
