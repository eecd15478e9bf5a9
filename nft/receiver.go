// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

// Messages the receiver contract understands.
const (
	MsgReturnNow   = "return-it-now"
	MsgReturnLater = "return-it-later"
	MsgKeepNow     = "keep-it-now"
	MsgKeepLater   = "keep-it-later"
)

// GasForOnTransfer is kept back by nft_on_transfer when it answers through
// its own ok_go call.
const GasForOnTransfer = 10 * vmcontext.TeraGas

const nftAccountKey = "nft"

type receiverInitArgs struct {
	NonFungibleTokenAccountID vmcontext.AccountID `json:"non_fungible_token_account_id"`
}

type okGoArgs struct {
	ReturnIt bool `json:"return_it"`
}

// Receiver is a token receiver contract that answers nft_on_transfer
// according to the message it gets.
var Receiver = &host.Contract{
	Name: "token-receiver",
	Methods: map[string]host.Method{
		"new":             NewReceiver,
		"nft_on_transfer": OnTransfer,
		"ok_go":           OkGo,
	},
}

// NewReceiver initializes the receiver with the only token contract it accepts.
func NewReceiver(h *host.Host) error {
	var args receiverInitArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	found, err := h.StorageHasKey([]byte(nftAccountKey))
	if err != nil {
		return err
	}
	if err := h.Require(!found, "Already initialized"); err != nil {
		return err
	}
	_, _, err = h.StorageWrite([]byte(nftAccountKey), []byte(args.NonFungibleTokenAccountID))
	return err
}

// OnTransfer answers whether the token should be returned, either directly
// or through a call to ok_go on itself.
func OnTransfer(h *host.Host) error {
	var args OnTransferArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	nftAccount, found, err := h.StorageRead([]byte(nftAccountKey))
	if err != nil {
		return err
	}
	if err := h.Require(found, "The contract is not initialized"); err != nil {
		return err
	}
	if err := h.Require(h.PredecessorAccountID() == vmcontext.AccountID(nftAccount), "Only supports the one non-fungible token contract"); err != nil {
		return err
	}
	if err := h.Log(fmt.Sprintf("in nft_on_transfer; sender_id=%s, previous_owner_id=%s, token_id=%s, msg=%s",
		args.SenderID, args.PreviousOwnerID, args.TokenID, args.Msg)); err != nil {
		return err
	}

	switch args.Msg {
	case MsgReturnNow:
		return h.ReturnJSON(true)
	case MsgKeepNow:
		return h.ReturnJSON(false)
	case MsgReturnLater:
		return okGoLater(h, true)
	case MsgKeepLater:
		return okGoLater(h, false)
	default:
		return h.Panic("unsupported msg")
	}
}

func okGoLater(h *host.Host, returnIt bool) error {
	prepaid := h.PrepaidGas()
	if err := h.Require(prepaid > GasForOnTransfer, "More gas is required"); err != nil {
		return err
	}
	args, err := json.Marshal(&okGoArgs{ReturnIt: returnIt})
	if err != nil {
		return h.Panic("Failed to serialize arguments")
	}
	p, err := h.PromiseCreate(h.CurrentAccountID(), "ok_go", args, uint256.Int{}, prepaid-GasForOnTransfer)
	if err != nil {
		return err
	}
	return h.PromiseReturn(p)
}

// OkGo logs and echoes return_it.
func OkGo(h *host.Host) error {
	var args okGoArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	if err := h.Log("ok_go is called"); err != nil {
		return err
	}
	return h.ReturnJSON(args.ReturnIt)
}
