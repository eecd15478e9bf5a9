// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nft implements a non-fungible token contract with the
// transfer-and-call protocol, and a receiver contract that exercises every
// response the protocol allows.
package nft

import (
	"github.com/holiman/uint256"

	jsoniter "github.com/json-iterator/go"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

const (
	// GasForResolveTransfer is attached to the nft_resolve_transfer callback.
	GasForResolveTransfer = 5 * vmcontext.TeraGas
	// GasForTransferCall is kept back by nft_transfer_call for itself and the
	// resolve callback. Prepaid gas must exceed it.
	GasForTransferCall = 25*vmcontext.TeraGas + GasForResolveTransfer

	ownerKey    = "owner"
	tokenPrefix = "t/"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Token is the view of a token returned by nft_token.
type Token struct {
	TokenID string              `json:"token_id"`
	OwnerID vmcontext.AccountID `json:"owner_id"`
}

type initArgs struct {
	OwnerID vmcontext.AccountID `json:"owner_id"`
}

type mintArgs struct {
	TokenID      string              `json:"token_id"`
	TokenOwnerID vmcontext.AccountID `json:"token_owner_id"`
}

type tokenArgs struct {
	TokenID string `json:"token_id"`
}

// TransferArgs are the arguments of nft_transfer.
type TransferArgs struct {
	ReceiverID vmcontext.AccountID `json:"receiver_id"`
	TokenID    string              `json:"token_id"`
	ApprovalID *uint64             `json:"approval_id,omitempty"`
	Memo       *string             `json:"memo,omitempty"`
}

// TransferCallArgs are the arguments of nft_transfer_call.
type TransferCallArgs struct {
	ReceiverID vmcontext.AccountID `json:"receiver_id"`
	TokenID    string              `json:"token_id"`
	ApprovalID *uint64             `json:"approval_id,omitempty"`
	Memo       *string             `json:"memo,omitempty"`
	Msg        string              `json:"msg"`
}

// OnTransferArgs are the arguments nft_on_transfer receives.
type OnTransferArgs struct {
	SenderID        vmcontext.AccountID `json:"sender_id"`
	PreviousOwnerID vmcontext.AccountID `json:"previous_owner_id"`
	TokenID         string              `json:"token_id"`
	Msg             string              `json:"msg"`
}

// ResolveTransferArgs are the arguments of nft_resolve_transfer.
type ResolveTransferArgs struct {
	PreviousOwnerID    vmcontext.AccountID `json:"previous_owner_id"`
	ReceiverID         vmcontext.AccountID `json:"receiver_id"`
	TokenID            string              `json:"token_id"`
	ApprovedAccountIDs map[string]uint64   `json:"approved_account_ids"`
}

// Contract is the non-fungible token contract.
var Contract = &host.Contract{
	Name: "non-fungible-token",
	Methods: map[string]host.Method{
		"new":                  New,
		"nft_mint":             Mint,
		"nft_token":            TokenView,
		"nft_transfer":         Transfer,
		"nft_transfer_call":    TransferCall,
		"nft_resolve_transfer": ResolveTransfer,
	},
}

// New initializes the contract with the account allowed to mint.
func New(h *host.Host) error {
	var args initArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	found, err := h.StorageHasKey([]byte(ownerKey))
	if err != nil {
		return err
	}
	if err := h.Require(!found, "Already initialized"); err != nil {
		return err
	}
	if err := h.Require(args.OwnerID.Validate() == nil, "The account ID is invalid"); err != nil {
		return err
	}
	_, _, err = h.StorageWrite([]byte(ownerKey), []byte(args.OwnerID))
	return err
}

func contractOwner(h *host.Host) (vmcontext.AccountID, error) {
	owner, found, err := h.StorageRead([]byte(ownerKey))
	if err != nil {
		return "", err
	}
	if !found {
		return "", h.Panic("The contract is not initialized")
	}
	return vmcontext.AccountID(owner), nil
}

func tokenKey(tokenID string) []byte { return []byte(tokenPrefix + tokenID) }

// tokenOwner returns the owner of [tokenID] and whether the token exists.
func tokenOwner(h *host.Host, tokenID string) (vmcontext.AccountID, bool, error) {
	owner, found, err := h.StorageRead(tokenKey(tokenID))
	if err != nil || !found {
		return "", false, err
	}
	return vmcontext.AccountID(owner), true, nil
}

func setTokenOwner(h *host.Host, tokenID string, owner vmcontext.AccountID) error {
	_, _, err := h.StorageWrite(tokenKey(tokenID), []byte(owner))
	return err
}

// Mint creates a token owned by token_owner_id. Only the contract owner may mint.
func Mint(h *host.Host) error {
	var args mintArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	owner, err := contractOwner(h)
	if err != nil {
		return err
	}
	if err := h.Require(h.PredecessorAccountID() == owner, "Unauthorized"); err != nil {
		return err
	}
	if err := h.Require(args.TokenOwnerID.Validate() == nil, "The account ID is invalid"); err != nil {
		return err
	}
	_, exists, err := tokenOwner(h, args.TokenID)
	if err != nil {
		return err
	}
	if err := h.Require(!exists, "token_id must be unique"); err != nil {
		return err
	}
	if err := setTokenOwner(h, args.TokenID, args.TokenOwnerID); err != nil {
		return err
	}
	if err := emitMint(h, args.TokenOwnerID, args.TokenID); err != nil {
		return err
	}
	return h.ReturnJSON(&Token{TokenID: args.TokenID, OwnerID: args.TokenOwnerID})
}

// TokenView returns the token or null if it does not exist.
func TokenView(h *host.Host) error {
	var args tokenArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	owner, found, err := tokenOwner(h, args.TokenID)
	if err != nil {
		return err
	}
	if !found {
		return h.ReturnJSON(nil)
	}
	return h.ReturnJSON(&Token{TokenID: args.TokenID, OwnerID: owner})
}

func assertOneYocto(h *host.Host) error {
	deposit := h.AttachedDeposit()
	return h.Require(deposit.Eq(&vmcontext.OneYocto), "Requires attached deposit of exactly 1 yoctoNEAR")
}

// transfer moves [tokenID] from the predecessor to [receiver] and emits
// the transfer event. It returns the previous owner.
func transfer(h *host.Host, receiver vmcontext.AccountID, tokenID string, approvalID *uint64, memo *string) (vmcontext.AccountID, error) {
	sender := h.PredecessorAccountID()
	owner, found, err := tokenOwner(h, tokenID)
	if err != nil {
		return "", err
	}
	if err := h.Require(found, "Token not found"); err != nil {
		return "", err
	}
	// approvals are not supported, so only the owner may move the token
	if err := h.Require(sender == owner && approvalID == nil, "Unauthorized"); err != nil {
		return "", err
	}
	if err := h.Require(owner != receiver, "Current and next owner must differ"); err != nil {
		return "", err
	}
	if err := h.Require(receiver.Validate() == nil, "The account ID is invalid"); err != nil {
		return "", err
	}
	if err := setTokenOwner(h, tokenID, receiver); err != nil {
		return "", err
	}
	if err := emitTransfer(h, owner, receiver, tokenID, memo); err != nil {
		return "", err
	}
	return owner, nil
}

// Transfer moves a token owned by the predecessor to receiver_id.
func Transfer(h *host.Host) error {
	var args TransferArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	if err := assertOneYocto(h); err != nil {
		return err
	}
	_, err := transfer(h, args.ReceiverID, args.TokenID, args.ApprovalID, args.Memo)
	return err
}

// TransferCall moves a token to receiver_id, notifies the receiver with
// nft_on_transfer and resolves the outcome with nft_resolve_transfer. The
// call resolves to whether the receiver kept the token.
func TransferCall(h *host.Host) error {
	var args TransferCallArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	if err := assertOneYocto(h); err != nil {
		return err
	}
	if err := h.Require(h.PrepaidGas() > GasForTransferCall, "More gas is required"); err != nil {
		return err
	}

	h.Logger().Debug("transfer call", "token", args.TokenID, "receiver", args.ReceiverID, "phase", Transferring)
	previousOwner, err := transfer(h, args.ReceiverID, args.TokenID, args.ApprovalID, args.Memo)
	if err != nil {
		return err
	}

	onTransferArgs, err := json.Marshal(&OnTransferArgs{
		SenderID:        h.PredecessorAccountID(),
		PreviousOwnerID: previousOwner,
		TokenID:         args.TokenID,
		Msg:             args.Msg,
	})
	if err != nil {
		return h.Panic("Failed to serialize arguments")
	}
	onTransfer, err := h.PromiseCreate(
		args.ReceiverID,
		"nft_on_transfer",
		onTransferArgs,
		uint256.Int{},
		h.PrepaidGas()-GasForTransferCall,
	)
	if err != nil {
		return err
	}

	resolveArgs, err := json.Marshal(&ResolveTransferArgs{
		PreviousOwnerID: previousOwner,
		ReceiverID:      args.ReceiverID,
		TokenID:         args.TokenID,
	})
	if err != nil {
		return h.Panic("Failed to serialize arguments")
	}
	resolve, err := h.PromiseThen(
		onTransfer,
		h.CurrentAccountID(),
		"nft_resolve_transfer",
		resolveArgs,
		uint256.Int{},
		GasForResolveTransfer,
	)
	if err != nil {
		return err
	}
	h.Logger().Debug("transfer call", "token", args.TokenID, "receiver", args.ReceiverID, "phase", AwaitingReceiverResponse)
	return h.PromiseReturn(resolve)
}

// ResolveTransfer settles a transfer-and-call once the receiver responded.
// It returns the token to the previous owner unless the receiver answered
// false, and returns whether the receiver kept the token.
func ResolveTransfer(h *host.Host) error {
	var args ResolveTransferArgs
	if err := h.DecodeInput(&args); err != nil {
		return err
	}
	if err := h.Require(h.PredecessorAccountID() == h.CurrentAccountID(), "Method nft_resolve_transfer is private"); err != nil {
		return err
	}
	count, err := h.PromiseResultsCount()
	if err != nil {
		return err
	}
	if err := h.Require(count == 1, "Expected exactly one promise result"); err != nil {
		return err
	}
	result, err := h.PromiseResult(0)
	if err != nil {
		return err
	}

	phase := Classify(result)
	if !phase.Terminal() {
		return h.Panic("Receiver response is not ready")
	}
	h.Logger().Debug("transfer resolved", "token", args.TokenID, "receiver", args.ReceiverID, "phase", phase)
	if !phase.Returns() {
		return h.ReturnJSON(true)
	}

	// the receiver may have moved the token on already
	owner, found, err := tokenOwner(h, args.TokenID)
	if err != nil {
		return err
	}
	if !found || owner != args.ReceiverID {
		return h.ReturnJSON(true)
	}

	if err := setTokenOwner(h, args.TokenID, args.PreviousOwnerID); err != nil {
		return err
	}
	if err := emitTransfer(h, args.ReceiverID, args.PreviousOwnerID, args.TokenID, nil); err != nil {
		return err
	}
	return h.ReturnJSON(false)
}
