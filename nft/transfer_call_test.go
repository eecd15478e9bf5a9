// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/resolver"
	"github.com/ava-labs/contractvm/vmcontext"
)

// initializedContracts deploys the token contract on nft with the test token
// owned by nft, a plain alice account and the receiver contract on receiver.
func initializedContracts(t *testing.T) *resolver.Resolver {
	require := require.New(t)

	r, err := resolver.New()
	require.NoError(err)
	for _, id := range []vmcontext.AccountID{nftAccount, "alice", receiverAcc} {
		require.NoError(r.CreateAccount(id, vmcontext.NearTokens(100)))
	}
	require.NoError(r.Deploy(nftAccount, Contract))
	require.NoError(r.Deploy(receiverAcc, Receiver))

	setup := []resolver.Transaction{
		{Signer: nftAccount, Receiver: nftAccount, Method: "new", Args: mustJSON(t, &initArgs{OwnerID: nftAccount})},
		{Signer: nftAccount, Receiver: nftAccount, Method: "nft_mint", Args: mustJSON(t, &mintArgs{TokenID: tokenID, TokenOwnerID: nftAccount})},
		{Signer: receiverAcc, Receiver: receiverAcc, Method: "new", Args: mustJSON(t, &receiverInitArgs{NonFungibleTokenAccountID: nftAccount})},
	}
	for _, tx := range setup {
		tx.Gas = vmcontext.MaxGas
		outcome, err := r.Call(tx)
		require.NoError(err)
		require.True(outcome.IsSuccess(), "%s: %v", tx.Method, outcome.Failure)
	}
	return r
}

func tokenOwnerOf(t *testing.T, r *resolver.Resolver) vmcontext.AccountID {
	require := require.New(t)

	result, err := r.View(nftAccount, "nft_token", mustJSON(t, &tokenArgs{TokenID: tokenID}))
	require.NoError(err)
	var token Token
	require.NoError(result.JSON(&token))
	return token.OwnerID
}

func transferCall(t *testing.T, msg string, gas vmcontext.Gas) resolver.Transaction {
	memo := "transfer & call"
	return resolver.Transaction{
		Signer:   nftAccount,
		Receiver: nftAccount,
		Method:   "nft_transfer_call",
		Args: mustJSON(t, &TransferCallArgs{
			ReceiverID: receiverAcc,
			TokenID:    tokenID,
			Memo:       &memo,
			Msg:        msg,
		}),
		Deposit: vmcontext.OneYocto,
		Gas:     gas,
	}
}

// assertFiredOnce checks that no receipt of [outcome] executed twice.
func assertFiredOnce(t *testing.T, outcome *resolver.Outcome) {
	fired := ids.NewSet(len(outcome.Receipts))
	for _, receipt := range outcome.Receipts {
		assert.False(t, fired.Contains(receipt.ID), "receipt %s executed twice", resolver.FormatID(receipt.ID))
		fired.Add(receipt.ID)
	}
}

func TestSimpleTransfer(t *testing.T) {
	assert := assert.New(t)
	r := initializedContracts(t)
	assert.Equal(nftAccount, tokenOwnerOf(t, r))

	memo := "simple transfer"
	outcome, err := r.Call(resolver.Transaction{
		Signer:   nftAccount,
		Receiver: nftAccount,
		Method:   "nft_transfer",
		Args:     mustJSON(t, &TransferArgs{ReceiverID: "alice", TokenID: tokenID, Memo: &memo}),
		Deposit:  vmcontext.OneYocto,
		Gas:      vmcontext.MaxGas,
	})
	assert.NoError(err)
	assert.True(outcome.IsSuccess())
	assert.Len(outcome.Logs(), 1)
	assert.Equal(vmcontext.AccountID("alice"), tokenOwnerOf(t, r))
}

func TestSimpleTransferNoLogsOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		receiver vmcontext.AccountID
		deposit  uint256.Int
	}{
		{name: "transfer to the current owner", receiver: nftAccount, deposit: vmcontext.OneYocto},
		{name: "no deposit", receiver: "alice"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			r := initializedContracts(t)

			outcome, err := r.Call(resolver.Transaction{
				Signer:   nftAccount,
				Receiver: nftAccount,
				Method:   "nft_transfer",
				Args:     mustJSON(t, &TransferArgs{ReceiverID: test.receiver, TokenID: tokenID}),
				Deposit:  test.deposit,
				Gas:      vmcontext.TGas(200),
			})
			assert.NoError(err)
			assert.True(outcome.IsFailure())
			assert.Empty(outcome.Logs())
			assert.Equal(nftAccount, tokenOwnerOf(t, r))
		})
	}
}

func TestTransferCall(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		gas      vmcontext.Gas
		success  bool
		kept     bool
		owner    vmcontext.AccountID
		logCount int
		receipts int
	}{
		{
			name:     "fast return to sender",
			msg:      MsgReturnNow,
			gas:      vmcontext.MaxGas,
			success:  true,
			owner:    nftAccount,
			logCount: 3,
			receipts: 3,
		},
		{
			name:     "slow return to sender",
			msg:      MsgReturnLater,
			gas:      vmcontext.MaxGas,
			success:  true,
			owner:    nftAccount,
			logCount: 4,
			receipts: 4,
		},
		{
			name:     "fast keep with receiver",
			msg:      MsgKeepNow,
			gas:      vmcontext.MaxGas,
			success:  true,
			kept:     true,
			owner:    receiverAcc,
			logCount: 2,
			receipts: 3,
		},
		{
			name:     "slow keep with receiver",
			msg:      MsgKeepLater,
			gas:      vmcontext.MaxGas,
			success:  true,
			kept:     true,
			owner:    receiverAcc,
			logCount: 3,
			receipts: 4,
		},
		{
			name:     "receiver panics",
			msg:      "incorrect message",
			gas:      vmcontext.TGas(35) + 1,
			success:  true,
			owner:    nftAccount,
			logCount: 3,
			receipts: 3,
		},
		{
			name:     "receiver panics without gas for the resolve callback",
			msg:      "incorrect message",
			gas:      vmcontext.TGas(30),
			owner:    nftAccount,
			receipts: 1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			r := initializedContracts(t)

			outcome, err := r.Call(transferCall(t, test.msg, test.gas))
			assert.NoError(err)
			assert.Equal(test.success, outcome.IsSuccess())
			assert.Len(outcome.Logs(), test.logCount)
			assert.Len(outcome.Receipts, test.receipts)
			assert.Equal(test.owner, tokenOwnerOf(t, r))
			assertFiredOnce(t, outcome)

			if test.success {
				var kept bool
				assert.NoError(outcome.JSON(&kept))
				assert.Equal(test.kept, kept)
			}
		})
	}
}

func TestTransferCallReceiverPanicIsReported(t *testing.T) {
	require := require.New(t)
	r := initializedContracts(t)

	outcome, err := r.Call(transferCall(t, "incorrect message", vmcontext.TGas(35)+1))
	require.NoError(err)
	require.Len(outcome.Receipts, 3)

	onTransfer := outcome.Receipts[1]
	require.Equal("nft_on_transfer", onTransfer.Method)
	require.Equal(host.Failed, onTransfer.Status)
	require.ErrorIs(onTransfer.Err, host.NewError(host.GuestPanic, "unsupported msg"))
	require.Len(onTransfer.Logs, 1)

	resolve := outcome.Receipts[2]
	require.Equal("nft_resolve_transfer", resolve.Method)
	require.Equal(host.Successful, resolve.Status)
	require.Len(resolve.Logs, 1)
	var data []TransferData
	_, ok := ParseEvent(resolve.Logs[0], &data)
	require.True(ok)
	require.Equal(receiverAcc, data[0].OldOwnerID)
	require.Equal(nftAccount, data[0].NewOwnerID)
}

func TestTransferCallGasFailureRefundsDeposit(t *testing.T) {
	require := require.New(t)
	r := initializedContracts(t)

	before, err := r.Account(nftAccount)
	require.NoError(err)

	outcome, err := r.Call(transferCall(t, MsgKeepNow, vmcontext.TGas(30)))
	require.NoError(err)
	require.True(outcome.IsFailure())
	require.ErrorIs(outcome.Failure, host.NewError(host.GuestPanic, "More gas is required"))

	after, err := r.Account(nftAccount)
	require.NoError(err)
	require.Equal(before.Balance, after.Balance)
}

func TestResolveTransferIsNotCallable(t *testing.T) {
	require := require.New(t)
	r := initializedContracts(t)

	outcome, err := r.Call(resolver.Transaction{
		Signer:   "alice",
		Receiver: nftAccount,
		Method:   "nft_resolve_transfer",
		Args: mustJSON(t, &ResolveTransferArgs{
			PreviousOwnerID: "alice",
			ReceiverID:      nftAccount,
			TokenID:         tokenID,
		}),
		Gas: vmcontext.MaxGas,
	})
	require.NoError(err)
	require.True(outcome.IsFailure())
	require.Empty(outcome.Logs())
	require.Equal(nftAccount, tokenOwnerOf(t, r))
}
