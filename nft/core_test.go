// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

const (
	tokenID     = "0"
	nftAccount  = vmcontext.AccountID("nft")
	receiverAcc = vmcontext.AccountID("receiver")
)

func mustJSON(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// nftBuilder returns a context for a call into the token contract made by
// the contract account itself with one yocto attached.
func nftBuilder(t *testing.T, args interface{}) *vmcontext.Builder {
	return vmcontext.NewBuilder().
		CurrentAccountID(nftAccount).
		SignerAccountID(nftAccount).
		PredecessorAccountID(nftAccount).
		AttachedDeposit(vmcontext.OneYocto).
		Input(mustJSON(t, args))
}

// deployToken initializes the token contract and mints the test token to [owner].
func deployToken(t *testing.T, owner vmcontext.AccountID) database.Database {
	require := require.New(t)

	h := host.New(nftBuilder(t, &initArgs{OwnerID: nftAccount}).Build())
	require.NoError(New(h))
	db, err := h.TakeStorage()
	require.NoError(err)

	h = host.New(nftBuilder(t, &mintArgs{TokenID: tokenID, TokenOwnerID: owner}).Build(), host.WithStorage(db))
	require.NoError(Mint(h))
	require.Len(h.Logs(), 1)
	db, err = h.TakeStorage()
	require.NoError(err)
	return db
}

func ownerOf(t *testing.T, db database.Database) vmcontext.AccountID {
	require := require.New(t)

	h := host.New(
		nftBuilder(t, &tokenArgs{TokenID: tokenID}).AttachedDeposit(uint256.Int{}).IsView(true).Build(),
		host.WithStorage(db),
	)
	require.NoError(TokenView(h))
	var token *Token
	require.NoError(json.Unmarshal(h.ReturnData(), &token))
	require.NotNil(token)
	return token.OwnerID
}

func TestInitAndMint(t *testing.T) {
	assert := assert.New(t)
	db := deployToken(t, nftAccount)
	assert.Equal(nftAccount, ownerOf(t, db))

	h := host.New(nftBuilder(t, &initArgs{OwnerID: "bob"}).Build(), host.WithStorage(db))
	assert.ErrorIs(New(h), host.NewError(host.GuestPanic, "Already initialized"))

	h = host.New(nftBuilder(t, &mintArgs{TokenID: tokenID, TokenOwnerID: "bob"}).Build(), host.WithStorage(db))
	assert.ErrorIs(Mint(h), host.NewError(host.GuestPanic, "token_id must be unique"))

	h = host.New(nftBuilder(t, &mintArgs{TokenID: "1", TokenOwnerID: "bob"}).PredecessorAccountID("bob").Build(), host.WithStorage(db))
	assert.ErrorIs(Mint(h), host.NewError(host.GuestPanic, "Unauthorized"))

	h = host.New(nftBuilder(t, &tokenArgs{TokenID: "missing"}).IsView(true).AttachedDeposit(uint256.Int{}).Build(), host.WithStorage(db))
	assert.NoError(TokenView(h))
	assert.Equal([]byte("null"), h.ReturnData())
}

func TestTransfer(t *testing.T) {
	assert := assert.New(t)
	db := deployToken(t, nftAccount)

	memo := "simple transfer"
	h := host.New(nftBuilder(t, &TransferArgs{ReceiverID: "alice", TokenID: tokenID, Memo: &memo}).Build(), host.WithStorage(db))
	assert.NoError(Transfer(h))
	assert.NoError(h.Commit())

	logs := h.Logs()
	assert.Len(logs, 1)
	var data []TransferData
	event, ok := ParseEvent(logs[0], &data)
	assert.True(ok)
	assert.Equal("nep171", event.Standard)
	assert.Equal("1.0.0", event.Version)
	assert.Equal("nft_transfer", event.Event)
	assert.Equal([]TransferData{{
		OldOwnerID: nftAccount,
		NewOwnerID: "alice",
		TokenIDs:   []string{tokenID},
		Memo:       &memo,
	}}, data)

	assert.Equal(vmcontext.AccountID("alice"), ownerOf(t, db))
}

func TestTransferValidation(t *testing.T) {
	approval := uint64(1)
	tests := []struct {
		name    string
		builder func(*vmcontext.Builder) *vmcontext.Builder
		args    TransferArgs
		msg     string
	}{
		{
			name:    "no deposit",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b.AttachedDeposit(uint256.Int{}) },
			args:    TransferArgs{ReceiverID: "alice", TokenID: tokenID},
			msg:     "Requires attached deposit of exactly 1 yoctoNEAR",
		},
		{
			name:    "two yocto",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b.AttachedDeposit(*uint256.NewInt(2)) },
			args:    TransferArgs{ReceiverID: "alice", TokenID: tokenID},
			msg:     "Requires attached deposit of exactly 1 yoctoNEAR",
		},
		{
			name:    "sender is not the owner",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b.PredecessorAccountID("bob") },
			args:    TransferArgs{ReceiverID: "alice", TokenID: tokenID},
			msg:     "Unauthorized",
		},
		{
			name:    "approval id",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b },
			args:    TransferArgs{ReceiverID: "alice", TokenID: tokenID, ApprovalID: &approval},
			msg:     "Unauthorized",
		},
		{
			name:    "receiver is the owner",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b },
			args:    TransferArgs{ReceiverID: nftAccount, TokenID: tokenID},
			msg:     "Current and next owner must differ",
		},
		{
			name:    "unknown token",
			builder: func(b *vmcontext.Builder) *vmcontext.Builder { return b },
			args:    TransferArgs{ReceiverID: "alice", TokenID: "42"},
			msg:     "Token not found",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			db := deployToken(t, nftAccount)

			h := host.New(test.builder(nftBuilder(t, &test.args)).Build(), host.WithStorage(db))
			err := Transfer(h)
			assert.ErrorIs(err, host.NewError(host.GuestPanic, test.msg))
			assert.Empty(h.Logs())
			h.Abort()

			assert.Equal(nftAccount, ownerOf(t, db))
		})
	}
}

func TestTransferCallCreatesReceipts(t *testing.T) {
	require := require.New(t)
	db := deployToken(t, nftAccount)

	args := &TransferCallArgs{ReceiverID: receiverAcc, TokenID: tokenID, Msg: MsgKeepNow}
	h := host.New(nftBuilder(t, args).Build(), host.WithStorage(db))
	require.NoError(TransferCall(h))
	require.Len(h.Logs(), 1)

	receipts := h.CreatedReceipts()
	require.Len(receipts, 2)

	onTransfer := receipts[0]
	require.Equal(receiverAcc, onTransfer.Receiver)
	require.Equal("nft_on_transfer", onTransfer.Method)
	require.Equal(vmcontext.MaxGas-GasForTransferCall, onTransfer.Gas)
	var onTransferArgs OnTransferArgs
	require.NoError(json.Unmarshal(onTransfer.Args, &onTransferArgs))
	require.Equal(OnTransferArgs{
		SenderID:        nftAccount,
		PreviousOwnerID: nftAccount,
		TokenID:         tokenID,
		Msg:             MsgKeepNow,
	}, onTransferArgs)

	resolve := receipts[1]
	require.Equal(nftAccount, resolve.Receiver)
	require.Equal("nft_resolve_transfer", resolve.Method)
	require.Equal(GasForResolveTransfer, resolve.Gas)
	require.Equal(0, resolve.Parent)

	idx, ok := h.ReturnedPromise()
	require.True(ok)
	require.Equal(1, idx)
}

func TestTransferCallGasThreshold(t *testing.T) {
	assert := assert.New(t)

	db := deployToken(t, nftAccount)
	args := &TransferCallArgs{ReceiverID: receiverAcc, TokenID: tokenID, Msg: "incorrect message"}
	h := host.New(nftBuilder(t, args).PrepaidGas(vmcontext.TGas(30)).Build(), host.WithStorage(db))
	assert.ErrorIs(TransferCall(h), host.NewError(host.GuestPanic, "More gas is required"))
	assert.Empty(h.Logs())
	assert.Empty(h.CreatedReceipts())
	h.Abort()
	assert.Equal(nftAccount, ownerOf(t, db))

	h = host.New(nftBuilder(t, args).PrepaidGas(vmcontext.TGas(35)+1).Build(), host.WithStorage(db))
	assert.NoError(TransferCall(h))
	receipts := h.CreatedReceipts()
	assert.Len(receipts, 2)
	assert.Equal(vmcontext.TGas(5)+1, receipts[0].Gas)
}

func TestResolveTransfer(t *testing.T) {
	tests := []struct {
		name     string
		result   host.PromiseResult
		moved    bool
		kept     bool
		owner    vmcontext.AccountID
		logCount int
	}{
		{
			name:   "receiver keeps",
			result: host.SuccessResult([]byte("false")),
			kept:   true,
			owner:  receiverAcc,
		},
		{
			name:     "receiver returns",
			result:   host.SuccessResult([]byte("true")),
			owner:    nftAccount,
			logCount: 1,
		},
		{
			name:     "receiver panicked",
			result:   host.FailedResult(),
			owner:    nftAccount,
			logCount: 1,
		},
		{
			name:     "malformed response",
			result:   host.SuccessResult([]byte(`"no"`)),
			owner:    nftAccount,
			logCount: 1,
		},
		{
			name:   "receiver moved the token on",
			result: host.FailedResult(),
			moved:  true,
			kept:   true,
			owner:  "charlie",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			owner := receiverAcc
			if test.moved {
				owner = "charlie"
			}
			db := deployToken(t, owner)

			args := &ResolveTransferArgs{PreviousOwnerID: nftAccount, ReceiverID: receiverAcc, TokenID: tokenID}
			h := host.New(
				nftBuilder(t, args).AttachedDeposit(uint256.Int{}).PrepaidGas(GasForResolveTransfer).Build(),
				host.WithStorage(db),
				host.WithPromiseResults(test.result),
			)
			require.NoError(h.UseGas(vmcontext.Gas(host.DefaultConfig().Fees.ContractCallBase)))
			require.NoError(ResolveTransfer(h))
			require.NoError(h.Commit())

			var kept bool
			require.NoError(json.Unmarshal(h.ReturnData(), &kept))
			require.Equal(test.kept, kept)
			require.Len(h.Logs(), test.logCount)
			require.Equal(test.owner, ownerOf(t, db))

			if test.logCount > 0 {
				var data []TransferData
				_, ok := ParseEvent(h.Logs()[0], &data)
				require.True(ok)
				require.Equal(receiverAcc, data[0].OldOwnerID)
				require.Equal(nftAccount, data[0].NewOwnerID)
				require.Nil(data[0].Memo)
			}
		})
	}
}

func TestResolveTransferIsPrivate(t *testing.T) {
	db := deployToken(t, receiverAcc)
	args := &ResolveTransferArgs{PreviousOwnerID: nftAccount, ReceiverID: receiverAcc, TokenID: tokenID}
	h := host.New(
		nftBuilder(t, args).PredecessorAccountID("bob").Build(),
		host.WithStorage(db),
		host.WithPromiseResults(host.FailedResult()),
	)
	require.ErrorIs(t, ResolveTransfer(h), host.NewError(host.GuestPanic, "Method nft_resolve_transfer is private"))
}

func TestResolveTransferRejectsPendingResponse(t *testing.T) {
	require := require.New(t)

	db := deployToken(t, receiverAcc)
	args := &ResolveTransferArgs{PreviousOwnerID: nftAccount, ReceiverID: receiverAcc, TokenID: tokenID}
	h := host.New(
		nftBuilder(t, args).AttachedDeposit(uint256.Int{}).PrepaidGas(GasForResolveTransfer).Build(),
		host.WithStorage(db),
		host.WithPromiseResults(host.NotReadyResult()),
	)
	require.ErrorIs(ResolveTransfer(h), host.NewError(host.GuestPanic, "Receiver response is not ready"))
	require.Nil(h.ReturnData())
	require.Empty(h.Logs())

	h.Abort()
	require.Equal(receiverAcc, ownerOf(t, db))
}

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ResolvedKeep, Classify(host.SuccessResult([]byte("false"))))
	assert.Equal(ResolvedReturn, Classify(host.SuccessResult([]byte("true"))))
	assert.Equal(ResolvedReturn, Classify(host.SuccessResult(nil)))
	assert.Equal(ResolvedPanicKeep, Classify(host.FailedResult()))
	assert.Equal(AwaitingReceiverResponse, Classify(host.NotReadyResult()))

	assert.True(ResolvedPanicKeep.Returns())
	assert.False(ResolvedKeep.Returns())
	assert.True(ResolvedKeep.Terminal())
	assert.False(Transferring.Terminal())
	assert.Equal("ResolvedPanicKeep", ResolvedPanicKeep.String())
	assert.Equal("Unknown", Phase(42).String())
}

func TestParseEventIgnoresPlainLogs(t *testing.T) {
	_, ok := ParseEvent("ok_go is called", nil)
	assert.False(t, ok)
}
