// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ava-labs/contractvm/nft"
	"github.com/ava-labs/contractvm/resolver"
	"github.com/ava-labs/contractvm/vmcontext"
)

func newTestService(t *testing.T) *Service {
	require := require.New(t)

	r, err := resolver.New()
	require.NoError(err)
	sb := New(r, nft.Contract, nft.Receiver)
	require.NoError(sb.Genesis([]resolver.GenesisAccount{
		{ID: "nft", Balance: vmcontext.NearTokens(100)},
		{ID: "alice", Balance: vmcontext.NearTokens(100)},
	}))
	return &Service{sb: sb}
}

func TestDeployAndCall(t *testing.T) {
	defer goleak.VerifyNone(t)
	require := require.New(t)
	s := newTestService(t)

	require.NoError(s.Deploy(&http.Request{}, &DeployArgs{AccountID: "nft", Contract: "non-fungible-token"}, &api.SuccessResponse{}))
	err := s.Deploy(&http.Request{}, &DeployArgs{AccountID: "nft", Contract: "missing"}, &api.SuccessResponse{})
	require.ErrorIs(err, errUnknownContract)

	reply := OutcomeReply{}
	require.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "nft",
		Receiver: "nft",
		Method:   "new",
		Args:     `{"owner_id":"nft"}`,
	}, &reply))
	require.Equal("Successful", reply.Status)

	require.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "nft",
		Receiver: "nft",
		Method:   "nft_mint",
		Args:     `{"token_id":"0","token_owner_id":"nft"}`,
	}, &reply))
	require.Equal("Successful", reply.Status)
	require.Len(reply.Logs, 1)

	reply = OutcomeReply{}
	require.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "nft",
		Receiver: "nft",
		Method:   "nft_transfer",
		Args:     `{"receiver_id":"alice","token_id":"0"}`,
		Deposit:  "1",
	}, &reply))
	require.Equal("Successful", reply.Status)
	require.Len(reply.Receipts, 1)
	require.Equal("nft_transfer", reply.Receipts[0].Method)

	cached := OutcomeReply{}
	require.NoError(s.GetOutcome(&http.Request{}, &GetOutcomeArgs{TxID: reply.TxID}, &cached))
	require.Equal(reply, cached)

	view := ViewReply{}
	require.NoError(s.View(&http.Request{}, &ViewArgs{AccountID: "nft", Method: "nft_token", Args: `{"token_id":"0"}`}, &view))
	require.JSONEq(`{"token_id":"0","owner_id":"alice"}`, view.Value)
}

func TestFailedCallReply(t *testing.T) {
	assert := assert.New(t)
	s := newTestService(t)
	assert.NoError(s.Deploy(&http.Request{}, &DeployArgs{AccountID: "nft", Contract: "non-fungible-token"}, &api.SuccessResponse{}))

	reply := OutcomeReply{}
	assert.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "alice",
		Receiver: "nft",
		Method:   "nft_transfer",
		Args:     `{"receiver_id":"alice","token_id":"0"}`,
	}, &reply))
	assert.Equal("Failed", reply.Status)
	assert.Contains(reply.Failure, "Requires attached deposit of exactly 1 yoctoNEAR")
	assert.Empty(reply.Logs)

	assert.Error(s.Call(&http.Request{}, &CallArgs{Signer: "alice", Receiver: "nft", Method: "new", Deposit: "-1"}, &reply))
	assert.Error(s.Call(&http.Request{}, &CallArgs{Signer: "nobody", Receiver: "nft", Method: "new"}, &reply))

	err := s.GetOutcome(&http.Request{}, &GetOutcomeArgs{TxID: resolver.FormatID([32]byte{1})}, &reply)
	assert.ErrorIs(err, errUnknownOutcome)
}

func TestAccountsAndState(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	created := api.SuccessResponse{}
	require.NoError(s.CreateAccount(&http.Request{}, &CreateAccountArgs{AccountID: "receiver", Balance: "1000"}, &created))
	require.True(created.Success)
	require.Error(s.CreateAccount(&http.Request{}, &CreateAccountArgs{AccountID: "receiver", Balance: "1000"}, &api.SuccessResponse{}))
	require.Error(s.CreateAccount(&http.Request{}, &CreateAccountArgs{AccountID: "other", Balance: "lots"}, &api.SuccessResponse{}))

	account := AccountReply{}
	require.NoError(s.ViewAccount(&http.Request{}, &AccountArgs{AccountID: "receiver"}, &account))
	require.Equal("1000", account.Balance)
	require.Equal("0", account.LockedBalance)

	deployed := api.SuccessResponse{}
	require.NoError(s.Deploy(&http.Request{}, &DeployArgs{AccountID: "receiver", Contract: "token-receiver"}, &deployed))
	require.True(deployed.Success)
	reply := OutcomeReply{}
	require.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "receiver",
		Receiver: "receiver",
		Method:   "new",
		Args:     `{"non_fungible_token_account_id":"nft"}`,
	}, &reply))
	require.Equal("Successful", reply.Status, reply.Failure)

	prefix, err := formatting.EncodeWithChecksum(formatting.Hex, []byte("nft"))
	require.NoError(err)
	state := ViewStateReply{}
	require.NoError(s.ViewState(&http.Request{}, &ViewStateArgs{AccountID: "receiver", Prefix: prefix}, &state))
	require.Len(state.Entries, 1)
	value, err := formatting.Decode(formatting.Hex, state.Entries[0].Value)
	require.NoError(err)
	require.Equal([]byte("nft"), value)

	// prefixes must carry the checksum the service encodes with
	err = s.ViewState(&http.Request{}, &ViewStateArgs{AccountID: "receiver", Prefix: "0x6e6674"}, &state)
	require.Error(err)

	require.NoError(s.ViewAccount(&http.Request{}, &AccountArgs{AccountID: "receiver"}, &account))
	require.NotZero(uint64(account.StorageUsage))
}

func TestGenesisRunsOnce(t *testing.T) {
	require := require.New(t)

	r, err := resolver.New()
	require.NoError(err)
	sb := New(r)
	require.NoError(sb.Genesis([]resolver.GenesisAccount{{ID: "alice", Balance: vmcontext.NearTokens(1)}}))
	require.NoError(sb.Genesis([]resolver.GenesisAccount{{ID: "alice", Balance: vmcontext.NearTokens(1)}}))

	_, err = sb.Handler()
	require.NoError(err)
}

func TestTraceWritesReceiptTable(t *testing.T) {
	require := require.New(t)
	s := newTestService(t)

	var trace bytes.Buffer
	s.sb.SetTrace(&trace)
	require.NoError(s.Deploy(&http.Request{}, &DeployArgs{AccountID: "nft", Contract: "non-fungible-token"}, &api.SuccessResponse{}))

	reply := OutcomeReply{}
	require.NoError(s.Call(&http.Request{}, &CallArgs{
		Signer:   "nft",
		Receiver: "nft",
		Method:   "new",
		Args:     `{"owner_id":"nft"}`,
	}, &reply))
	require.Contains(trace.String(), reply.TxID[:8])
	require.Contains(trace.String(), "new")
}
