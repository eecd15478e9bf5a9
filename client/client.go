// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/sandbox"
	"github.com/ava-labs/contractvm/vmcontext"
)

// Client defines sandbox client operations.
type Client interface {
	// CreateAccount creates [accountID] holding [balance]
	CreateAccount(ctx context.Context, accountID vmcontext.AccountID, balance uint256.Int) error

	// Deploy installs the contract registered as [contract] on [accountID]
	Deploy(ctx context.Context, accountID vmcontext.AccountID, contract string) error

	// Call submits a transaction and waits for all of its receipts
	Call(ctx context.Context, args *sandbox.CallArgs) (*sandbox.OutcomeReply, error)

	// GetOutcome fetches the outcome of a recent transaction
	GetOutcome(ctx context.Context, txID string) (*sandbox.OutcomeReply, error)

	// View runs a read only method of [accountID]
	View(ctx context.Context, accountID vmcontext.AccountID, method string, args []byte) (*sandbox.ViewReply, error)

	// ViewAccount fetches an account
	ViewAccount(ctx context.Context, accountID vmcontext.AccountID) (*sandbox.AccountReply, error)

	// ViewState fetches the storage entries of [accountID] starting with [prefix]
	ViewState(ctx context.Context, accountID vmcontext.AccountID, prefix []byte) (map[string][]byte, error)
}

// New creates a new client object talking to the sandbox served by [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, sandbox.Endpoint, sandbox.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) CreateAccount(ctx context.Context, accountID vmcontext.AccountID, balance uint256.Int) error {
	return cli.req.SendRequest(ctx,
		"createAccount",
		&sandbox.CreateAccountArgs{AccountID: accountID.String(), Balance: vmcontext.FormatBalance(balance)},
		&api.SuccessResponse{},
	)
}

func (cli *client) Deploy(ctx context.Context, accountID vmcontext.AccountID, contract string) error {
	return cli.req.SendRequest(ctx,
		"deploy",
		&sandbox.DeployArgs{AccountID: accountID.String(), Contract: contract},
		&api.SuccessResponse{},
	)
}

func (cli *client) Call(ctx context.Context, args *sandbox.CallArgs) (*sandbox.OutcomeReply, error) {
	resp := new(sandbox.OutcomeReply)
	return resp, cli.req.SendRequest(ctx, "call", args, resp)
}

func (cli *client) GetOutcome(ctx context.Context, txID string) (*sandbox.OutcomeReply, error) {
	resp := new(sandbox.OutcomeReply)
	return resp, cli.req.SendRequest(ctx, "getOutcome", &sandbox.GetOutcomeArgs{TxID: txID}, resp)
}

func (cli *client) View(ctx context.Context, accountID vmcontext.AccountID, method string, args []byte) (*sandbox.ViewReply, error) {
	resp := new(sandbox.ViewReply)
	err := cli.req.SendRequest(ctx,
		"view",
		&sandbox.ViewArgs{AccountID: accountID.String(), Method: method, Args: string(args)},
		resp,
	)
	return resp, err
}

func (cli *client) ViewAccount(ctx context.Context, accountID vmcontext.AccountID) (*sandbox.AccountReply, error) {
	resp := new(sandbox.AccountReply)
	return resp, cli.req.SendRequest(ctx, "viewAccount", &sandbox.AccountArgs{AccountID: accountID.String()}, resp)
}

func (cli *client) ViewState(ctx context.Context, accountID vmcontext.AccountID, prefix []byte) (map[string][]byte, error) {
	hexPrefix, err := formatting.EncodeWithChecksum(formatting.Hex, prefix)
	if err != nil {
		return nil, err
	}

	resp := new(sandbox.ViewStateReply)
	err = cli.req.SendRequest(ctx,
		"viewState",
		&sandbox.ViewStateArgs{AccountID: accountID.String(), Prefix: hexPrefix},
		resp,
	)
	if err != nil {
		return nil, err
	}

	entries := make(map[string][]byte, len(resp.Entries))
	for _, entry := range resp.Entries {
		key, err := formatting.Decode(formatting.Hex, entry.Key)
		if err != nil {
			return nil, err
		}
		value, err := formatting.Decode(formatting.Hex, entry.Value)
		if err != nil {
			return nil, err
		}
		entries[string(key)] = value
	}
	return entries, nil
}
