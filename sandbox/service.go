// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"net/http"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/contractvm/resolver"
	"github.com/ava-labs/contractvm/vmcontext"
)

// Service is the API service of the sandbox
type Service struct{ sb *Sandbox }

// CreateAccountArgs are the arguments to CreateAccount
type CreateAccountArgs struct {
	AccountID string `json:"accountID"`
	// Balance in yocto, as a decimal string
	Balance string `json:"balance"`
}

// CreateAccount creates an account with no code
func (s *Service) CreateAccount(_ *http.Request, args *CreateAccountArgs, reply *api.SuccessResponse) error {
	balance, err := vmcontext.ParseBalance(args.Balance)
	if err != nil {
		return err
	}

	s.sb.lock.Lock()
	defer s.sb.lock.Unlock()
	if err := s.sb.resolver.CreateAccount(vmcontext.AccountID(args.AccountID), balance); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// DeployArgs are the arguments to Deploy
type DeployArgs struct {
	AccountID string `json:"accountID"`
	// Contract is the name of a contract known to the sandbox
	Contract string `json:"contract"`
}

// Deploy installs a known contract on an account
func (s *Service) Deploy(_ *http.Request, args *DeployArgs, reply *api.SuccessResponse) error {
	contract, err := s.sb.contract(args.Contract)
	if err != nil {
		return err
	}

	s.sb.lock.Lock()
	defer s.sb.lock.Unlock()
	if err := s.sb.resolver.Deploy(vmcontext.AccountID(args.AccountID), contract); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// CallArgs are the arguments to Call
type CallArgs struct {
	Signer   string `json:"signer"`
	Receiver string `json:"receiver"`
	Method   string `json:"method"`
	// Args is the JSON encoded argument object
	Args    string      `json:"args"`
	Deposit string      `json:"deposit"`
	Gas     json.Uint64 `json:"gas"`
}

// ReceiptReply is the trace of one executed receipt
type ReceiptReply struct {
	ID          string      `json:"id"`
	Predecessor string      `json:"predecessor"`
	Receiver    string      `json:"receiver"`
	Method      string      `json:"method"`
	Height      json.Uint64 `json:"height"`
	Logs        []string    `json:"logs"`
	GasBurnt    json.Uint64 `json:"gasBurnt"`
	Status      string      `json:"status"`
	Error       string      `json:"error,omitempty"`
}

// OutcomeReply is the result of a transaction
type OutcomeReply struct {
	TxID     string         `json:"txID"`
	Status   string         `json:"status"`
	Value    string         `json:"value"`
	Failure  string         `json:"failure,omitempty"`
	Logs     []string       `json:"logs"`
	Receipts []ReceiptReply `json:"receipts"`
}

func newOutcomeReply(outcome *resolver.Outcome, reply *OutcomeReply) {
	reply.TxID = resolver.FormatID(outcome.TxID)
	reply.Status = outcome.Status.String()
	reply.Value = string(outcome.Value)
	if outcome.Failure != nil {
		reply.Failure = outcome.Failure.Error()
	}
	reply.Logs = outcome.Logs()
	reply.Receipts = make([]ReceiptReply, len(outcome.Receipts))
	for i, r := range outcome.Receipts {
		reply.Receipts[i] = ReceiptReply{
			ID:          resolver.FormatID(r.ID),
			Predecessor: r.Predecessor.String(),
			Receiver:    r.Receiver.String(),
			Method:      r.Method,
			Height:      json.Uint64(r.Height),
			Logs:        r.Logs,
			GasBurnt:    json.Uint64(r.GasBurnt),
			Status:      r.Status.String(),
		}
		if r.Err != nil {
			reply.Receipts[i].Error = r.Err.Error()
		}
	}
}

// Call submits a transaction and returns its outcome
func (s *Service) Call(_ *http.Request, args *CallArgs, reply *OutcomeReply) error {
	deposit := vmcontext.NearTokens(0)
	if args.Deposit != "" {
		var err error
		deposit, err = vmcontext.ParseBalance(args.Deposit)
		if err != nil {
			return err
		}
	}
	gas := vmcontext.Gas(args.Gas)
	if gas == 0 {
		gas = vmcontext.MaxGas
	}

	outcome, err := s.sb.call(resolver.Transaction{
		Signer:   vmcontext.AccountID(args.Signer),
		Receiver: vmcontext.AccountID(args.Receiver),
		Method:   args.Method,
		Args:     []byte(args.Args),
		Deposit:  deposit,
		Gas:      gas,
	})
	if err != nil {
		return err
	}
	newOutcomeReply(outcome, reply)
	return nil
}

// GetOutcomeArgs are the arguments to GetOutcome
type GetOutcomeArgs struct {
	TxID string `json:"txID"`
}

// GetOutcome returns the outcome of a recent transaction
func (s *Service) GetOutcome(_ *http.Request, args *GetOutcomeArgs, reply *OutcomeReply) error {
	txID, err := resolver.ParseID(args.TxID)
	if err != nil {
		return err
	}
	outcome, err := s.sb.outcome(txID)
	if err != nil {
		return err
	}
	newOutcomeReply(outcome, reply)
	return nil
}

// ViewArgs are the arguments to View
type ViewArgs struct {
	AccountID string `json:"accountID"`
	Method    string `json:"method"`
	Args      string `json:"args"`
}

// ViewReply is the result of a view call
type ViewReply struct {
	Value string   `json:"value"`
	Logs  []string `json:"logs"`
}

// View runs a read only method
func (s *Service) View(_ *http.Request, args *ViewArgs, reply *ViewReply) error {
	s.sb.lock.Lock()
	defer s.sb.lock.Unlock()

	result, err := s.sb.resolver.View(vmcontext.AccountID(args.AccountID), args.Method, []byte(args.Args))
	if err != nil {
		return err
	}
	reply.Value = string(result.Value)
	reply.Logs = result.Logs
	return nil
}

// AccountArgs are the arguments to ViewAccount
type AccountArgs struct {
	AccountID string `json:"accountID"`
}

// AccountReply describes an account
type AccountReply struct {
	AccountID     string      `json:"accountID"`
	Balance       string      `json:"balance"`
	LockedBalance string      `json:"lockedBalance"`
	StorageUsage  json.Uint64 `json:"storageUsage"`
	CodeHash      ids.ID      `json:"codeHash"`
}

// ViewAccount returns an account
func (s *Service) ViewAccount(_ *http.Request, args *AccountArgs, reply *AccountReply) error {
	s.sb.lock.Lock()
	defer s.sb.lock.Unlock()

	acc, err := s.sb.resolver.Account(vmcontext.AccountID(args.AccountID))
	if err != nil {
		return err
	}
	reply.AccountID = acc.ID.String()
	reply.Balance = vmcontext.FormatBalance(acc.Balance)
	reply.LockedBalance = vmcontext.FormatBalance(acc.LockedBalance)
	reply.StorageUsage = json.Uint64(acc.StorageUsage)
	reply.CodeHash = acc.CodeHash
	return nil
}

// ViewStateArgs are the arguments to ViewState
type ViewStateArgs struct {
	AccountID string `json:"accountID"`
	// Prefix is hex encoded with a checksum
	Prefix string `json:"prefix"`
}

// StateEntry is a storage entry, hex encoded with a checksum
type StateEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ViewStateReply is the reply from ViewState
type ViewStateReply struct {
	Entries []StateEntry `json:"entries"`
}

// ViewState returns the storage entries of an account
func (s *Service) ViewState(_ *http.Request, args *ViewStateArgs, reply *ViewStateReply) error {
	var prefix []byte
	if args.Prefix != "" {
		var err error
		prefix, err = formatting.Decode(formatting.Hex, args.Prefix)
		if err != nil {
			return err
		}
	}

	s.sb.lock.Lock()
	defer s.sb.lock.Unlock()

	items, err := s.sb.resolver.ViewState(vmcontext.AccountID(args.AccountID), prefix)
	if err != nil {
		return err
	}
	reply.Entries = make([]StateEntry, len(items))
	for i, item := range items {
		key, err := formatting.EncodeWithChecksum(formatting.Hex, item.Key)
		if err != nil {
			return err
		}
		value, err := formatting.EncodeWithChecksum(formatting.Hex, item.Value)
		if err != nil {
			return err
		}
		reply.Entries[i] = StateEntry{Key: key, Value: value}
	}
	return nil
}
