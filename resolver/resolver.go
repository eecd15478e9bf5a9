// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

const (
	// genesisTimestamp is the block timestamp at height 0, in nanoseconds.
	genesisTimestamp uint64 = 1_600_000_000_000_000_000
	blockInterval    uint64 = 1_000_000_000
	epochLength      uint64 = 43_200
)

var (
	// ErrReceiptAlreadyExecuted is returned when a receipt is scheduled
	// for a second execution.
	ErrReceiptAlreadyExecuted = errors.New("receipt already executed")
	// ErrUnresolvedReceipts is returned when pending receipts can make no
	// progress.
	ErrUnresolvedReceipts = errors.New("receipts left unresolved")

	errAccountExists       = errors.New("account already exists")
	errUnknownAccount      = errors.New("account does not exist")
	errEmptyContractName   = errors.New("contract name is empty")
	errGasAboveMax         = errors.New("attached gas exceeds the maximum")
	errInsufficientBalance = errors.New("signer balance is below the attached deposit")
	errEmptyMethod         = errors.New("method name is empty")
	errViewFailed          = errors.New("view call failed")
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithConfig sets the fee schedule and limits every frame runs under.
func WithConfig(config host.Config) Option {
	return func(r *Resolver) { r.config = config }
}

// WithRegisterer registers the resolver metrics with [registerer].
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(r *Resolver) { r.registerer = registerer }
}

// WithLogger sets the logger receipt execution is traced to. Without it
// nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) { r.log = logger }
}

// WithValidators sets the validator stakes every frame observes.
func WithValidators(stakes map[vmcontext.AccountID]uint256.Int) Option {
	return func(r *Resolver) { r.validators = stakes }
}

// WithDatabase backs the resolver state with [db] instead of an in-memory table.
func WithDatabase(db database.Database) Option {
	return func(r *Resolver) { r.db = db }
}

// Resolver is a single-node mocked blockchain. It owns every account and
// its contract storage, and resolves the receipts a transaction produces
// in creation order.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	config     host.Config
	registerer prometheus.Registerer
	log        log.Logger
	db         database.Database
	validators map[vmcontext.AccountID]uint256.Int

	state     State
	contracts map[ids.ID]*host.Contract
	metrics   *metrics

	// height of the last produced block
	height uint64
}

// New returns a resolver with no accounts.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		config:     host.DefaultConfig(),
		registerer: prometheus.NewRegistry(),
		log:        host.NewDiscardLogger("module", "resolver"),
		contracts:  make(map[ids.ID]*host.Contract),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.db == nil {
		r.db = memdb.New()
	}
	r.state = NewState(r.db)

	m, err := newMetrics(r.registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	r.metrics = m
	return r, nil
}

// Config returns the fee schedule and limits frames run under.
func (r *Resolver) Config() host.Config { return r.config }

// Height returns the height of the last produced block.
func (r *Resolver) Height() uint64 { return r.height }

// CreateAccount creates [id] holding [balance].
func (r *Resolver) CreateAccount(id vmcontext.AccountID, balance uint256.Int) error {
	if err := id.Validate(); err != nil {
		return err
	}
	exists, err := r.state.HasAccount(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", errAccountExists, id)
	}
	if err := r.state.PutAccount(&Account{ID: id, Balance: balance}); err != nil {
		r.state.Abort()
		return err
	}
	r.log.Debug("account created", "account", id, "balance", vmcontext.FormatBalance(balance))
	return r.state.Commit()
}

// Deploy installs [contract] on the existing account [id], replacing any
// previously deployed code. Storage is kept.
func (r *Resolver) Deploy(id vmcontext.AccountID, contract *host.Contract) error {
	if contract.Name == "" {
		return errEmptyContractName
	}
	acc, err := r.Account(id)
	if err != nil {
		return err
	}
	codeHash := hashing.ComputeHash256Array([]byte(contract.Name))
	r.contracts[codeHash] = contract
	acc.CodeHash = codeHash
	if err := r.state.PutAccount(acc); err != nil {
		r.state.Abort()
		return err
	}
	r.log.Debug("contract deployed", "account", id, "contract", contract.Name)
	return r.state.Commit()
}

// Account returns a copy of the account [id].
func (r *Resolver) Account(id vmcontext.AccountID) (*Account, error) {
	acc, err := r.state.GetAccount(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", errUnknownAccount, id)
	}
	return acc, err
}

// StateItem is one entry of a contract storage table.
type StateItem struct {
	Key   []byte
	Value []byte
}

// ViewState returns the storage entries of [id] whose key starts with
// [prefix], in ascending key order.
func (r *Resolver) ViewState(id vmcontext.AccountID, prefix []byte) ([]StateItem, error) {
	if _, err := r.Account(id); err != nil {
		return nil, err
	}
	it := r.state.ContractStorage(id).NewIteratorWithPrefix(prefix)
	defer it.Release()

	var items []StateItem
	for it.Next() {
		items = append(items, StateItem{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	return items, it.Error()
}

// method returns the method [method] of the contract deployed on [acc].
func (r *Resolver) method(acc *Account, method string) (host.Method, error) {
	if !acc.HasCode() {
		return nil, host.NewError(host.CodeDoesNotExist, "%s", acc.ID)
	}
	contract, ok := r.contracts[acc.CodeHash]
	if !ok {
		return nil, host.NewError(host.CodeDoesNotExist, "%s", acc.ID)
	}
	m, ok := contract.Methods[method]
	if !ok {
		return nil, host.NewError(host.MethodNotFound, "%s", method)
	}
	return m, nil
}

// Call submits [tx] and resolves every receipt it produces. Contract
// failures are reported in the Outcome. The returned error is reserved for
// transactions that cannot be submitted at all.
func (r *Resolver) Call(tx Transaction) (*Outcome, error) {
	if err := tx.Signer.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Receiver.Validate(); err != nil {
		return nil, err
	}
	if tx.Method == "" {
		return nil, errEmptyMethod
	}
	if tx.Gas > vmcontext.MaxGas {
		return nil, fmt.Errorf("%w: %d > %d", errGasAboveMax, tx.Gas, vmcontext.MaxGas)
	}
	signer, err := r.Account(tx.Signer)
	if err != nil {
		return nil, err
	}
	if signer.Balance.Lt(&tx.Deposit) {
		return nil, fmt.Errorf("%w: %s < %s", errInsufficientBalance,
			vmcontext.FormatBalance(signer.Balance), vmcontext.FormatBalance(tx.Deposit))
	}

	outcome, err := r.submit(tx, signer)
	if err != nil {
		r.state.Abort()
		return nil, err
	}
	if err := r.state.Commit(); err != nil {
		return nil, err
	}

	r.metrics.txs.Inc()
	if outcome.IsFailure() {
		r.metrics.txsFailed.Inc()
	}
	r.metrics.receiptsPerCall.Observe(float64(len(outcome.Receipts)))
	r.log.Debug("transaction resolved",
		"tx", FormatID(outcome.TxID),
		"status", outcome.Status,
		"receipts", len(outcome.Receipts),
	)
	return outcome, nil
}

func (r *Resolver) submit(tx Transaction, signer *Account) (*Outcome, error) {
	signer.Balance.Sub(&signer.Balance, &tx.Deposit)
	if err := r.state.PutAccount(signer); err != nil {
		return nil, err
	}
	nonce, err := r.state.NextNonce()
	if err != nil {
		return nil, err
	}
	txID, err := tx.hash(nonce)
	if err != nil {
		return nil, err
	}

	e := newExecution(r, txID, tx.Signer)
	e.push(tx.Signer, r.height+1, host.Receipt{
		Receiver: tx.Receiver,
		Method:   tx.Method,
		Args:     tx.Args,
		Deposit:  tx.Deposit,
		Gas:      tx.Gas,
		Parent:   host.NoParent,
	})
	return e.run()
}

// ViewResult is the result of a view call.
type ViewResult struct {
	Value []byte
	Logs  []string
}

// JSON unmarshals the returned value into [v].
func (v *ViewResult) JSON(dst interface{}) error {
	if len(v.Value) == 0 {
		return errNoValue
	}
	return json.Unmarshal(v.Value, dst)
}

// View runs [method] of the contract on [id] in a read only frame.
func (r *Resolver) View(id vmcontext.AccountID, method string, args []byte) (*ViewResult, error) {
	acc, err := r.Account(id)
	if err != nil {
		return nil, err
	}
	m, err := r.method(acc, method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errViewFailed, err)
	}

	ctx := r.contextBuilder(acc, id, id, r.height).
		Input(args).
		PrepaidGas(vmcontext.MaxGas).
		IsView(true).
		Build()
	h := host.New(ctx,
		host.WithConfig(r.config),
		host.WithStorage(r.state.ContractStorage(id)),
		host.WithValidators(r.validators),
		host.WithLogger(r.log),
	)
	defer h.Abort()

	err = h.UseGas(vmcontext.Gas(r.config.Fees.ContractCallBase))
	if err == nil {
		err = m(h)
	}
	if err == nil {
		err = h.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %s", errViewFailed, id, method, err)
	}
	return &ViewResult{Value: h.ReturnData(), Logs: h.Logs()}, nil
}

// contextBuilder returns a builder for a frame of [acc] at [height].
func (r *Resolver) contextBuilder(acc *Account, signer, predecessor vmcontext.AccountID, height uint64) *vmcontext.Builder {
	return vmcontext.NewBuilder().
		CurrentAccountID(acc.ID).
		SignerAccountID(signer).
		SignerAccountPK(hashing.ComputeHash256([]byte(signer))).
		PredecessorAccountID(predecessor).
		BlockIndex(height).
		BlockTimestamp(genesisTimestamp + height*blockInterval).
		EpochHeight(height / epochLength).
		AccountBalance(acc.Balance).
		AccountLockedBalance(acc.LockedBalance).
		StorageUsage(acc.StorageUsage)
}

// Close closes the underlying database.
func (r *Resolver) Close() error {
	return r.state.Close()
}
