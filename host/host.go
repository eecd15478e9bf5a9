// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/holiman/uint256"

	safemath "github.com/ava-labs/avalanchego/utils/math"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/contractvm/vmcontext"
)

const noPromise = -1

// Method is a contract entry point. It reads its arguments from the host
// and reports a failure by returning the error of the host call that failed.
type Method func(h *Host) error

// Contract is deployable code: a named set of methods.
type Contract struct {
	Name    string
	Methods map[string]Method
}

// Option configures a Host.
type Option func(*Host)

// WithConfig sets the fee schedule and limits.
func WithConfig(config Config) Option {
	return func(h *Host) { h.config = config }
}

// WithStorage makes the host read and write [db]. Without it the host starts
// from an empty table.
func WithStorage(db database.Database) Option {
	return func(h *Host) { h.base = db }
}

// WithPromiseResults injects the results the invoked callback observes.
func WithPromiseResults(results ...PromiseResult) Option {
	return func(h *Host) { h.results = results }
}

// WithValidators sets the stake of every current validator.
func WithValidators(stakes map[vmcontext.AccountID]uint256.Int) Option {
	return func(h *Host) {
		h.validators = make(map[vmcontext.AccountID]uint256.Int, len(stakes))
		for id, stake := range stakes {
			h.validators[id] = stake
		}
	}
}

// WithLogger sets the logger host operations are traced to. Without it
// nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(h *Host) { h.log = logger }
}

// NewDiscardLogger returns a logger carrying [ctx] that drops every record.
// Libraries default to it so only a binary decides where records go.
func NewDiscardLogger(ctx ...interface{}) log.Logger {
	logger := log.New(ctx...)
	logger.SetHandler(log.DiscardHandler())
	return logger
}

// Host stands in for the execution host during one invocation. It is owned
// by a single frame and must not be shared.
type Host struct {
	ctx    vmcontext.Context
	config Config
	log    log.Logger

	base         database.Database
	storage      *versiondb.Database
	storageUsage uint64

	gas     gasCounter
	balance uint256.Int

	logs     []string
	logBytes uint64

	receipts []*Receipt
	results  []PromiseResult

	validators map[vmcontext.AccountID]uint256.Int

	returnData []byte
	returned   int

	err error
}

// New returns a host executing under [ctx].
func New(ctx vmcontext.Context, opts ...Option) *Host {
	h := &Host{
		ctx:      ctx,
		config:   DefaultConfig(),
		log:      NewDiscardLogger("module", "host"),
		returned: noPromise,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.base == nil {
		h.base = memdb.New()
	}
	h.storage = versiondb.New(h.base)
	h.storageUsage = ctx.StorageUsage
	h.balance = ctx.AccountBalance
	h.gas = gasCounter{
		prepaid:  uint64(ctx.PrepaidGas),
		maxBurnt: h.config.Limits.MaxGasBurnt,
	}
	if ctx.IsView && !ctx.AttachedDeposit.IsZero() {
		h.fail(NewError(ProhibitedInView, "attached deposit"))
	}
	return h
}

// fail records [err] as the frame failure. The first failure wins.
func (h *Host) fail(err error) error {
	if h.err != nil {
		return h.err
	}
	h.err = err
	if kind, ok := KindOf(err); ok && kind.IsGas() {
		// a frame that ran out of gas leaves no logs behind
		h.logs = nil
		h.logBytes = 0
	}
	h.log.Debug("frame aborted", "account", h.ctx.CurrentAccountID, "err", err)
	return err
}

// Err returns the failure that aborted this frame, if any.
func (h *Host) Err() error { return h.err }

// charge burns [cost] gas.
func (h *Host) charge(cost uint64) error {
	if h.err != nil {
		return h.err
	}
	if err := h.gas.burn(cost); err != nil {
		return h.fail(err)
	}
	return nil
}

// chargePer burns [base] + [perByte]*[n].
func (h *Host) chargePer(base, perByte uint64, n int) error {
	if h.err != nil {
		return h.err
	}
	cost, err := safemath.Mul64(perByte, uint64(n))
	if err != nil {
		return h.fail(NewError(IntegerOverflow, "per byte cost"))
	}
	cost, err = safemath.Add64(base, cost)
	if err != nil {
		return h.fail(NewError(IntegerOverflow, "per byte cost"))
	}
	return h.charge(cost)
}

// UseGas burns [gas] on behalf of contract computation.
func (h *Host) UseGas(gas vmcontext.Gas) error {
	return h.charge(uint64(gas))
}

// Panic aborts the frame with [msg].
func (h *Host) Panic(msg string) error {
	if h.err != nil {
		return h.err
	}
	return h.fail(NewError(GuestPanic, "%s", msg))
}

// Require aborts the frame with [msg] unless [cond] holds.
func (h *Host) Require(cond bool, msg string) error {
	if cond {
		return h.err
	}
	return h.Panic(msg)
}

// Log appends [msg] to the log buffer.
func (h *Host) Log(msg string) error {
	if err := h.chargePer(h.config.Fees.LogBase, h.config.Fees.LogByte, len(msg)); err != nil {
		return err
	}
	if uint64(len(h.logs)) >= h.config.Limits.MaxNumberLogs {
		return h.fail(NewError(NumberOfLogsExceeded, "limit %d", h.config.Limits.MaxNumberLogs))
	}
	if h.logBytes+uint64(len(msg)) > h.config.Limits.MaxTotalLogLength {
		return h.fail(NewError(TotalLogLengthExceeded, "limit %d", h.config.Limits.MaxTotalLogLength))
	}
	h.logs = append(h.logs, msg)
	h.logBytes += uint64(len(msg))
	return nil
}

// ValueReturn sets the value this frame resolves with.
func (h *Host) ValueReturn(data []byte) error {
	if err := h.chargePer(0, h.config.Fees.ValueReturnByte, len(data)); err != nil {
		return err
	}
	h.returnData = copyBytes(data)
	h.returned = noPromise
	return nil
}

// Logs returns a copy of the log buffer.
func (h *Host) Logs() []string {
	logs := make([]string, len(h.logs))
	copy(logs, h.logs)
	return logs
}

// CreatedReceipts returns the receipts created by this frame in creation order.
func (h *Host) CreatedReceipts() []*Receipt {
	receipts := make([]*Receipt, len(h.receipts))
	copy(receipts, h.receipts)
	return receipts
}

// ReturnData returns the value set by ValueReturn.
func (h *Host) ReturnData() []byte { return h.returnData }

// Logger returns the logger of the frame, for contracts to trace to.
func (h *Host) Logger() log.Logger { return h.log }

// ReturnedPromise returns the promise this frame resolves through, if any.
func (h *Host) ReturnedPromise() (int, bool) {
	return h.returned, h.returned != noPromise
}

// Context returns the context the frame executes under.
func (h *Host) Context() vmcontext.Context { return h.ctx }

// CurrentAccountID returns the account whose contract runs.
func (h *Host) CurrentAccountID() vmcontext.AccountID { return h.ctx.CurrentAccountID }

// SignerAccountID returns the account that signed the transaction.
func (h *Host) SignerAccountID() vmcontext.AccountID { return h.ctx.SignerAccountID }

// SignerAccountPK returns a copy of the signer public key.
func (h *Host) SignerAccountPK() []byte { return copyBytes(h.ctx.SignerAccountPK) }

// PredecessorAccountID returns the account that issued the receipt.
func (h *Host) PredecessorAccountID() vmcontext.AccountID { return h.ctx.PredecessorAccountID }

// Input returns a copy of the call arguments.
func (h *Host) Input() []byte { return copyBytes(h.ctx.Input) }

// BlockIndex returns the height of the current block.
func (h *Host) BlockIndex() uint64 { return h.ctx.BlockIndex }

// BlockTimestamp returns the block timestamp in nanoseconds.
func (h *Host) BlockTimestamp() uint64 { return h.ctx.BlockTimestamp }

// EpochHeight returns the current epoch.
func (h *Host) EpochHeight() uint64 { return h.ctx.EpochHeight }

// AttachedDeposit returns the tokens attached to the call.
func (h *Host) AttachedDeposit() uint256.Int { return h.ctx.AttachedDeposit }

// AccountLockedBalance returns the staked balance of the current account.
func (h *Host) AccountLockedBalance() uint256.Int { return h.ctx.AccountLockedBalance }

// PrepaidGas returns the gas attached to the call.
func (h *Host) PrepaidGas() vmcontext.Gas { return h.ctx.PrepaidGas }

// RandomSeed returns the seed of the block.
func (h *Host) RandomSeed() [vmcontext.SeedLen]byte { return h.ctx.RandomSeed }

// IsView reports whether the frame is read only.
func (h *Host) IsView() bool { return h.ctx.IsView }

// AccountBalance is the balance left after deposits attached to created receipts.
func (h *Host) AccountBalance() uint256.Int { return h.balance }

// UsedGas includes the gas attached to created receipts.
func (h *Host) UsedGas() vmcontext.Gas { return vmcontext.Gas(h.gas.used) }

// BurntGas is the gas spent by the frame itself.
func (h *Host) BurntGas() vmcontext.Gas { return vmcontext.Gas(h.gas.burnt) }

// StorageUsage returns the bytes of storage the account uses after the
// frame's writes.
func (h *Host) StorageUsage() uint64 { return h.storageUsage }

// ValidatorStake returns the stake of [id], zero if it is not a validator.
func (h *Host) ValidatorStake(id vmcontext.AccountID) (uint256.Int, error) {
	if err := h.charge(h.config.Fees.ValidatorStakeBase); err != nil {
		return uint256.Int{}, err
	}
	return h.validators[id], nil
}

// ValidatorTotalStake returns the stake of all validators.
func (h *Host) ValidatorTotalStake() (uint256.Int, error) {
	if err := h.charge(h.config.Fees.ValidatorTotalStakeBase); err != nil {
		return uint256.Int{}, err
	}
	var total uint256.Int
	for _, stake := range h.validators {
		stake := stake
		if _, overflow := total.AddOverflow(&total, &stake); overflow {
			return uint256.Int{}, h.fail(NewError(IntegerOverflow, "total stake"))
		}
	}
	return total, nil
}

// Commit flushes the frame's storage writes to the underlying table.
func (h *Host) Commit() error { return h.storage.Commit() }

// Abort discards the frame's storage writes.
func (h *Host) Abort() { h.storage.Abort() }

// TakeStorage commits the frame and hands out the underlying table, so a
// later host built WithStorage continues from it.
func (h *Host) TakeStorage() (database.Database, error) {
	if err := h.storage.Commit(); err != nil {
		return nil, err
	}
	return h.base, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
