// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmcontext

import (
	"github.com/holiman/uint256"
)

const (
	// DefaultStorageUsage is the storage usage an account starts with.
	DefaultStorageUsage = 1024 * 300

	// SeedLen is the length of the per-block random seed.
	SeedLen = 32
)

// Context is the execution context of a single invocation.
// It is a value: copies never observe changes made through a Builder
// after Build returned.
type Context struct {
	CurrentAccountID     AccountID
	SignerAccountID      AccountID
	SignerAccountPK      []byte
	PredecessorAccountID AccountID

	// Input holds the serialized arguments of the invoked method.
	Input []byte

	BlockIndex     uint64
	BlockTimestamp uint64
	EpochHeight    uint64

	AccountBalance       uint256.Int
	AccountLockedBalance uint256.Int
	StorageUsage         uint64

	AttachedDeposit uint256.Int
	PrepaidGas      Gas

	RandomSeed [SeedLen]byte

	// IsView marks a read-only invocation.
	IsView bool
}

// Builder configures a Context. Every option defaults to a deterministic
// baseline: zero deposit, maximal gas and block 0.
type Builder struct {
	ctx Context
}

// NewBuilder returns a Builder holding the default context.
func NewBuilder() *Builder {
	return &Builder{
		ctx: Context{
			CurrentAccountID:     Accounts(0),
			SignerAccountID:      Accounts(1),
			SignerAccountPK:      []byte{0, 1, 2},
			PredecessorAccountID: Accounts(1),
			AccountBalance:       NearTokens(100),
			StorageUsage:         DefaultStorageUsage,
			PrepaidGas:           MaxGas,
		},
	}
}

// CurrentAccountID sets the account whose contract runs.
func (b *Builder) CurrentAccountID(id AccountID) *Builder {
	b.ctx.CurrentAccountID = id
	return b
}

// SignerAccountID sets the account that signed the transaction.
func (b *Builder) SignerAccountID(id AccountID) *Builder {
	b.ctx.SignerAccountID = id
	return b
}

// SignerAccountPK sets the public key of the signer.
func (b *Builder) SignerAccountPK(pk []byte) *Builder {
	b.ctx.SignerAccountPK = pk
	return b
}

// PredecessorAccountID sets the account that issued the receipt.
func (b *Builder) PredecessorAccountID(id AccountID) *Builder {
	b.ctx.PredecessorAccountID = id
	return b
}

// Input sets the serialized arguments of the call.
func (b *Builder) Input(input []byte) *Builder {
	b.ctx.Input = input
	return b
}

// BlockIndex sets the height of the current block.
func (b *Builder) BlockIndex(height uint64) *Builder {
	b.ctx.BlockIndex = height
	return b
}

// BlockTimestamp sets the block timestamp in nanoseconds.
func (b *Builder) BlockTimestamp(ns uint64) *Builder {
	b.ctx.BlockTimestamp = ns
	return b
}

// EpochHeight sets the current epoch.
func (b *Builder) EpochHeight(height uint64) *Builder {
	b.ctx.EpochHeight = height
	return b
}

// AccountBalance sets the balance of the current account, deposit included.
func (b *Builder) AccountBalance(v uint256.Int) *Builder {
	b.ctx.AccountBalance = v
	return b
}

// AccountLockedBalance sets the staked balance of the current account.
func (b *Builder) AccountLockedBalance(v uint256.Int) *Builder {
	b.ctx.AccountLockedBalance = v
	return b
}

// StorageUsage sets the bytes of storage the current account already uses.
func (b *Builder) StorageUsage(usage uint64) *Builder {
	b.ctx.StorageUsage = usage
	return b
}

// AttachedDeposit sets the tokens attached to the call.
func (b *Builder) AttachedDeposit(v uint256.Int) *Builder {
	b.ctx.AttachedDeposit = v
	return b
}

// PrepaidGas sets the gas attached to the call.
func (b *Builder) PrepaidGas(gas Gas) *Builder {
	b.ctx.PrepaidGas = gas
	return b
}

// RandomSeed sets the seed of the block.
func (b *Builder) RandomSeed(seed [SeedLen]byte) *Builder {
	b.ctx.RandomSeed = seed
	return b
}

// IsView marks the call as read only.
func (b *Builder) IsView(view bool) *Builder {
	b.ctx.IsView = view
	return b
}

// Build returns the configured context. Invalid combinations, such as a view
// call carrying a deposit, are accepted here and rejected by the host.
func (b *Builder) Build() Context {
	ctx := b.ctx
	ctx.Input = copyBytes(b.ctx.Input)
	ctx.SignerAccountPK = copyBytes(b.ctx.SignerAccountPK)
	return ctx
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
