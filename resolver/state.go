// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"

	"github.com/ava-labs/contractvm/vmcontext"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	accountStatePrefix   = []byte("account")
	contractStatePrefix  = []byte("contract")

	_ State = &state{}
)

// State is a wrapper around InitializedState and AccountState that also
// hands out the contract storage table of each account.
type State interface {
	InitializedState
	AccountState

	// ContractStorage returns the storage table of [id]. Writes land in the
	// pending batch until Commit.
	ContractStorage(id vmcontext.AccountID) database.Database

	Commit() error
	Abort()
	Close() error
}

type state struct {
	InitializedState
	AccountState

	contractDB database.Database
	baseDB     *versiondb.Database
}

// NewState returns the resolver state layered over [db]. Writes stay pending
// until Commit.
func NewState(db database.Database) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	singletonDB := prefixdb.New(singletonStatePrefix, baseDB)
	accountDB := prefixdb.New(accountStatePrefix, baseDB)
	contractDB := prefixdb.New(contractStatePrefix, baseDB)

	return &state{
		InitializedState: NewInitializedState(singletonDB),
		AccountState:     NewAccountState(accountDB),
		contractDB:       contractDB,
		baseDB:           baseDB,
	}
}

func (s *state) ContractStorage(id vmcontext.AccountID) database.Database {
	return prefixdb.New([]byte(id), s.contractDB)
}

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations and the account cache that may reflect them.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.AccountState.ClearCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
