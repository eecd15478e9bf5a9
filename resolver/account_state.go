// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/vmcontext"
)

const (
	accountCacheSize = 1024
)

var (
	errAccountWrongVersion = errors.New("wrong version")

	_ AccountState = &accountState{}
)

// Account is the resolver's record of one account.
type Account struct {
	ID            vmcontext.AccountID
	Balance       uint256.Int
	LockedBalance uint256.Int
	StorageUsage  uint64
	// CodeHash is ids.Empty until a contract is deployed.
	CodeHash ids.ID
}

// HasCode reports whether a contract is deployed on the account.
func (a *Account) HasCode() bool { return a.CodeHash != ids.Empty }

type accountRecord struct {
	ID            string   `serialize:"true"`
	Balance       [32]byte `serialize:"true"`
	LockedBalance [32]byte `serialize:"true"`
	StorageUsage  uint64   `serialize:"true"`
	CodeHash      ids.ID   `serialize:"true"`
}

func newAccountRecord(acc *Account) *accountRecord {
	return &accountRecord{
		ID:            string(acc.ID),
		Balance:       acc.Balance.Bytes32(),
		LockedBalance: acc.LockedBalance.Bytes32(),
		StorageUsage:  acc.StorageUsage,
		CodeHash:      acc.CodeHash,
	}
}

func (r *accountRecord) account() *Account {
	acc := &Account{
		ID:           vmcontext.AccountID(r.ID),
		StorageUsage: r.StorageUsage,
		CodeHash:     r.CodeHash,
	}
	acc.Balance.SetBytes32(r.Balance[:])
	acc.LockedBalance.SetBytes32(r.LockedBalance[:])
	return acc
}

// AccountState is a thin wrapper around a database to provide caching,
// serialization, and de-serialization of accounts.
type AccountState interface {
	GetAccount(id vmcontext.AccountID) (*Account, error)
	PutAccount(acc *Account) error
	HasAccount(id vmcontext.AccountID) (bool, error)

	ClearCache()
}

type accountState struct {
	accCache  cache.Cacher
	accountDB database.Database
}

// NewAccountState returns an AccountState over [db] with an LRU read cache.
func NewAccountState(db database.Database) AccountState {
	return &accountState{
		accCache:  &cache.LRU{Size: accountCacheSize},
		accountDB: db,
	}
}

// GetAccount returns a copy of the stored account. Callers mutate the copy
// and write it back with PutAccount.
func (s *accountState) GetAccount(id vmcontext.AccountID) (*Account, error) {
	if accIntf, ok := s.accCache.Get(id); ok {
		acc := *accIntf.(*Account)
		return &acc, nil
	}

	accBytes, err := s.accountDB.Get([]byte(id))
	if err != nil {
		return nil, err
	}

	record := accountRecord{}
	parsedVersion, err := Codec.Unmarshal(accBytes, &record)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errAccountWrongVersion
	}

	acc := record.account()
	cached := *acc
	s.accCache.Put(id, &cached)
	return acc, nil
}

func (s *accountState) PutAccount(acc *Account) error {
	bytes, err := Codec.Marshal(CodecVersion, newAccountRecord(acc))
	if err != nil {
		return err
	}

	cached := *acc
	s.accCache.Put(acc.ID, &cached)
	return s.accountDB.Put([]byte(acc.ID), bytes)
}

func (s *accountState) HasAccount(id vmcontext.AccountID) (bool, error) {
	if _, ok := s.accCache.Get(id); ok {
		return true, nil
	}
	return s.accountDB.Has([]byte(id))
}

func (s *accountState) ClearCache() {
	s.accCache.Flush()
}
