// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
)

const (
	IsInitializedKey byte = iota
	NonceKey
)

var (
	isInitializedKey                  = []byte{IsInitializedKey}
	nonceKey                          = []byte{NonceKey}
	_                InitializedState = (*initializedState)(nil)
)

// InitializedState tracks whether genesis accounts were created and the
// next transaction nonce.
type InitializedState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	NextNonce() (uint64, error)
}

type initializedState struct {
	singletonDB database.Database
}

// NewInitializedState returns the singleton state stored in [db].
func NewInitializedState(db database.Database) InitializedState {
	return &initializedState{
		singletonDB: db,
	}
}

func (s *initializedState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *initializedState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

// NextNonce returns the stored nonce and advances it.
func (s *initializedState) NextNonce() (uint64, error) {
	nonce, err := database.GetUInt64(s.singletonDB, nonceKey)
	switch {
	case errors.Is(err, database.ErrNotFound):
		nonce = 0
	case err != nil:
		return 0, err
	}
	return nonce, database.PutUInt64(s.singletonDB, nonceKey, nonce+1)
}
