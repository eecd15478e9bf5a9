// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/vmcontext"
)

// GenesisAccount is an account created when the state is first initialized.
type GenesisAccount struct {
	ID      vmcontext.AccountID
	Balance uint256.Int
}

// InitGenesis creates [accounts] unless the state was already initialized.
// It reports whether the accounts were created.
func (r *Resolver) InitGenesis(accounts []GenesisAccount) (bool, error) {
	initialized, err := r.state.IsInitialized()
	if err != nil {
		return false, err
	}
	if initialized {
		r.log.Info("state already initialized")
		return false, nil
	}

	for _, acc := range accounts {
		if err := acc.ID.Validate(); err != nil {
			r.state.Abort()
			return false, err
		}
		if err := r.state.PutAccount(&Account{ID: acc.ID, Balance: acc.Balance}); err != nil {
			r.state.Abort()
			return false, err
		}
	}
	if err := r.state.SetInitialized(); err != nil {
		r.state.Abort()
		return false, err
	}
	r.log.Info("genesis initialized", "accounts", len(accounts))
	return true, r.state.Commit()
}
