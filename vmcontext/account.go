// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmcontext

import (
	"errors"
	"fmt"
)

var (
	errEmptyAccountID = errors.New("account id is empty")

	testAccounts = []AccountID{"alice", "bob", "charlie", "danny", "eugene", "fargo"}
)

// AccountID is an opaque account identifier. Validity rules beyond
// non-emptiness belong to the network and are not enforced here.
type AccountID string

// Validate returns nil iff [a] can be referenced by a receipt.
func (a AccountID) Validate() error {
	if len(a) == 0 {
		return errEmptyAccountID
	}
	return nil
}

func (a AccountID) String() string { return string(a) }

// NumAccounts is the number of well known test accounts.
func NumAccounts() int { return len(testAccounts) }

// Accounts returns the [i]th well known test account.
// It panics if [i] is out of range, which is a bug in the calling test.
func Accounts(i int) AccountID {
	if i < 0 || i >= len(testAccounts) {
		panic(fmt.Sprintf("test account index %d out of range [0, %d)", i, len(testAccounts)))
	}
	return testAccounts[i]
}
