// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/vmcontext"
)

// Transaction is a signed function call submitted to the resolver.
type Transaction struct {
	Signer   vmcontext.AccountID
	Receiver vmcontext.AccountID
	Method   string
	Args     []byte
	Deposit  uint256.Int
	Gas      vmcontext.Gas
}

type txEnvelope struct {
	Signer   string   `serialize:"true"`
	Receiver string   `serialize:"true"`
	Method   string   `serialize:"true"`
	Args     []byte   `serialize:"true"`
	Deposit  [32]byte `serialize:"true"`
	Gas      uint64   `serialize:"true"`
	Nonce    uint64   `serialize:"true"`
}

// hash returns the identifier of [tx] submitted with [nonce].
func (tx *Transaction) hash(nonce uint64) (ids.ID, error) {
	bytes, err := Codec.Marshal(CodecVersion, &txEnvelope{
		Signer:   string(tx.Signer),
		Receiver: string(tx.Receiver),
		Method:   tx.Method,
		Args:     tx.Args,
		Deposit:  tx.Deposit.Bytes32(),
		Gas:      uint64(tx.Gas),
		Nonce:    nonce,
	})
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(bytes), nil
}
