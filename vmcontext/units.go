// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmcontext

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Gas is an amount of execution gas.
type Gas uint64

const (
	// TeraGas is 10^12 gas units.
	TeraGas Gas = 1_000_000_000_000

	// MaxGas is the most gas a single transaction or receipt may carry.
	MaxGas = 300 * TeraGas
)

var (
	errBadBalance     = errors.New("balance is not a decimal integer")
	errNegBalance     = errors.New("balance is negative")
	errBalanceTooWide = errors.New("balance overflows 256 bits")

	// OneYocto is the smallest non-zero token amount.
	OneYocto = *uint256.NewInt(1)
	// OneNear is 10^24 yocto.
	OneNear = *new(uint256.Int).Mul(uint256.NewInt(1_000_000_000_000), uint256.NewInt(1_000_000_000_000))
)

// TGas returns [n] teragas.
func TGas(n uint64) Gas { return Gas(n) * TeraGas }

// Tera returns [g] in whole teragas, rounded down.
func (g Gas) Tera() uint64 { return uint64(g / TeraGas) }

// NearTokens returns [n] whole tokens in yocto units.
func NearTokens(n uint64) uint256.Int {
	var v uint256.Int
	v.Mul(uint256.NewInt(n), &OneNear)
	return v
}

// ParseBalance parses a decimal yocto amount.
func ParseBalance(s string) (uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return uint256.Int{}, fmt.Errorf("%w: %q", errBadBalance, s)
	}
	if b.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("%w: %q", errNegBalance, s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return uint256.Int{}, fmt.Errorf("%w: %q", errBalanceTooWide, s)
	}
	return *v, nil
}

// FormatBalance renders [v] as a decimal yocto amount.
func FormatBalance(v uint256.Int) string {
	return v.ToBig().String()
}
