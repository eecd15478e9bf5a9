// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	safemath "github.com/ava-labs/avalanchego/utils/math"
)

// gasCounter tracks the gas of one frame.
// used = burnt + gas attached to created receipts.
type gasCounter struct {
	burnt    uint64
	used     uint64
	prepaid  uint64
	maxBurnt uint64
}

// burn charges [cost] as gas spent by this frame.
func (g *gasCounter) burn(cost uint64) error {
	burnt, err := safemath.Add64(g.burnt, cost)
	if err != nil {
		return NewError(IntegerOverflow, "burnt gas")
	}
	used, err := safemath.Add64(g.used, cost)
	if err != nil {
		return NewError(IntegerOverflow, "used gas")
	}
	if used > g.prepaid {
		g.burnt += g.prepaid - g.used
		g.used = g.prepaid
		return ErrGasExceeded
	}
	if burnt > g.maxBurnt {
		g.used += g.maxBurnt - g.burnt
		g.burnt = g.maxBurnt
		return ErrGasLimitExceeded
	}
	g.burnt, g.used = burnt, used
	return nil
}

// prepay reserves [gas] for a receipt created by this frame.
func (g *gasCounter) prepay(gas uint64) error {
	used, err := safemath.Add64(g.used, gas)
	if err != nil {
		return NewError(IntegerOverflow, "used gas")
	}
	if used > g.prepaid {
		return ErrGasExceeded
	}
	g.used = used
	return nil
}
