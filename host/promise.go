// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"github.com/holiman/uint256"

	"github.com/ava-labs/contractvm/vmcontext"
)

// PromiseCreate schedules a call of [method] on [receiver] and returns its
// promise index. The attached [gas] and [deposit] come out of this frame's
// unspent budget.
func (h *Host) PromiseCreate(
	receiver vmcontext.AccountID,
	method string,
	args []byte,
	deposit uint256.Int,
	gas vmcontext.Gas,
) (int, error) {
	return h.newReceipt(NoParent, receiver, method, args, deposit, gas)
}

// PromiseThen schedules a call that runs once promise [parent] resolved and
// observes its result.
func (h *Host) PromiseThen(
	parent int,
	receiver vmcontext.AccountID,
	method string,
	args []byte,
	deposit uint256.Int,
	gas vmcontext.Gas,
) (int, error) {
	if h.err != nil {
		return 0, h.err
	}
	if parent < 0 || parent >= len(h.receipts) {
		return 0, h.fail(NewError(InvalidPromiseIndex, "%d", parent))
	}
	return h.newReceipt(parent, receiver, method, args, deposit, gas)
}

// PromiseTransfer schedules a plain transfer of [amount] to [receiver].
func (h *Host) PromiseTransfer(receiver vmcontext.AccountID, amount uint256.Int) (int, error) {
	return h.newReceipt(NoParent, receiver, "", nil, amount, 0)
}

func (h *Host) newReceipt(
	parent int,
	receiver vmcontext.AccountID,
	method string,
	args []byte,
	deposit uint256.Int,
	gas vmcontext.Gas,
) (int, error) {
	if h.err != nil {
		return 0, h.err
	}
	if h.ctx.IsView {
		return 0, h.fail(NewError(ProhibitedInView, "promise creation"))
	}
	if err := receiver.Validate(); err != nil {
		return 0, h.fail(NewError(InvalidAccountID, "%s", err))
	}
	if uint64(len(h.receipts)) >= h.config.Limits.MaxPromisesPerFrame {
		return 0, h.fail(NewError(NumberPromisesExceeded, "limit %d", h.config.Limits.MaxPromisesPerFrame))
	}
	if uint64(len(args)) > h.config.Limits.MaxArgumentsLength {
		return 0, h.fail(NewError(ValueLengthExceeded, "arguments length %d", len(args)))
	}

	fees := h.config.Fees
	if method == "" {
		if err := h.charge(fees.ReceiptCreation); err != nil {
			return 0, err
		}
		if err := h.charge(fees.Transfer); err != nil {
			return 0, err
		}
	} else {
		if err := h.charge(fees.ReceiptCreation); err != nil {
			return 0, err
		}
		if err := h.chargePer(fees.FunctionCallBase, fees.FunctionCallByte, len(method)+len(args)); err != nil {
			return 0, err
		}
	}
	if err := h.gas.prepay(uint64(gas)); err != nil {
		return 0, h.fail(err)
	}
	if h.balance.Lt(&deposit) {
		return 0, h.fail(NewError(BalanceExceeded, "deposit %s exceeds balance %s",
			vmcontext.FormatBalance(deposit), vmcontext.FormatBalance(h.balance)))
	}
	h.balance.Sub(&h.balance, &deposit)

	idx := len(h.receipts)
	h.receipts = append(h.receipts, &Receipt{
		Receiver: receiver,
		Method:   method,
		Args:     copyBytes(args),
		Deposit:  deposit,
		Gas:      gas,
		Parent:   parent,
	})
	if parent != NoParent {
		h.receipts[parent].Callbacks = append(h.receipts[parent].Callbacks, idx)
	}
	h.log.Debug("receipt created",
		"index", idx,
		"receiver", receiver,
		"method", method,
		"gas", gas,
		"parent", parent,
	)
	return idx, nil
}

// PromiseReturn makes this frame resolve with the final result of [idx].
func (h *Host) PromiseReturn(idx int) error {
	if h.err != nil {
		return h.err
	}
	if idx < 0 || idx >= len(h.receipts) {
		return h.fail(NewError(InvalidPromiseIndex, "%d", idx))
	}
	if err := h.charge(h.config.Fees.PromiseReturn); err != nil {
		return err
	}
	h.returned = idx
	h.returnData = nil
	return nil
}

// PromiseResultsCount returns how many results this callback observes.
func (h *Host) PromiseResultsCount() (int, error) {
	if h.err != nil {
		return 0, h.err
	}
	if h.ctx.IsView {
		return 0, h.fail(NewError(ProhibitedInView, "promise_results_count"))
	}
	return len(h.results), nil
}

// PromiseResult returns the [i]th result this callback observes.
func (h *Host) PromiseResult(i int) (PromiseResult, error) {
	if h.err != nil {
		return PromiseResult{}, h.err
	}
	if h.ctx.IsView {
		return PromiseResult{}, h.fail(NewError(ProhibitedInView, "promise_result"))
	}
	if i < 0 || i >= len(h.results) {
		return PromiseResult{}, h.fail(NewError(InvalidPromiseResultIndex, "%d", i))
	}
	result := h.results[i]
	fees := h.config.Fees
	if err := h.chargePer(fees.PromiseResultBase, fees.PromiseResultByte, len(result.Data)); err != nil {
		return PromiseResult{}, err
	}
	return PromiseResult{Status: result.Status, Data: copyBytes(result.Data)}, nil
}
