// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

// receiptNode is a receipt of the arena. Parent and Callbacks of the
// embedded receipt index the arena rather than the creating frame.
type receiptNode struct {
	id          ids.ID
	signer      vmcontext.AccountID
	predecessor vmcontext.AccountID
	receipt     host.Receipt
	height      uint64

	// resolved is set once result holds the final result of the receipt.
	// A frame that returned a promise resolves through that promise.
	resolved bool
	result   host.PromiseResult
	err      error
	forwards []int
}

// frame is what one receipt execution left behind.
type frame struct {
	logs     []string
	gasBurnt vmcontext.Gas
	err      error

	value    []byte
	promise  int
	returned bool
	created  []*host.Receipt
}

// execution resolves the receipts of one transaction.
type execution struct {
	r      *Resolver
	txID   ids.ID
	signer vmcontext.AccountID

	nodes []*receiptNode
	queue []int
	fired ids.Set

	outcome *Outcome
}

func newExecution(r *Resolver, txID ids.ID, signer vmcontext.AccountID) *execution {
	return &execution{
		r:       r,
		txID:    txID,
		signer:  signer,
		fired:   ids.NewSet(4),
		outcome: &Outcome{TxID: txID, Status: host.NotReady},
	}
}

// push appends a receipt to the arena and the queue.
func (e *execution) push(predecessor vmcontext.AccountID, height uint64, receipt host.Receipt) int {
	idx := len(e.nodes)
	e.nodes = append(e.nodes, &receiptNode{
		id:          e.txID.Prefix(uint64(idx)),
		signer:      e.signer,
		predecessor: predecessor,
		receipt:     receipt,
		height:      height,
	})
	e.queue = append(e.queue, idx)
	return idx
}

// run executes queued receipts in creation order until the root resolves.
// A callback whose parent has not resolved yet moves to the back.
func (e *execution) run() (*Outcome, error) {
	deferred := 0
	for len(e.queue) > 0 {
		idx := e.queue[0]
		e.queue = e.queue[1:]

		n := e.nodes[idx]
		if parent := n.receipt.Parent; parent != host.NoParent && !e.nodes[parent].resolved {
			e.queue = append(e.queue, idx)
			deferred++
			if deferred > len(e.queue) {
				return nil, fmt.Errorf("%w: %d pending", ErrUnresolvedReceipts, len(e.queue))
			}
			continue
		}
		deferred = 0
		if err := e.execute(idx); err != nil {
			return nil, err
		}
	}

	root := e.nodes[0]
	if !root.resolved {
		return nil, fmt.Errorf("%w: root receipt", ErrUnresolvedReceipts)
	}
	e.outcome.Status = root.result.Status
	e.outcome.Value = root.result.Data
	e.outcome.Failure = root.err
	for _, n := range e.nodes {
		if n.height > e.r.height {
			e.r.height = n.height
		}
	}
	return e.outcome, nil
}

// execute runs receipt [idx] once.
func (e *execution) execute(idx int) error {
	n := e.nodes[idx]
	if e.fired.Contains(n.id) {
		return fmt.Errorf("%w: %s", ErrReceiptAlreadyExecuted, FormatID(n.id))
	}
	e.fired.Add(n.id)

	var results []host.PromiseResult
	if parent := n.receipt.Parent; parent != host.NoParent {
		results = []host.PromiseResult{e.nodes[parent].result}
	}

	f, err := e.runFrame(n, results)
	if err != nil {
		return err
	}

	status := host.Successful
	if f.err != nil {
		status = host.Failed
	}
	e.outcome.Receipts = append(e.outcome.Receipts, ReceiptOutcome{
		ID:          n.id,
		Predecessor: n.predecessor,
		Receiver:    n.receipt.Receiver,
		Method:      n.receipt.Method,
		Height:      n.height,
		Logs:        f.logs,
		GasBurnt:    f.gasBurnt,
		Status:      status,
		Err:         f.err,
	})
	e.r.metrics.receipts.Inc()
	e.r.metrics.gasBurnt.Add(float64(f.gasBurnt))
	e.r.log.Debug("receipt executed",
		"receipt", FormatID(n.id),
		"receiver", n.receipt.Receiver,
		"method", n.receipt.Method,
		"height", n.height,
		"status", status,
		"logs", len(f.logs),
	)

	if f.err != nil {
		e.r.metrics.receiptsFailed.Inc()
		if err := e.refund(n); err != nil {
			return err
		}
		e.resolve(idx, host.FailedResult(), f.err)
		return nil
	}

	// receipts of a committed frame join the arena in creation order
	base := len(e.nodes)
	for _, created := range f.created {
		receipt := *created
		if receipt.Parent != host.NoParent {
			receipt.Parent += base
		}
		callbacks := make([]int, len(created.Callbacks))
		for i, cb := range created.Callbacks {
			callbacks[i] = base + cb
		}
		receipt.Callbacks = callbacks
		e.push(n.receipt.Receiver, n.height+1, receipt)
	}
	if f.returned {
		target := e.nodes[base+f.promise]
		target.forwards = append(target.forwards, idx)
		return nil
	}
	e.resolve(idx, host.SuccessResult(f.value), nil)
	return nil
}

// resolve sets the final result of [idx] and of every receipt that
// returned it as a promise.
func (e *execution) resolve(idx int, result host.PromiseResult, err error) {
	n := e.nodes[idx]
	n.resolved = true
	n.result = result
	n.err = err
	for _, fwd := range n.forwards {
		e.resolve(fwd, result, err)
	}
}

// refund returns the deposit of a failed receipt to its predecessor.
func (e *execution) refund(n *receiptNode) error {
	if n.receipt.Deposit.IsZero() {
		return nil
	}
	acc, err := e.r.state.GetAccount(n.predecessor)
	if err != nil {
		return fmt.Errorf("refund to %s: %w", n.predecessor, err)
	}
	if _, overflow := acc.Balance.AddOverflow(&acc.Balance, &n.receipt.Deposit); overflow {
		return fmt.Errorf("refund to %s: %w", n.predecessor, host.ErrIntegerOverflow)
	}
	return e.r.state.PutAccount(acc)
}

// runFrame executes [n] in a fresh host. Contract-visible failures are
// reported in the frame, the returned error means the state is unusable.
func (e *execution) runFrame(n *receiptNode, results []host.PromiseResult) (*frame, error) {
	receiver := n.receipt.Receiver
	acc, err := e.r.state.GetAccount(receiver)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return &frame{err: host.NewError(host.AccountDoesNotExist, "%s", receiver)}, nil
	case err != nil:
		return nil, err
	}

	if _, overflow := acc.Balance.AddOverflow(&acc.Balance, &n.receipt.Deposit); overflow {
		return &frame{err: host.NewError(host.IntegerOverflow, "balance of %s", receiver)}, nil
	}
	if n.receipt.IsTransfer() {
		return &frame{}, e.r.state.PutAccount(acc)
	}

	method, err := e.r.method(acc, n.receipt.Method)
	if err != nil {
		return &frame{err: err}, nil
	}

	ctx := e.r.contextBuilder(acc, n.signer, n.predecessor, n.height).
		Input(n.receipt.Args).
		AttachedDeposit(n.receipt.Deposit).
		PrepaidGas(n.receipt.Gas).
		RandomSeed([vmcontext.SeedLen]byte(n.id)).
		Build()
	h := host.New(ctx,
		host.WithConfig(e.r.config),
		host.WithStorage(e.r.state.ContractStorage(receiver)),
		host.WithPromiseResults(results...),
		host.WithValidators(e.r.validators),
		host.WithLogger(e.r.log),
	)

	err = h.UseGas(vmcontext.Gas(e.r.config.Fees.ContractCallBase))
	if err == nil {
		err = method(h)
	}
	if err == nil {
		err = h.Err()
	}
	f := &frame{
		logs:     h.Logs(),
		gasBurnt: h.BurntGas(),
		err:      err,
	}
	if err != nil {
		h.Abort()
		return f, nil
	}

	if err := h.Commit(); err != nil {
		return nil, err
	}
	acc.Balance = h.AccountBalance()
	acc.StorageUsage = h.StorageUsage()
	if err := e.r.state.PutAccount(acc); err != nil {
		return nil, err
	}
	f.value = h.ReturnData()
	f.promise, f.returned = h.ReturnedPromise()
	f.created = h.CreatedReceipts()
	return f, nil
}
