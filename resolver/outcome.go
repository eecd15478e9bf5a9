// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package resolver

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/mr-tron/base58"
	"github.com/olekukonko/tablewriter"

	jsoniter "github.com/json-iterator/go"

	"github.com/ava-labs/contractvm/host"
	"github.com/ava-labs/contractvm/vmcontext"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	errNoValue = errors.New("outcome has no return value")
)

// ReceiptOutcome is the trace of one executed receipt.
type ReceiptOutcome struct {
	ID          ids.ID
	Predecessor vmcontext.AccountID
	Receiver    vmcontext.AccountID
	Method      string
	Height      uint64
	Logs        []string
	GasBurnt    vmcontext.Gas
	// Status is the status of this frame alone. A frame that returned a
	// promise is Successful even if the promise later failed.
	Status host.PromiseStatus
	Err    error
}

// Outcome is the result of a resolved transaction.
type Outcome struct {
	TxID     ids.ID
	Status   host.PromiseStatus
	Value    []byte
	Failure  error
	Receipts []ReceiptOutcome
}

// IsSuccess reports whether the root receipt resolved successfully.
func (o *Outcome) IsSuccess() bool { return o.Status == host.Successful }
// IsFailure reports whether the root receipt failed.
func (o *Outcome) IsFailure() bool { return o.Status == host.Failed }

// Logs returns the logs of every receipt in execution order.
func (o *Outcome) Logs() []string {
	var logs []string
	for _, r := range o.Receipts {
		logs = append(logs, r.Logs...)
	}
	return logs
}

// TotalGasBurnt sums the gas burnt across receipts.
func (o *Outcome) TotalGasBurnt() vmcontext.Gas {
	var total vmcontext.Gas
	for _, r := range o.Receipts {
		total += r.GasBurnt
	}
	return total
}

// JSON unmarshals the final value of a successful transaction into [v].
func (o *Outcome) JSON(v interface{}) error {
	if !o.IsSuccess() {
		return fmt.Errorf("transaction %s failed: %w", FormatID(o.TxID), o.Failure)
	}
	if len(o.Value) == 0 {
		return errNoValue
	}
	return json.Unmarshal(o.Value, v)
}

// WriteTable renders the receipt trace of the outcome to [w].
func (o *Outcome) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "receipt", "height", "predecessor", "receiver", "method", "gas (Tgas)", "status", "logs"})
	for i, r := range o.Receipts {
		method := r.Method
		if method == "" {
			method = "<transfer>"
		}
		status := r.Status.String()
		if r.Err != nil {
			status = r.Err.Error()
		}
		table.Append([]string{
			strconv.Itoa(i),
			shortID(r.ID),
			strconv.FormatUint(r.Height, 10),
			r.Predecessor.String(),
			r.Receiver.String(),
			method,
			strconv.FormatUint(r.GasBurnt.Tera(), 10),
			status,
			strings.Join(r.Logs, "\n"),
		})
	}
	table.SetCaption(true, fmt.Sprintf("tx %s: %s", FormatID(o.TxID), o.Status))
	table.Render()
}

// FormatID renders [id] in base58.
func FormatID(id ids.ID) string { return base58.Encode(id[:]) }

// ParseID parses an id rendered by FormatID.
func ParseID(s string) (ids.ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func shortID(id ids.ID) string {
	s := FormatID(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
