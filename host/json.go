// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeInput unmarshals the JSON input of the invoked method into [v].
// Malformed input aborts the frame.
func (h *Host) DecodeInput(v interface{}) error {
	if h.err != nil {
		return h.err
	}
	if err := json.Unmarshal(h.ctx.Input, v); err != nil {
		return h.Panic("Failed to deserialize input from JSON.")
	}
	return nil
}

// ReturnJSON sets the JSON encoding of [v] as the frame's value.
func (h *Host) ReturnJSON(v interface{}) error {
	if h.err != nil {
		return h.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return h.Panic("Failed to serialize the return value using JSON.")
	}
	return h.ValueReturn(data)
}

// DecodeResult unmarshals the JSON payload of a successful promise result.
func DecodeResult(result PromiseResult, v interface{}) error {
	return json.Unmarshal(result.Data, v)
}
