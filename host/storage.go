// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
)

func (h *Host) checkKey(key []byte) error {
	if uint64(len(key)) > h.config.Limits.MaxStorageKeyLength {
		return h.fail(NewError(KeyLengthExceeded, "length %d, limit %d", len(key), h.config.Limits.MaxStorageKeyLength))
	}
	return nil
}

// get reads [key] without charging gas.
func (h *Host) get(key []byte) ([]byte, bool, error) {
	value, err := h.storage.Get(key)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, database.ErrNotFound):
		return nil, false, nil
	default:
		return nil, false, h.fail(fmt.Errorf("storage read: %w", err))
	}
}

// StorageRead returns the value stored under [key] and whether it exists.
func (h *Host) StorageRead(key []byte) ([]byte, bool, error) {
	if err := h.checkKey(key); err != nil {
		return nil, false, err
	}
	fees := h.config.Fees
	if err := h.chargePer(fees.StorageReadBase, fees.StorageReadKeyByte, len(key)); err != nil {
		return nil, false, err
	}
	value, found, err := h.get(key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := h.chargePer(0, fees.StorageReadValueByte, len(value)); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// StorageWrite upserts [key] and returns the previous value if there was one.
func (h *Host) StorageWrite(key, value []byte) ([]byte, bool, error) {
	if h.err != nil {
		return nil, false, h.err
	}
	if h.ctx.IsView {
		return nil, false, h.fail(NewError(ProhibitedInView, "storage_write"))
	}
	if err := h.checkKey(key); err != nil {
		return nil, false, err
	}
	if uint64(len(value)) > h.config.Limits.MaxStorageValueLength {
		return nil, false, h.fail(NewError(ValueLengthExceeded, "length %d, limit %d", len(value), h.config.Limits.MaxStorageValueLength))
	}
	fees := h.config.Fees
	if err := h.chargePer(fees.StorageWriteBase, fees.StorageWriteKeyByte, len(key)); err != nil {
		return nil, false, err
	}
	if err := h.chargePer(0, fees.StorageWriteValueByte, len(value)); err != nil {
		return nil, false, err
	}
	prev, existed, err := h.get(key)
	if err != nil {
		return nil, false, err
	}
	if existed {
		if err := h.chargePer(0, fees.StorageWriteEvictedByte, len(prev)); err != nil {
			return nil, false, err
		}
		h.storageUsage = h.storageUsage + uint64(len(value)) - uint64(len(prev))
	} else {
		h.storageUsage += uint64(len(key)) + uint64(len(value)) + h.config.Limits.StorageRecordOverhead
	}
	if err := h.storage.Put(key, value); err != nil {
		return nil, false, h.fail(fmt.Errorf("storage write: %w", err))
	}
	return prev, existed, nil
}

// StorageRemove deletes [key] and returns the removed value if there was one.
func (h *Host) StorageRemove(key []byte) ([]byte, bool, error) {
	if h.err != nil {
		return nil, false, h.err
	}
	if h.ctx.IsView {
		return nil, false, h.fail(NewError(ProhibitedInView, "storage_remove"))
	}
	if err := h.checkKey(key); err != nil {
		return nil, false, err
	}
	fees := h.config.Fees
	if err := h.chargePer(fees.StorageRemoveBase, fees.StorageRemoveKeyByte, len(key)); err != nil {
		return nil, false, err
	}
	prev, existed, err := h.get(key)
	if err != nil || !existed {
		return nil, false, err
	}
	if err := h.chargePer(0, fees.StorageRemoveRetValueByte, len(prev)); err != nil {
		return nil, false, err
	}
	h.storageUsage -= uint64(len(key)) + uint64(len(prev)) + h.config.Limits.StorageRecordOverhead
	if err := h.storage.Delete(key); err != nil {
		return nil, false, h.fail(fmt.Errorf("storage remove: %w", err))
	}
	return prev, true, nil
}

// StorageHasKey reports whether [key] is present.
func (h *Host) StorageHasKey(key []byte) (bool, error) {
	if err := h.checkKey(key); err != nil {
		return false, err
	}
	fees := h.config.Fees
	if err := h.chargePer(fees.StorageHasKeyBase, fees.StorageHasKeyByte, len(key)); err != nil {
		return false, err
	}
	has, err := h.storage.Has(key)
	if err != nil {
		return false, h.fail(fmt.Errorf("storage has key: %w", err))
	}
	return has, nil
}

// StorageKeys returns every stored key in ascending order. It is free and
// meant for test inspection.
func (h *Host) StorageKeys() ([][]byte, error) {
	it := h.storage.NewIterator()
	defer it.Release()

	var keys [][]byte
	for it.Next() {
		keys = append(keys, copyBytes(it.Key()))
	}
	return keys, it.Error()
}
