// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"github.com/ava-labs/contractvm/vmcontext"
)

// Config holds the fee schedule and limits a Host enforces.
type Config struct {
	Fees   Fees   `mapstructure:"fees"`
	Limits Limits `mapstructure:"limits"`
}

// Fees are the gas costs of host operations. They only need to be
// deterministic, not economically meaningful.
type Fees struct {
	ContractCallBase uint64 `mapstructure:"contract-call-base"`

	StorageReadBase      uint64 `mapstructure:"storage-read-base"`
	StorageReadKeyByte   uint64 `mapstructure:"storage-read-key-byte"`
	StorageReadValueByte uint64 `mapstructure:"storage-read-value-byte"`

	StorageWriteBase        uint64 `mapstructure:"storage-write-base"`
	StorageWriteKeyByte     uint64 `mapstructure:"storage-write-key-byte"`
	StorageWriteValueByte   uint64 `mapstructure:"storage-write-value-byte"`
	StorageWriteEvictedByte uint64 `mapstructure:"storage-write-evicted-byte"`

	StorageRemoveBase         uint64 `mapstructure:"storage-remove-base"`
	StorageRemoveKeyByte      uint64 `mapstructure:"storage-remove-key-byte"`
	StorageRemoveRetValueByte uint64 `mapstructure:"storage-remove-ret-value-byte"`

	StorageHasKeyBase uint64 `mapstructure:"storage-has-key-base"`
	StorageHasKeyByte uint64 `mapstructure:"storage-has-key-byte"`

	LogBase uint64 `mapstructure:"log-base"`
	LogByte uint64 `mapstructure:"log-byte"`

	ReceiptCreation  uint64 `mapstructure:"receipt-creation"`
	FunctionCallBase uint64 `mapstructure:"function-call-base"`
	FunctionCallByte uint64 `mapstructure:"function-call-byte"`
	Transfer         uint64 `mapstructure:"transfer"`

	PromiseReturn     uint64 `mapstructure:"promise-return"`
	PromiseResultBase uint64 `mapstructure:"promise-result-base"`
	PromiseResultByte uint64 `mapstructure:"promise-result-byte"`
	ValueReturnByte   uint64 `mapstructure:"value-return-byte"`

	ValidatorStakeBase      uint64 `mapstructure:"validator-stake-base"`
	ValidatorTotalStakeBase uint64 `mapstructure:"validator-total-stake-base"`
}

// Limits bound what a single frame may do.
type Limits struct {
	MaxGasBurnt           uint64 `mapstructure:"max-gas-burnt"`
	MaxNumberLogs         uint64 `mapstructure:"max-number-logs"`
	MaxTotalLogLength     uint64 `mapstructure:"max-total-log-length"`
	MaxStorageKeyLength   uint64 `mapstructure:"max-storage-key-length"`
	MaxStorageValueLength uint64 `mapstructure:"max-storage-value-length"`
	MaxArgumentsLength    uint64 `mapstructure:"max-arguments-length"`
	MaxPromisesPerFrame   uint64 `mapstructure:"max-promises-per-frame"`

	// StorageRecordOverhead is charged to storage usage for every stored key.
	StorageRecordOverhead uint64 `mapstructure:"storage-record-overhead"`
}

// DefaultConfig returns the fee schedule and limits used by tests.
func DefaultConfig() Config {
	return Config{
		Fees: Fees{
			ContractCallBase: 2_428_000_000_000,

			StorageReadBase:      56_356_845_750,
			StorageReadKeyByte:   30_952_533,
			StorageReadValueByte: 5_611_005,

			StorageWriteBase:        64_196_736_000,
			StorageWriteKeyByte:     70_482_867,
			StorageWriteValueByte:   31_018_539,
			StorageWriteEvictedByte: 32_117_307,

			StorageRemoveBase:         53_473_030_500,
			StorageRemoveKeyByte:      38_220_384,
			StorageRemoveRetValueByte: 11_531_556,

			StorageHasKeyBase: 54_039_896_625,
			StorageHasKeyByte: 30_790_845,

			LogBase: 3_543_313_050,
			LogByte: 13_198_791,

			ReceiptCreation:  108_059_500_000,
			FunctionCallBase: 2_319_861_500_000,
			FunctionCallByte: 2_235_934,
			Transfer:         115_123_062_500,

			PromiseReturn:     560_152_386,
			PromiseResultBase: 1_000_000_000,
			PromiseResultByte: 1_000_000,
			ValueReturnByte:   1_000_000,

			ValidatorStakeBase:      911_834_726_400,
			ValidatorTotalStakeBase: 911_834_726_400,
		},
		Limits: Limits{
			MaxGasBurnt:           uint64(vmcontext.MaxGas),
			MaxNumberLogs:         100,
			MaxTotalLogLength:     16 * 1024,
			MaxStorageKeyLength:   2 * 1024,
			MaxStorageValueLength: 4 * 1024 * 1024,
			MaxArgumentsLength:    4 * 1024 * 1024,
			MaxPromisesPerFrame:   100,
			StorageRecordOverhead: 40,
		},
	}
}
