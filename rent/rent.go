// Package rent computes the minimum balance a record slot must hold.
//
// The defaults reproduce the Solana rent schedule: every account pays for
// its data plus a fixed metadata overhead at 3480 lamports per byte-year,
// and is exempt once it holds two years' worth.
package rent

import "github.com/xraph/subledger/checked"

// Default schedule values.
const (
	DefaultLamportsPerByteYear uint64 = 3480
	DefaultExemptionThreshold  uint64 = 2
	AccountStorageOverhead     uint64 = 128
)

// Calculator derives minimum balances for a record size.
type Calculator struct {
	LamportsPerByteYear uint64 `json:"lamports_per_byte_year" mapstructure:"lamports_per_byte_year"`
	ExemptionThreshold  uint64 `json:"exemption_threshold" mapstructure:"exemption_threshold"`
}

// Default returns the standard schedule.
func Default() Calculator {
	return Calculator{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
	}
}

// MinimumBalance returns the balance a record of size bytes must hold.
func (c Calculator) MinimumBalance(size uint64) (uint64, error) {
	bytes, err := checked.AddU64(AccountStorageOverhead, size)
	if err != nil {
		return 0, err
	}
	perYear, err := checked.MulU64(bytes, c.LamportsPerByteYear)
	if err != nil {
		return 0, err
	}
	return checked.MulU64(perYear, c.ExemptionThreshold)
}
