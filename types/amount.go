// Package types provides value types shared by the subledger surfaces.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/subledger/checked"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

const solDecimals = 9

// Amount is a balance or price in lamports. All arithmetic is integer-only.
//
// Examples:
//   - Amount(1_000_000_000) = 1 SOL
//   - Amount(100_000_000) = 0.1 SOL
type Amount uint64

// SOL converts a whole number of SOL to an Amount.
func SOL(whole uint64) (Amount, error) {
	v, err := checked.MulU64(whole, LamportsPerSOL)
	return Amount(v), err
}

// Lamports returns the raw value.
func (a Amount) Lamports() uint64 { return uint64(a) }

// FormatSOL renders a in SOL with trailing zeros trimmed: "0.1", "1000",
// "0.000000001".
func (a Amount) FormatSOL() string {
	major := uint64(a) / LamportsPerSOL
	minor := uint64(a) % LamportsPerSOL
	if minor == 0 {
		return strconv.FormatUint(major, 10)
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*d", solDecimals, minor), "0")
	return strconv.FormatUint(major, 10) + "." + frac
}

// String returns a human-readable value, e.g. "0.1 SOL".
func (a Amount) String() string { return a.FormatSOL() + " SOL" }

// MarshalJSON emits the raw lamports alongside a display string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lamports uint64 `json:"lamports"`
		Display  string `json:"display"`
	}{
		Lamports: uint64(a),
		Display:  a.String(),
	})
}

// ParseAmount parses a lamport count ("100000000") or a SOL value with a
// "sol" suffix ("0.1sol", "2 SOL"). SOL values may carry at most nine
// decimals.
func ParseAmount(s string) (Amount, error) {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)
	if !strings.HasSuffix(lower, "sol") {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("types: invalid amount %q", s)
		}
		return Amount(v), nil
	}

	num := strings.TrimSpace(strings.TrimSuffix(lower, "sol"))
	whole, frac, hasFrac := strings.Cut(num, ".")
	if whole == "" && !hasFrac {
		return 0, fmt.Errorf("types: invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: invalid amount %q", s)
	}
	total, err := checked.MulU64(w, LamportsPerSOL)
	if err != nil {
		return 0, err
	}
	if hasFrac {
		if frac == "" || len(frac) > solDecimals {
			return 0, fmt.Errorf("types: invalid amount %q", s)
		}
		f, err := strconv.ParseUint(frac+strings.Repeat("0", solDecimals-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("types: invalid amount %q", s)
		}
		if total, err = checked.AddU64(total, f); err != nil {
			return 0, err
		}
	}
	return Amount(total), nil
}
