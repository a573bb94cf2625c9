// Package checked provides overflow-checked integer arithmetic.
//
// Every balance, price, rent and timestamp computation in subledger goes
// through these helpers. None of them wrap silently: on overflow they
// return ErrOverflow and a zero value.
package checked

import (
	"errors"
	"math"
	"math/bits"
)

// ErrOverflow is returned when an operation would overflow its type.
var ErrOverflow = errors.New("subledger: mathematical operation overflow")

// AddU64 returns a+b.
func AddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SumU64 adds all values left to right, failing on the first overflow.
func SumU64(values ...uint64) (uint64, error) {
	var total uint64
	for _, v := range values {
		next, err := AddU64(total, v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

// SubU64 returns a-b. Underflow is reported as ErrOverflow.
func SubU64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MulU64 returns a*b.
func MulU64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// AddI64 returns a+b.
func AddI64(a, b int64) (int64, error) {
	sum := a + b
	// Overflow iff both operands share a sign that the result does not.
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// MulI64 returns a*b.
func MulI64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	product := a * b
	if product/b != a {
		return 0, ErrOverflow
	}
	return product, nil
}
