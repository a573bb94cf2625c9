package checked_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger/checked"
)

func TestAddU64(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"small", 1, 2, 3, false},
		{"zero", 0, 0, 0, false},
		{"max plus zero", math.MaxUint64, 0, math.MaxUint64, false},
		{"max plus one", math.MaxUint64, 1, 0, true},
		{"two halves", math.MaxUint64/2 + 1, math.MaxUint64/2 + 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checked.AddU64(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, checked.ErrOverflow)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSumU64(t *testing.T) {
	got, err := checked.SumU64(1000, 1_559_040, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(11_560_040), got)

	_, err = checked.SumU64(math.MaxUint64-5, 3, 3)
	require.ErrorIs(t, err, checked.ErrOverflow)

	got, err = checked.SumU64()
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestSubU64(t *testing.T) {
	got, err := checked.SubU64(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)

	_, err = checked.SubU64(3, 10)
	require.ErrorIs(t, err, checked.ErrOverflow)
}

func TestMulU64(t *testing.T) {
	got, err := checked.MulU64(365, 86_400)
	require.NoError(t, err)
	assert.Equal(t, uint64(31_536_000), got)

	_, err = checked.MulU64(math.MaxUint64, 2)
	require.ErrorIs(t, err, checked.ErrOverflow)

	got, err = checked.MulU64(math.MaxUint64, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAddI64(t *testing.T) {
	tests := []struct {
		name    string
		a, b    int64
		want    int64
		wantErr bool
	}{
		{"positive", 1_700_000_000, 2_592_000, 1_702_592_000, false},
		{"negative", -5, -6, -11, false},
		{"mixed signs never overflow", math.MaxInt64, math.MinInt64, -1, false},
		{"positive overflow", math.MaxInt64, 1, 0, true},
		{"negative overflow", math.MinInt64, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checked.AddI64(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, checked.ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMulI64(t *testing.T) {
	tests := []struct {
		name    string
		a, b    int64
		want    int64
		wantErr bool
	}{
		{"days to seconds", 30, 86_400, 2_592_000, false},
		{"zero", 0, math.MaxInt64, 0, false},
		{"negative", -3, 4, -12, false},
		{"overflow", math.MaxInt64/2 + 1, 2, 0, true},
		{"min times minus one", math.MinInt64, -1, 0, true},
		{"minus one times min", -1, math.MinInt64, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checked.MulI64(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, checked.ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
