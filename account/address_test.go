package account_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger/account"
)

func newIdentity(t *testing.T) account.Address {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	a, err := account.FromPublicKey(pub)
	require.NoError(t, err)
	return a
}

func TestPlanAddressDeterministic(t *testing.T) {
	creator := newIdentity(t)

	a1 := account.PlanAddress(creator, 1)
	a2 := account.PlanAddress(creator, 1)
	assert.Equal(t, a1, a2)

	assert.NotEqual(t, a1, account.PlanAddress(creator, 2))
	assert.NotEqual(t, a1, account.PlanAddress(newIdentity(t), 1))
	assert.NotEqual(t, a1, creator)
}

func TestSubscriptionAddressDistinct(t *testing.T) {
	subscriber := newIdentity(t)
	creator := newIdentity(t)

	sub := account.SubscriptionAddress(subscriber, creator, 7)
	assert.Equal(t, sub, account.SubscriptionAddress(subscriber, creator, 7))

	// Swapping roles yields another slot.
	assert.NotEqual(t, sub, account.SubscriptionAddress(creator, subscriber, 7))
	assert.NotEqual(t, sub, account.SubscriptionAddress(subscriber, creator, 8))
	// Namespaces never overlap.
	assert.NotEqual(t, account.PlanAddress(creator, 7), sub)
}

func TestDeriveLengthPrefixed(t *testing.T) {
	a := account.Derive("t", []byte("ab"), []byte("c"))
	b := account.Derive("t", []byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
}

func TestParseRoundTrip(t *testing.T) {
	a := newIdentity(t)

	parsed, err := account.Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	raw, err := json.Marshal(struct {
		A account.Address `json:"a"`
	}{a})
	require.NoError(t, err)
	assert.Contains(t, string(raw), a.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not hex", "zz"},
		{"short", "abcd"},
		{"long", a64() + "00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := account.Parse(tt.input)
			require.ErrorIs(t, err, account.ErrInvalidAddress)
		})
	}
}

func TestFromPublicKeyRejectsShortKey(t *testing.T) {
	_, err := account.FromPublicKey(ed25519.PublicKey{1, 2, 3})
	require.ErrorIs(t, err, account.ErrInvalidAddress)
}

func TestScan(t *testing.T) {
	want := newIdentity(t)

	var got account.Address
	require.NoError(t, got.Scan(want.String()))
	assert.Equal(t, want, got)

	require.NoError(t, got.Scan([]byte(want.String())))
	assert.Equal(t, want, got)

	require.Error(t, got.Scan(42))
}

func a64() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
