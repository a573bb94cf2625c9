// Package account defines the 32-byte addresses shared by identities and
// records, and the deterministic derivation of record addresses.
//
// An identity address is an ed25519 public key. A record address is a
// blake2b-256 digest over a namespace tag and a sequence of seeds, so the
// same key fields always map to the same slot and no caller can choose a
// record address directly.
package account

import (
	"crypto/ed25519"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Size is the byte length of an Address.
const Size = 32

// Namespace tags for record addresses.
const (
	TagPlan         = "plan"
	TagSubscription = "subscription"
)

// derivationDomain separates record addresses from any other blake2b use.
const derivationDomain = "subledger/record-address/v1"

// ErrInvalidAddress is returned when text does not decode to an address.
var ErrInvalidAddress = errors.New("account: invalid address")

// Address identifies an account: either an identity or a record slot.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Address [Size]byte

// Zero is the empty address.
var Zero Address

// FromPublicKey returns the identity address of an ed25519 public key.
func FromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Zero, fmt.Errorf("%w: public key has %d bytes", ErrInvalidAddress, len(pub))
	}
	var a Address
	copy(a[:], pub)
	return a, nil
}

// Parse decodes the hex text form of an address.
func Parse(s string) (Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != Size {
		return Zero, fmt.Errorf("%w: %q has %d bytes", ErrInvalidAddress, s, len(raw))
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// String returns the lowercase hex form.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Zero }

// PublicKey returns the address as an ed25519 public key.
func (a Address) PublicKey() ed25519.PublicKey {
	pub := make(ed25519.PublicKey, Size)
	copy(pub, a[:])
	return pub
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("account: cannot scan %T into Address", src)
	}
}

// ──────────────────────────────────────────────────
// Record address derivation
// ──────────────────────────────────────────────────

// Derive returns the record address for a namespace tag and seeds. Each
// part is length-prefixed so distinct seed sequences never collide by
// concatenation.
func Derive(tag string, seeds ...[]byte) Address {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only returned for an oversized key; nil is always accepted.
		panic(err)
	}
	writePart(h, []byte(derivationDomain))
	writePart(h, []byte(tag))
	for _, s := range seeds {
		writePart(h, s)
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func writePart(w interface{ Write([]byte) (int, error) }, p []byte) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(p)))
	_, _ = w.Write(n[:])
	_, _ = w.Write(p)
}

// PlanAddress is the address of creator's plan number planID.
func PlanAddress(creator Address, planID uint64) Address {
	return Derive(TagPlan, creator[:], u64le(planID))
}

// SubscriptionAddress is the address of subscriber's subscription to
// creator's plan number planID.
func SubscriptionAddress(subscriber, creator Address, planID uint64) Address {
	return Derive(TagSubscription, subscriber[:], creator[:], u64le(planID))
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
