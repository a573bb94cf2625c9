// Package auth turns signatures into Signer capabilities.
//
// A Signer proves that the holder of an identity authorized the current
// invocation. It can only be obtained from a Keypair the caller holds or
// by verifying an ed25519 signature, and it is passed explicitly to every
// mutating engine operation.
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/xraph/subledger/account"
)

// ErrInvalidSignature is returned when a signature does not verify.
var ErrInvalidSignature = errors.New("auth: invalid signature")

// Signer is a verified identity. The zero value is not a valid signer.
type Signer struct {
	addr  account.Address
	valid bool
}

// Address returns the verified identity.
func (s Signer) Address() account.Address { return s.addr }

// Valid reports whether s was produced by verification.
func (s Signer) Valid() bool { return s.valid }

// Verify checks sig over msg against the identity addr and returns a
// Signer on success.
func Verify(addr account.Address, msg, sig []byte) (Signer, error) {
	if len(sig) != ed25519.SignatureSize {
		return Signer{}, fmt.Errorf("%w: signature has %d bytes", ErrInvalidSignature, len(sig))
	}
	if !ed25519.Verify(addr.PublicKey(), msg, sig) {
		return Signer{}, ErrInvalidSignature
	}
	return Signer{addr: addr, valid: true}, nil
}

// Keypair is an ed25519 identity with its private key.
type Keypair struct {
	priv ed25519.PrivateKey
	addr account.Address
}

// GenerateKeypair creates a random keypair.
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("auth: generate key: %w", err)
	}
	return newKeypair(priv)
}

// KeypairFromSeed restores a keypair from its 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("auth: seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed))
}

func newKeypair(priv ed25519.PrivateKey) (*Keypair, error) {
	addr, err := account.FromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, addr: addr}, nil
}

// Address returns the identity address.
func (k *Keypair) Address() account.Address { return k.addr }

// Seed returns the private seed.
func (k *Keypair) Seed() []byte { return k.priv.Seed() }

// Sign signs msg.
func (k *Keypair) Sign(msg []byte) []byte { return ed25519.Sign(k.priv, msg) }

// Signer returns the capability for this keypair's identity. Holding the
// private key is proof of authorization.
func (k *Keypair) Signer() Signer {
	return Signer{addr: k.addr, valid: true}
}
