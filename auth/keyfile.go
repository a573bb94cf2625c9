package auth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type keyFile struct {
	Address string `json:"address"`
	Seed    string `json:"seed"`
}

// SaveKeypair writes k to path with owner-only permissions.
func SaveKeypair(path string, k *Keypair) error {
	raw, err := json.MarshalIndent(keyFile{
		Address: k.Address().String(),
		Seed:    hex.EncodeToString(k.Seed()),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: encode keypair: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("auth: create key directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("auth: write keypair: %w", err)
	}
	return nil
}

// LoadKeypair reads a keypair written by SaveKeypair.
func LoadKeypair(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read keypair: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("auth: decode keypair %s: %w", path, err)
	}
	seed, err := hex.DecodeString(kf.Seed)
	if err != nil {
		return nil, fmt.Errorf("auth: decode seed: %w", err)
	}
	k, err := KeypairFromSeed(seed)
	if err != nil {
		return nil, err
	}
	if kf.Address != "" && kf.Address != k.Address().String() {
		return nil, fmt.Errorf("auth: keypair %s: address does not match seed", path)
	}
	return k, nil
}
