// Package base58 provides helpers for decoding base58-encoded addresses
// into fixed-size public keys.
package base58

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// DecodeFromString decodes a base58 string into a 32-byte public key.
func DecodeFromString(s string) (solana.PublicKey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to decode base58 string %q: %w", s, err)
	}
	if len(data) != 32 {
		return solana.PublicKey{}, fmt.Errorf("decoded base58 string %q is %d bytes, expected 32", s, len(data))
	}
	return solana.PublicKeyFromBytes(data), nil
}

// MustDecodeFromString is DecodeFromString for known-good constants.
// Panics on malformed input.
func MustDecodeFromString(s string) solana.PublicKey {
	pubkey, err := DecodeFromString(s)
	if err != nil {
		panic(err.Error())
	}
	return pubkey
}

// EncodeToString encodes raw bytes as base58.
func EncodeToString(data []byte) string {
	return base58.Encode(data)
}
