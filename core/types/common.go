// Package types defines the node's internal Ethereum primitives: addresses,
// hashes, bloom filters, byte strings and fixed-width quantities.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
)

var (
	errMissingPrefix = errors.New("hex string without 0x prefix")
	errOddLength     = errors.New("hex string of odd length")
)

// Hash represents the 32-byte Keccak256 hash of data.
type Hash [HashLength]byte

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// Bloom represents a 2048-bit bloom filter.
type Bloom [BloomLength]byte

// Bytes is a byte string that encodes as 0x-prefixed hex in JSON.
type Bytes []byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// MarshalText encodes the hash as 0x-prefixed hex.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText decodes exactly 32 bytes of 0x-prefixed hex.
func (h *Hash) UnmarshalText(input []byte) error {
	return decodeFixed("Hash", input, h[:])
}

// BytesToAddress converts bytes to Address, left-padding if shorter than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// MarshalText encodes the address as 0x-prefixed hex.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText decodes exactly 20 bytes of 0x-prefixed hex.
func (a *Address) UnmarshalText(input []byte) error {
	return decodeFixed("Address", input, a[:])
}

// Bytes returns the byte representation of the bloom.
func (b Bloom) Bytes() []byte { return b[:] }

// MarshalText encodes the bloom as 0x-prefixed hex.
func (b Bloom) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(b[:])), nil
}

// UnmarshalText decodes exactly 256 bytes of 0x-prefixed hex.
func (b *Bloom) UnmarshalText(input []byte) error {
	return decodeFixed("Bloom", input, b[:])
}

// MarshalText encodes the byte string as 0x-prefixed hex.
func (b Bytes) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(b)), nil
}

// UnmarshalText decodes 0x-prefixed hex of any even length.
func (b *Bytes) UnmarshalText(input []byte) error {
	raw, err := checkHex(input)
	if err != nil {
		return fmt.Errorf("Bytes: %w", err)
	}
	dec := make([]byte, len(raw)/2)
	if _, err := hex.Decode(dec, raw); err != nil {
		return fmt.Errorf("Bytes: %w", err)
	}
	*b = dec
	return nil
}

// decodeFixed decodes 0x-prefixed hex into out, which fixes the length.
func decodeFixed(typ string, input, out []byte) error {
	raw, err := checkHex(input)
	if err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	if len(raw)/2 != len(out) {
		return fmt.Errorf("%s: hex string has length %d, want %d", typ, len(raw), len(out)*2)
	}
	if _, err := hex.Decode(out, raw); err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	return nil
}

func checkHex(input []byte) ([]byte, error) {
	if !has0xPrefix(string(input)) {
		return nil, errMissingPrefix
	}
	raw := input[2:]
	if len(raw)%2 != 0 {
		return nil, errOddLength
	}
	return raw, nil
}

// fromHex decodes a hex string, stripping optional "0x" prefix.
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
