package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"
)

// Quantities are unsigned integers of a fixed bit width. The 128 and 256 bit
// forms keep their value in little-endian 64-bit limbs; the BytesN accessors
// always return the canonical big-endian encoding.

var (
	errEmptyQuantity = errors.New("empty hex quantity")
	errLeadingZero   = errors.New("hex quantity with leading zero digits")
	errQuantityRange = errors.New("hex quantity exceeds width")
	errInvalidDigit  = errors.New("invalid hex digit")
)

// U8 is an 8-bit quantity, used for transaction type tags.
type U8 uint8

// U64 is a 64-bit quantity.
type U64 uint64

// U128 is a 128-bit quantity stored as two little-endian limbs: [0] holds
// the low 64 bits and [1] the high 64 bits.
type U128 [2]uint64

// U256 is a 256-bit quantity with the limb layout of uint256.Int.
type U256 uint256.Int

// Bytes1 returns the one-byte big-endian encoding.
func (q U8) Bytes1() [1]byte { return [1]byte{byte(q)} }

// MarshalText encodes the quantity as 0x-prefixed hex without leading zeros.
func (q U8) MarshalText() ([]byte, error) { return encodeUint64(uint64(q)), nil }

// UnmarshalText decodes a hex quantity of at most 8 bits.
func (q *U8) UnmarshalText(input []byte) error {
	v, err := decodeUint(input, 8)
	if err != nil {
		return fmt.Errorf("U8: %w", err)
	}
	*q = U8(v)
	return nil
}

// Bytes8 returns the eight-byte big-endian encoding.
func (q U64) Bytes8() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(q))
	return b
}

// MarshalText encodes the quantity as 0x-prefixed hex without leading zeros.
func (q U64) MarshalText() ([]byte, error) { return encodeUint64(uint64(q)), nil }

// UnmarshalText decodes a hex quantity of at most 64 bits.
func (q *U64) UnmarshalText(input []byte) error {
	v, err := decodeUint(input, 64)
	if err != nil {
		return fmt.Errorf("U64: %w", err)
	}
	*q = U64(v)
	return nil
}

// NewU128 builds a 128-bit quantity from its high and low halves.
func NewU128(hi, lo uint64) U128 { return U128{lo, hi} }

// U128FromBytes16 decodes a big-endian 16-byte value.
func U128FromBytes16(b [16]byte) U128 {
	return U128{binary.BigEndian.Uint64(b[8:]), binary.BigEndian.Uint64(b[:8])}
}

// Bytes16 returns the sixteen-byte big-endian encoding.
func (q U128) Bytes16() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], q[1])
	binary.BigEndian.PutUint64(b[8:], q[0])
	return b
}

// IsUint64 reports whether the value fits in 64 bits.
func (q U128) IsUint64() bool { return q[1] == 0 }

// Low returns the low 64 bits.
func (q U128) Low() uint64 { return q[0] }

// MarshalText encodes the quantity as 0x-prefixed hex without leading zeros.
func (q U128) MarshalText() ([]byte, error) {
	if q[1] == 0 {
		return encodeUint64(q[0]), nil
	}
	return []byte(fmt.Sprintf("0x%x%016x", q[1], q[0])), nil
}

// UnmarshalText decodes a hex quantity of at most 128 bits.
func (q *U128) UnmarshalText(input []byte) error {
	digits, err := quantityDigits(input)
	if err != nil {
		return fmt.Errorf("U128: %w", err)
	}
	if len(digits) > 32 {
		return fmt.Errorf("U128: %w", errQuantityRange)
	}
	var hi, lo uint64
	split := len(digits) - 16
	if split > 0 {
		if hi, err = strconv.ParseUint(digits[:split], 16, 64); err != nil {
			return fmt.Errorf("U128: %w", errInvalidDigit)
		}
		digits = digits[split:]
	}
	if lo, err = strconv.ParseUint(digits, 16, 64); err != nil {
		return fmt.Errorf("U128: %w", errInvalidDigit)
	}
	*q = NewU128(hi, lo)
	return nil
}

// NewU256 returns a 256-bit quantity holding v.
func NewU256(v uint64) *U256 {
	return (*U256)(uint256.NewInt(v))
}

// Int exposes the value as a *uint256.Int sharing the same storage.
func (q *U256) Int() *uint256.Int { return (*uint256.Int)(q) }

// Bytes32 returns the 32-byte big-endian encoding.
func (q *U256) Bytes32() [32]byte { return q.Int().Bytes32() }

// MarshalText encodes the quantity as 0x-prefixed hex without leading zeros.
func (q U256) MarshalText() ([]byte, error) {
	return []byte((*uint256.Int)(&q).Hex()), nil
}

// UnmarshalText decodes a hex quantity of at most 256 bits.
func (q *U256) UnmarshalText(input []byte) error {
	if _, err := quantityDigits(input); err != nil {
		return fmt.Errorf("U256: %w", err)
	}
	if err := q.Int().SetFromHex(string(input)); err != nil {
		return fmt.Errorf("U256: %w", err)
	}
	return nil
}

func encodeUint64(v uint64) []byte {
	return []byte("0x" + strconv.FormatUint(v, 16))
}

// quantityDigits validates the JSON-RPC quantity form and returns the digits.
func quantityDigits(input []byte) (string, error) {
	if !has0xPrefix(string(input)) {
		return "", errMissingPrefix
	}
	digits := string(input[2:])
	if len(digits) == 0 {
		return "", errEmptyQuantity
	}
	if len(digits) > 1 && digits[0] == '0' {
		return "", errLeadingZero
	}
	return digits, nil
}

func decodeUint(input []byte, bits int) (uint64, error) {
	digits, err := quantityDigits(input)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(digits, 16, bits)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, errQuantityRange
		}
		return 0, errInvalidDigit
	}
	return v, nil
}
