package geth

import (
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/eth2030/rpcbridge/core/types"
)

// Widening conversions are total. Narrowing conversions fail with
// ErrOverflow when the value does not fit; they never truncate. Negative
// big.Int values are out of range for every unsigned target. A nil input
// converts to a nil output.

// U8ToUint64 widens an 8-bit quantity.
func U8ToUint64(q types.U8) uint64 { return uint64(q) }

// U64ToBig widens a 64-bit quantity.
func U64ToBig(q *types.U64) *big.Int {
	if q == nil {
		return nil
	}
	return new(big.Int).SetUint64(uint64(*q))
}

// U128ToBig widens a 128-bit quantity.
func U128ToBig(q *types.U128) *big.Int {
	if q == nil {
		return nil
	}
	b := q.Bytes16()
	return new(big.Int).SetBytes(b[:])
}

// U256ToBig widens a 256-bit quantity.
func U256ToBig(q *types.U256) *big.Int {
	if q == nil {
		return nil
	}
	return q.Int().ToBig()
}

// Uint64ToU256 widens a uint64 to a 256-bit quantity.
func Uint64ToU256(v uint64) *types.U256 { return types.NewU256(v) }

// Uint64ToU128 widens a uint64 to a 128-bit quantity.
func Uint64ToU128(v uint64) *types.U128 {
	q := types.NewU128(0, v)
	return &q
}

// BigToU256 narrows a big.Int to 256 bits.
func BigToU256(b *big.Int) (*types.U256, error) {
	if b == nil {
		return nil, nil
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrOverflow, b)
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: %d bits exceeds 256", ErrOverflow, b.BitLen())
	}
	return (*types.U256)(u), nil
}

// BigToU128 narrows a big.Int to 128 bits.
func BigToU128(b *big.Int) (*types.U128, error) {
	if b == nil {
		return nil, nil
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrOverflow, b)
	}
	if b.BitLen() > 128 {
		return nil, fmt.Errorf("%w: %d bits exceeds 128", ErrOverflow, b.BitLen())
	}
	var buf [16]byte
	b.FillBytes(buf[:])
	q := types.U128FromBytes16(buf)
	return &q, nil
}

// BigToU64 narrows a big.Int to 64 bits.
func BigToU64(b *big.Int) (*types.U64, error) {
	if b == nil {
		return nil, nil
	}
	v, err := BigToUint64(b)
	if err != nil {
		return nil, err
	}
	q := types.U64(v)
	return &q, nil
}

// BigToUint64 narrows a non-nil big.Int to a uint64.
func BigToUint64(b *big.Int) (uint64, error) {
	if b.Sign() < 0 || !b.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrOverflow, b)
	}
	return b.Uint64(), nil
}

// U256ToUint64 narrows a non-nil 256-bit quantity to a uint64.
func U256ToUint64(q *types.U256) (uint64, error) {
	if !q.Int().IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrOverflow, q.Int().Hex())
	}
	return q.Int().Uint64(), nil
}

// U256ToU64 narrows a 256-bit quantity to a 64-bit quantity.
func U256ToU64(q *types.U256) (*types.U64, error) {
	if q == nil {
		return nil, nil
	}
	v, err := U256ToUint64(q)
	if err != nil {
		return nil, err
	}
	out := types.U64(v)
	return &out, nil
}

// U128ToUint64 narrows a non-nil 128-bit quantity to a uint64.
func U128ToUint64(q *types.U128) (uint64, error) {
	if !q.IsUint64() {
		b := q.Bytes16()
		return 0, fmt.Errorf("%w: 0x%x does not fit in 64 bits", ErrOverflow, b)
	}
	return q.Low(), nil
}

// Uint64ToU8 narrows a uint64 to an 8-bit quantity.
func Uint64ToU8(v uint64) (types.U8, error) {
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %d does not fit in 8 bits", ErrOverflow, v)
	}
	return types.U8(v), nil
}

// Uint64ToUint narrows a uint64 to the platform uint used by go-ethereum
// for indexes.
func Uint64ToUint(v uint64) (uint, error) {
	if v > math.MaxUint {
		return 0, fmt.Errorf("%w: %d does not fit in uint", ErrOverflow, v)
	}
	return uint(v), nil
}

// u256ToUint256 copies a 256-bit quantity, treating nil as zero.
func u256ToUint256(q *types.U256) *uint256.Int {
	if q == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(q.Int())
}

// u128ToUint256 widens a 128-bit quantity, treating nil as zero.
func u128ToUint256(q *types.U128) *uint256.Int {
	if q == nil {
		return new(uint256.Int)
	}
	b := q.Bytes16()
	return new(uint256.Int).SetBytes(b[:])
}

// u256FromUint256 copies a uint256.Int into a 256-bit quantity.
func u256FromUint256(u *uint256.Int) *types.U256 {
	if u == nil {
		return nil
	}
	return (*types.U256)(new(uint256.Int).Set(u))
}
