package geth

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/eth2030/rpcbridge/core/types"
)

func mustBig(t *testing.T, hex string) *big.Int {
	t.Helper()
	b, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		t.Fatalf("bad hex %q", hex)
	}
	return b
}

func TestBigToU64(t *testing.T) {
	q, err := BigToU64(big.NewInt(0x05))
	if err != nil {
		t.Fatalf("BigToU64(5): %v", err)
	}
	if *q != 5 {
		t.Errorf("BigToU64(5) = %d, want 5", *q)
	}

	q, err = BigToU64(new(big.Int).SetUint64(math.MaxUint64))
	if err != nil {
		t.Fatalf("BigToU64(max): %v", err)
	}
	if uint64(*q) != math.MaxUint64 {
		t.Errorf("BigToU64(max) = %d", *q)
	}
}

func TestNarrowOverflow(t *testing.T) {
	tooWide := mustBig(t, "FFFFFFFFFFFFFFFF1")
	if _, err := BigToU64(tooWide); !errors.Is(err, ErrOverflow) {
		t.Errorf("BigToU64(2^68-15) err = %v, want ErrOverflow", err)
	}

	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	if _, err := BigToU128(two128); !errors.Is(err, ErrOverflow) {
		t.Errorf("BigToU128(2^128) err = %v, want ErrOverflow", err)
	}
	if _, err := BigToU128(new(big.Int).Sub(two128, big.NewInt(1))); err != nil {
		t.Errorf("BigToU128(2^128-1): %v", err)
	}

	two256 := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := BigToU256(two256); !errors.Is(err, ErrOverflow) {
		t.Errorf("BigToU256(2^256) err = %v, want ErrOverflow", err)
	}

	for name, fn := range map[string]func(*big.Int) error{
		"U64":  func(b *big.Int) error { _, err := BigToU64(b); return err },
		"U128": func(b *big.Int) error { _, err := BigToU128(b); return err },
		"U256": func(b *big.Int) error { _, err := BigToU256(b); return err },
	} {
		if err := fn(big.NewInt(-1)); !errors.Is(err, ErrOverflow) {
			t.Errorf("%s(-1) err = %v, want ErrOverflow", name, err)
		}
	}
}

func TestNarrowU256ToUint64(t *testing.T) {
	q := new(types.U256)
	q.Int().Lsh(types.NewU256(1).Int(), 64)
	if _, err := U256ToUint64(q); !errors.Is(err, ErrOverflow) {
		t.Errorf("U256ToUint64(2^64) err = %v, want ErrOverflow", err)
	}
	v, err := U256ToUint64(types.NewU256(42))
	if err != nil || v != 42 {
		t.Errorf("U256ToUint64(42) = %d, %v", v, err)
	}

	if _, err := Uint64ToU8(256); !errors.Is(err, ErrOverflow) {
		t.Errorf("Uint64ToU8(256) err = %v, want ErrOverflow", err)
	}
	if b, err := Uint64ToU8(255); err != nil || b != 255 {
		t.Errorf("Uint64ToU8(255) = %d, %v", b, err)
	}

	wide := types.NewU128(1, 0)
	if _, err := U128ToUint64(&wide); !errors.Is(err, ErrOverflow) {
		t.Errorf("U128ToUint64(2^64) err = %v, want ErrOverflow", err)
	}
}

func TestWidenNarrowRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 5, math.MaxUint32, math.MaxUint64} {
		q := types.U64(v)
		back, err := BigToU64(U64ToBig(&q))
		if err != nil || *back != q {
			t.Errorf("U64 %d: got %v, %v", v, back, err)
		}
	}

	for _, q := range []types.U128{
		types.NewU128(0, 0),
		types.NewU128(0, math.MaxUint64),
		types.NewU128(1<<63, 3),
		types.NewU128(math.MaxUint64, math.MaxUint64),
	} {
		back, err := BigToU128(U128ToBig(&q))
		if err != nil || *back != q {
			t.Errorf("U128 %v: got %v, %v", q, back, err)
		}
	}

	top := new(types.U256)
	top.Int().Lsh(types.NewU256(1).Int(), 255)
	for _, q := range []*types.U256{types.NewU256(0), types.NewU256(7), top} {
		back, err := BigToU256(U256ToBig(q))
		if err != nil || *back != *q {
			t.Errorf("U256 %v: got %v, %v", q.Int(), back, err)
		}
	}
}

// Limb order must not leak into the value: the high half of a U128 is the
// most significant.
func TestWidenByteOrder(t *testing.T) {
	q := types.NewU128(0x0102030405060708, 0x090a0b0c0d0e0f10)
	if got, want := U128ToBig(&q).Text(16), "102030405060708090a0b0c0d0e0f10"; got != want {
		t.Errorf("U128ToBig = %s, want %s", got, want)
	}

	u := new(types.U256)
	u.Int().SetBytes([]byte{0xaa, 0, 0, 0, 0, 0, 0, 0, 0xbb})
	if got, want := U256ToBig(u).Text(16), "aa00000000000000bb"; got != want {
		t.Errorf("U256ToBig = %s, want %s", got, want)
	}

	q64 := types.U64(0x0102)
	if got := U64ToBig(&q64).Int64(); got != 0x0102 {
		t.Errorf("U64ToBig = %#x, want 0x102", got)
	}
}

func TestNilPassesThrough(t *testing.T) {
	if U64ToBig(nil) != nil || U128ToBig(nil) != nil || U256ToBig(nil) != nil {
		t.Error("widening nil should give nil")
	}
	if q, err := BigToU256(nil); q != nil || err != nil {
		t.Errorf("BigToU256(nil) = %v, %v", q, err)
	}
	if q, err := BigToU128(nil); q != nil || err != nil {
		t.Errorf("BigToU128(nil) = %v, %v", q, err)
	}
}
