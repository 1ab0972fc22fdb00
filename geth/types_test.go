package geth

import (
	"errors"
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
)

func TestAddressHashRoundTrip(t *testing.T) {
	a := types.HexToAddress("0x00000000000000000000000000000000000000aa")
	if got := ToGethAddress(a); got != gethcommon.HexToAddress("0xaa") {
		t.Errorf("ToGethAddress = %s", got.Hex())
	}
	if FromGethAddress(ToGethAddress(a)) != a {
		t.Error("address round trip mismatch")
	}
	h := types.HexToHash("0xbeef")
	if got := ToGethHash(h); got != gethcommon.HexToHash("0xbeef") {
		t.Errorf("ToGethHash = %s", got.Hex())
	}
	if FromGethHash(ToGethHash(h)) != h {
		t.Error("hash round trip mismatch")
	}
}

// The internal bloom must set the same bits go-ethereum does.
func TestBloomMatchesGeth(t *testing.T) {
	l := &types.Log{
		Address: types.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Topics:  []types.Hash{types.HexToHash("0x01"), types.HexToHash("0x02")},
	}
	var want gethtypes.Bloom
	want.Add(l.Address.Bytes())
	for _, topic := range l.Topics {
		want.Add(topic.Bytes())
	}
	if got := ToGethBloom(types.LogBloom(l)); got != want {
		t.Errorf("bloom mismatch:\n got %x\nwant %x", got, want)
	}
	if FromGethBloom(want) != types.LogBloom(l) {
		t.Error("FromGethBloom mismatch")
	}
}

func TestFromBytesExactLength(t *testing.T) {
	if _, err := AddressFromBytes(make([]byte, 19)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("AddressFromBytes(19 bytes) = %v, want ErrInvalidLength", err)
	}
	if _, err := HashFromBytes(make([]byte, 33)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("HashFromBytes(33 bytes) = %v, want ErrInvalidLength", err)
	}
	a, err := AddressFromBytes(gethcommon.HexToAddress("0xaa").Bytes())
	if err != nil || a != types.HexToAddress("0xaa") {
		t.Errorf("AddressFromBytes = %s, %v", a, err)
	}
}

func TestCopiesDoNotAlias(t *testing.T) {
	in := []byte{1, 2, 3}
	out := copyBytes(in)
	out[0] = 9
	if in[0] != 1 {
		t.Error("copyBytes shares storage with its input")
	}
	if copyBytes(nil) != nil {
		t.Error("copyBytes(nil) != nil")
	}
	if toGethHashes(nil) != nil || fromGethHashes(nil) != nil {
		t.Error("nil hash lists not preserved")
	}
}
