// Package geth translates between rpcbridge's internal record types and the
// go-ethereum client types. This is the only package that imports
// go-ethereum; everything else uses rpcbridge/core/types and rpcbridge/rpc.
//
// Conversions are pure: they never mutate their input and never share
// mutable slices with it. A conversion that would lose information fails
// with a *ConversionError instead.
package geth

import (
	"fmt"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
)

// ToGethAddress converts an Address to a go-ethereum Address.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to an Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts a Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to a Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.Hash(h)
}

// ToGethBloom converts a Bloom to a go-ethereum Bloom.
func ToGethBloom(b types.Bloom) gethtypes.Bloom {
	return gethtypes.Bloom(b)
}

// FromGethBloom converts a go-ethereum Bloom to a Bloom.
func FromGethBloom(b gethtypes.Bloom) types.Bloom {
	return types.Bloom(b)
}

// AddressFromBytes builds an Address from exactly 20 bytes. Unlike
// types.BytesToAddress it never pads or truncates.
func AddressFromBytes(b []byte) (types.Address, error) {
	var a types.Address
	if len(b) != types.AddressLength {
		return a, fmt.Errorf("%w: address has %d bytes, want %d", ErrInvalidLength, len(b), types.AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// HashFromBytes builds a Hash from exactly 32 bytes.
func HashFromBytes(b []byte) (types.Hash, error) {
	var h types.Hash
	if len(b) != types.HashLength {
		return h, fmt.Errorf("%w: hash has %d bytes, want %d", ErrInvalidLength, len(b), types.HashLength)
	}
	copy(h[:], b)
	return h, nil
}

func toGethAddressPtr(a *types.Address) *gethcommon.Address {
	if a == nil {
		return nil
	}
	out := ToGethAddress(*a)
	return &out
}

func fromGethAddressPtr(a *gethcommon.Address) *types.Address {
	if a == nil {
		return nil
	}
	out := FromGethAddress(*a)
	return &out
}

func toGethHashes(hs []types.Hash) []gethcommon.Hash {
	if hs == nil {
		return nil
	}
	out := make([]gethcommon.Hash, len(hs))
	for i, h := range hs {
		out[i] = ToGethHash(h)
	}
	return out
}

func fromGethHashes(hs []gethcommon.Hash) []types.Hash {
	if hs == nil {
		return nil
	}
	out := make([]types.Hash, len(hs))
	for i, h := range hs {
		out[i] = FromGethHash(h)
	}
	return out
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
