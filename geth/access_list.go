package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// AccessListResult is the go-ethereum side of an eth_createAccessList
// response. go-ethereum's client returns these as separate values, so the
// record is defined here with the same JSON field names.
type AccessListResult struct {
	AccessList *gethtypes.AccessList `json:"accessList"`
	GasUsed    hexutil.Uint64        `json:"gasUsed"`
	Error      string                `json:"error,omitempty"`
}

// ToGethAccessList converts an access list. go-ethereum has no notion of an
// absent list, so nil converts to an empty list.
func ToGethAccessList(al *types.AccessList) gethtypes.AccessList {
	if al == nil {
		return gethtypes.AccessList{}
	}
	out := make(gethtypes.AccessList, len(*al))
	for i, tuple := range *al {
		keys := make([]gethcommon.Hash, len(tuple.StorageKeys))
		for j, k := range tuple.StorageKeys {
			keys[j] = ToGethHash(k)
		}
		out[i] = gethtypes.AccessTuple{
			Address:     ToGethAddress(tuple.Address),
			StorageKeys: keys,
		}
	}
	return out
}

// FromGethAccessList converts a go-ethereum access list. The result is
// always present, possibly empty.
func FromGethAccessList(al gethtypes.AccessList) *types.AccessList {
	out := make(types.AccessList, len(al))
	for i, tuple := range al {
		keys := make([]types.Hash, len(tuple.StorageKeys))
		for j, k := range tuple.StorageKeys {
			keys[j] = FromGethHash(k)
		}
		out[i] = types.AccessTuple{
			Address:     FromGethAddress(tuple.Address),
			StorageKeys: keys,
		}
	}
	return &out
}

// ToGethAccessListResult converts an eth_createAccessList response.
func ToGethAccessListResult(r *rpc.AccessListResult) (*AccessListResult, error) {
	if r == nil {
		return nil, nil
	}
	if r.GasUsed == nil {
		return nil, missing("gasUsed")
	}
	gas, err := U256ToUint64(r.GasUsed)
	if err != nil {
		return nil, fieldErr("gasUsed", err)
	}
	al := ToGethAccessList(&r.AccessList)
	return &AccessListResult{
		AccessList: &al,
		GasUsed:    hexutil.Uint64(gas),
		Error:      r.Error,
	}, nil
}

// FromGethAccessListResult converts a go-ethereum eth_createAccessList
// response.
func FromGethAccessListResult(r *AccessListResult) *rpc.AccessListResult {
	if r == nil {
		return nil
	}
	var al gethtypes.AccessList
	if r.AccessList != nil {
		al = *r.AccessList
	}
	return &rpc.AccessListResult{
		AccessList: *FromGethAccessList(al),
		GasUsed:    Uint64ToU256(uint64(r.GasUsed)),
		Error:      r.Error,
	}
}
