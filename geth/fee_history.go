package geth

import (
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// ToGethFeeHistory converts an eth_feeHistory result. Reward stays nil when
// no percentiles were requested.
func ToGethFeeHistory(h *rpc.FeeHistory) (*ethereum.FeeHistory, error) {
	if h == nil {
		return nil, nil
	}
	out := &ethereum.FeeHistory{
		OldestBlock:  U64ToBig(&h.OldestBlock),
		GasUsedRatio: append([]float64(nil), h.GasUsedRatio...),
	}
	baseFee, err := toBigList(h.BaseFeePerGas)
	if err != nil {
		return nil, fieldErr("baseFeePerGas", err)
	}
	out.BaseFee = baseFee
	if h.Reward != nil {
		out.Reward = make([][]*big.Int, len(h.Reward))
		for i, row := range h.Reward {
			if out.Reward[i], err = toBigList(row); err != nil {
				return nil, fieldErr(indexField("reward", i), err)
			}
		}
	}
	return out, nil
}

// FromGethFeeHistory converts a go-ethereum fee history.
func FromGethFeeHistory(h *ethereum.FeeHistory) (*rpc.FeeHistory, error) {
	if h == nil {
		return nil, nil
	}
	if h.OldestBlock == nil {
		return nil, missing("oldestBlock")
	}
	oldest, err := BigToUint64(h.OldestBlock)
	if err != nil {
		return nil, fieldErr("oldestBlock", err)
	}
	out := &rpc.FeeHistory{
		OldestBlock:  types.U64(oldest),
		GasUsedRatio: append([]float64(nil), h.GasUsedRatio...),
	}
	if out.BaseFeePerGas, err = fromBigList(h.BaseFee); err != nil {
		return nil, fieldErr("baseFeePerGas", err)
	}
	if h.Reward != nil {
		out.Reward = make([][]*types.U256, len(h.Reward))
		for i, row := range h.Reward {
			if out.Reward[i], err = fromBigList(row); err != nil {
				return nil, fieldErr(indexField("reward", i), err)
			}
		}
	}
	return out, nil
}

func toBigList(qs []*types.U256) ([]*big.Int, error) {
	out := make([]*big.Int, len(qs))
	for i, q := range qs {
		if q == nil {
			return nil, missing(indexField("", i))
		}
		out[i] = U256ToBig(q)
	}
	return out, nil
}

func fromBigList(bs []*big.Int) ([]*types.U256, error) {
	out := make([]*types.U256, len(bs))
	for i, b := range bs {
		if b == nil {
			return nil, missing(indexField("", i))
		}
		q, err := BigToU256(b)
		if err != nil {
			return nil, fieldErr(indexField("", i), err)
		}
		out[i] = q
	}
	return out, nil
}
