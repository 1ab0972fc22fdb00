package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// ToGethLog converts a log. go-ethereum stores block linkage as plain
// values, so the linkage fields must be all present or all absent; absent
// linkage converts to zero values.
func ToGethLog(l *rpc.Log) (*gethtypes.Log, error) {
	if l == nil {
		return nil, nil
	}
	if len(l.Topics) > types.MaxTopicsPerLog {
		return nil, unsupported("topics", "%d topics, at most %d allowed", len(l.Topics), types.MaxTopicsPerLog)
	}
	out := &gethtypes.Log{
		Address: ToGethAddress(l.Address),
		Topics:  toGethHashes(l.Topics),
		Data:    copyBytes(l.Data),
		Removed: l.Removed,
	}
	if out.Topics == nil {
		out.Topics = []gethcommon.Hash{}
	}
	if l.TransactionHash != nil {
		out.TxHash = ToGethHash(*l.TransactionHash)
	}

	linked := 0
	for _, present := range []bool{l.BlockHash != nil, l.BlockNumber != nil, l.TransactionIndex != nil, l.LogIndex != nil} {
		if present {
			linked++
		}
	}
	switch linked {
	case 0:
		return out, nil
	case 4:
	default:
		return nil, unsupported("blockHash", "partial block linkage")
	}

	var err error
	out.BlockHash = ToGethHash(*l.BlockHash)
	if out.BlockNumber, err = U256ToUint64(l.BlockNumber); err != nil {
		return nil, fieldErr("blockNumber", err)
	}
	if out.TxIndex, err = u256ToUint(l.TransactionIndex); err != nil {
		return nil, fieldErr("transactionIndex", err)
	}
	if out.Index, err = u256ToUint(l.LogIndex); err != nil {
		return nil, fieldErr("logIndex", err)
	}
	return out, nil
}

func u256ToUint(q *types.U256) (uint, error) {
	v, err := U256ToUint64(q)
	if err != nil {
		return 0, err
	}
	return Uint64ToUint(v)
}

// FromGethLog converts a go-ethereum log. A zero block hash means the log
// is pending and converts to absent linkage; a zero transaction hash
// converts to an absent one.
func FromGethLog(l *gethtypes.Log) (*rpc.Log, error) {
	if l == nil {
		return nil, nil
	}
	if len(l.Topics) > types.MaxTopicsPerLog {
		return nil, unsupported("topics", "%d topics, at most %d allowed", len(l.Topics), types.MaxTopicsPerLog)
	}
	out := &rpc.Log{
		Address: FromGethAddress(l.Address),
		Topics:  fromGethHashes(l.Topics),
		Data:    types.Bytes(copyBytes(l.Data)),
		Removed: l.Removed,
	}
	if out.Topics == nil {
		out.Topics = []types.Hash{}
	}
	if l.TxHash != (gethcommon.Hash{}) {
		h := FromGethHash(l.TxHash)
		out.TransactionHash = &h
	}
	if l.BlockHash != (gethcommon.Hash{}) {
		h := FromGethHash(l.BlockHash)
		out.BlockHash = &h
		out.BlockNumber = Uint64ToU256(l.BlockNumber)
		out.TransactionIndex = Uint64ToU256(uint64(l.TxIndex))
		out.LogIndex = Uint64ToU256(uint64(l.Index))
	}
	return out, nil
}

// ToGethLogs converts a list of logs. A nil entry is a missing log. Errors
// name the failing position.
func ToGethLogs(logs []*rpc.Log) ([]*gethtypes.Log, error) {
	out := make([]*gethtypes.Log, len(logs))
	for i, l := range logs {
		if l == nil {
			return nil, missing(indexField("", i))
		}
		gl, err := ToGethLog(l)
		if err != nil {
			return nil, fieldErr(indexField("", i), err)
		}
		out[i] = gl
	}
	return out, nil
}

// FromGethLogs converts a list of go-ethereum logs.
func FromGethLogs(logs []*gethtypes.Log) ([]*rpc.Log, error) {
	out := make([]*rpc.Log, len(logs))
	for i, l := range logs {
		if l == nil {
			return nil, missing(indexField("", i))
		}
		rl, err := FromGethLog(l)
		if err != nil {
			return nil, fieldErr(indexField("", i), err)
		}
		out[i] = rl
	}
	return out, nil
}
