package geth

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// ToGethBlockNumber converts a block number or tag.
func ToGethBlockNumber(b rpc.BlockNumberOrTag) (gethrpc.BlockNumber, error) {
	switch b.Tag {
	case rpc.TagNumber:
		if b.Number > math.MaxInt64 {
			return 0, fmt.Errorf("%w: block number %d", ErrOverflow, b.Number)
		}
		return gethrpc.BlockNumber(b.Number), nil
	case rpc.TagLatest:
		return gethrpc.LatestBlockNumber, nil
	case rpc.TagEarliest:
		return gethrpc.EarliestBlockNumber, nil
	case rpc.TagPending:
		return gethrpc.PendingBlockNumber, nil
	case rpc.TagSafe:
		return gethrpc.SafeBlockNumber, nil
	case rpc.TagFinalized:
		return gethrpc.FinalizedBlockNumber, nil
	default:
		return 0, fmt.Errorf("%w: block tag %d", ErrUnsupportedVariant, b.Tag)
	}
}

// FromGethBlockNumber converts a go-ethereum block number, which encodes
// tags as negative values.
func FromGethBlockNumber(n gethrpc.BlockNumber) (rpc.BlockNumberOrTag, error) {
	switch n {
	case gethrpc.LatestBlockNumber:
		return rpc.Tagged(rpc.TagLatest), nil
	case gethrpc.EarliestBlockNumber:
		return rpc.Tagged(rpc.TagEarliest), nil
	case gethrpc.PendingBlockNumber:
		return rpc.Tagged(rpc.TagPending), nil
	case gethrpc.SafeBlockNumber:
		return rpc.Tagged(rpc.TagSafe), nil
	case gethrpc.FinalizedBlockNumber:
		return rpc.Tagged(rpc.TagFinalized), nil
	}
	if n < 0 {
		return rpc.BlockNumberOrTag{}, fmt.Errorf("%w: block number %d", ErrUnsupportedVariant, n)
	}
	return rpc.Number(uint64(n)), nil
}

// ToGethBlockID converts a block selector for state queries.
func ToGethBlockID(id rpc.BlockID) (gethrpc.BlockNumberOrHash, error) {
	switch {
	case id.Hash != nil && id.Number != nil:
		return gethrpc.BlockNumberOrHash{}, unsupported("blockHash", "both hash and number set")
	case id.Hash != nil:
		canonical := id.RequireCanonical != nil && *id.RequireCanonical
		return gethrpc.BlockNumberOrHashWithHash(ToGethHash(*id.Hash), canonical), nil
	case id.Number != nil:
		n, err := ToGethBlockNumber(*id.Number)
		if err != nil {
			return gethrpc.BlockNumberOrHash{}, fieldErr("blockNumber", err)
		}
		return gethrpc.BlockNumberOrHashWithNumber(n), nil
	default:
		return gethrpc.BlockNumberOrHash{}, missing("blockNumber")
	}
}

// FromGethBlockID converts a go-ethereum block selector.
func FromGethBlockID(b gethrpc.BlockNumberOrHash) (rpc.BlockID, error) {
	if h, ok := b.Hash(); ok {
		id := rpc.BlockIDFromHash(FromGethHash(h))
		if b.RequireCanonical {
			canonical := true
			id.RequireCanonical = &canonical
		}
		return id, nil
	}
	if n, ok := b.Number(); ok {
		num, err := FromGethBlockNumber(n)
		if err != nil {
			return rpc.BlockID{}, fieldErr("blockNumber", err)
		}
		return rpc.BlockIDFromNumber(num), nil
	}
	return rpc.BlockID{}, missing("blockNumber")
}

// ToGethFilter converts a log filter. Single values and sets both become
// go-ethereum's slice form, a set holding a nil topic widens that position
// to a wildcard, and trailing wildcard positions are dropped. A nil filter
// converts to the zero query, which matches every log.
func ToGethFilter(f *rpc.Filter) (ethereum.FilterQuery, error) {
	var q ethereum.FilterQuery
	if f == nil {
		return q, nil
	}
	if f.Block.BlockHash != nil {
		if f.Block.FromBlock != nil || f.Block.ToBlock != nil {
			return q, &ConversionError{Field: "blockHash", Err: fmt.Errorf("%w: block hash combined with range", ErrInvalidFilterRange)}
		}
		h := ToGethHash(*f.Block.BlockHash)
		q.BlockHash = &h
	} else {
		var err error
		if q.FromBlock, err = toGethBound(f.Block.FromBlock); err != nil {
			return q, fieldErr("fromBlock", err)
		}
		if q.ToBlock, err = toGethBound(f.Block.ToBlock); err != nil {
			return q, fieldErr("toBlock", err)
		}
	}

	q.Addresses = flattenMatcher(f.Address, plain(ToGethAddress))
	var topics [][]gethcommon.Hash
	for _, t := range f.Topics {
		topics = append(topics, flattenMatcher(t, optional(ToGethHash)))
	}
	for len(topics) > 0 && len(topics[len(topics)-1]) == 0 {
		topics = topics[:len(topics)-1]
	}
	q.Topics = topics
	return q, nil
}

func toGethBound(b *rpc.BlockNumberOrTag) (*big.Int, error) {
	if b == nil {
		return nil, nil
	}
	n, err := ToGethBlockNumber(*b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilterRange, err)
	}
	return big.NewInt(n.Int64()), nil
}

// FromGethFilter converts a go-ethereum filter query. A position with one
// topic reads back as a single value; more than one reads back as a set.
func FromGethFilter(q ethereum.FilterQuery) (*rpc.Filter, error) {
	f := new(rpc.Filter)
	if q.BlockHash != nil {
		if q.FromBlock != nil || q.ToBlock != nil {
			return nil, &ConversionError{Field: "blockHash", Err: fmt.Errorf("%w: block hash combined with range", ErrInvalidFilterRange)}
		}
		f.Block = rpc.AtBlockHash(FromGethHash(*q.BlockHash))
	} else {
		from, err := fromGethBound(q.FromBlock)
		if err != nil {
			return nil, fieldErr("fromBlock", err)
		}
		to, err := fromGethBound(q.ToBlock)
		if err != nil {
			return nil, fieldErr("toBlock", err)
		}
		f.Block = rpc.Range(from, to)
	}

	f.Address = buildMatcher(q.Addresses, FromGethAddress)
	if len(q.Topics) > types.MaxTopicsPerLog {
		return nil, unsupported("topics", "%d topic positions, at most %d allowed", len(q.Topics), types.MaxTopicsPerLog)
	}
	topics := [types.MaxTopicsPerLog]*rpc.Topic{nil, nil, nil, nil}
	for i, pos := range q.Topics {
		topics[i] = buildMatcher(pos, func(h gethcommon.Hash) *types.Hash {
			th := FromGethHash(h)
			return &th
		})
	}
	f.Topics = topics
	return f, nil
}

func fromGethBound(b *big.Int) (*rpc.BlockNumberOrTag, error) {
	if b == nil {
		return nil, nil
	}
	if !b.IsInt64() {
		return nil, fmt.Errorf("%w: block number %s", ErrInvalidFilterRange, b)
	}
	n, err := FromGethBlockNumber(gethrpc.BlockNumber(b.Int64()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilterRange, err)
	}
	return &n, nil
}

// flattenMatcher converts a matcher to go-ethereum's slice form, where an
// empty slice matches anything. conv reports false for a wildcard element,
// which widens the whole matcher.
func flattenMatcher[T, U any](m *rpc.ValueOrArray[T], conv func(T) (U, bool)) []U {
	if m == nil || len(m.Values()) == 0 {
		return nil
	}
	out := make([]U, 0, len(m.Values()))
	for _, v := range m.Values() {
		u, ok := conv(v)
		if !ok {
			return nil
		}
		out = append(out, u)
	}
	return out
}

// buildMatcher converts go-ethereum's slice form back to a matcher.
func buildMatcher[T, U any](vs []T, conv func(T) U) *rpc.ValueOrArray[U] {
	switch len(vs) {
	case 0:
		return nil
	case 1:
		return rpc.Single(conv(vs[0]))
	}
	out := make([]U, len(vs))
	for i, v := range vs {
		out[i] = conv(v)
	}
	return rpc.Set(out...)
}

func plain[T, U any](conv func(T) U) func(T) (U, bool) {
	return func(v T) (U, bool) { return conv(v), true }
}

func optional[T, U any](conv func(T) U) func(*T) (U, bool) {
	return func(v *T) (U, bool) {
		if v == nil {
			var zero U
			return zero, false
		}
		return conv(*v), true
	}
}
