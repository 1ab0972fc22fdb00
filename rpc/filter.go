package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eth2030/rpcbridge/core/types"
)

// ValueOrArray is a filter matcher: either exactly one value or a set of
// values (OR within the set). A nil *ValueOrArray matches anything.
type ValueOrArray[T any] struct {
	values []T
	set    bool
}

// Single returns a matcher for exactly one value.
func Single[T any](v T) *ValueOrArray[T] {
	return &ValueOrArray[T]{values: []T{v}}
}

// Set returns a matcher for any of the given values.
func Set[T any](vs ...T) *ValueOrArray[T] {
	return &ValueOrArray[T]{values: vs, set: true}
}

// IsSet reports whether the matcher was built as a set of values.
func (m *ValueOrArray[T]) IsSet() bool { return m.set }

// Values returns the matched values. A single-value matcher has exactly one.
func (m *ValueOrArray[T]) Values() []T { return m.values }

// Value returns the value of a single-value matcher.
func (m *ValueOrArray[T]) Value() (T, bool) {
	if m.set || len(m.values) != 1 {
		var zero T
		return zero, false
	}
	return m.values[0], true
}

// MarshalJSON encodes a single value as a scalar and a set as an array.
func (m ValueOrArray[T]) MarshalJSON() ([]byte, error) {
	if !m.set && len(m.values) == 1 {
		return json.Marshal(m.values[0])
	}
	if m.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.values)
}

// UnmarshalJSON accepts either a scalar or an array.
func (m *ValueOrArray[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var vs []T
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		*m = ValueOrArray[T]{values: vs, set: true}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = ValueOrArray[T]{values: []T{v}}
	return nil
}

// Topic matches one topic position. A nil element inside the matcher
// matches any topic at that position.
type Topic = ValueOrArray[*types.Hash]

// FilterBlockOption selects blocks either by exact hash or by a range of
// numbers/tags. Either range bound may be open.
type FilterBlockOption struct {
	BlockHash *types.Hash
	FromBlock *BlockNumberOrTag
	ToBlock   *BlockNumberOrTag
}

// AtBlockHash selects the single block with hash h.
func AtBlockHash(h types.Hash) FilterBlockOption {
	return FilterBlockOption{BlockHash: &h}
}

// Range selects the blocks between from and to inclusive.
func Range(from, to *BlockNumberOrTag) FilterBlockOption {
	return FilterBlockOption{FromBlock: from, ToBlock: to}
}

// IsRange reports whether the option selects a range.
func (o FilterBlockOption) IsRange() bool { return o.BlockHash == nil }

// Filter is an eth_getLogs / eth_newFilter event query.
type Filter struct {
	Block   FilterBlockOption
	Address *ValueOrArray[types.Address]
	Topics  [types.MaxTopicsPerLog]*Topic
}

type filterJSON struct {
	BlockHash *types.Hash                  `json:"blockHash,omitempty"`
	FromBlock *BlockNumberOrTag            `json:"fromBlock,omitempty"`
	ToBlock   *BlockNumberOrTag            `json:"toBlock,omitempty"`
	Address   *ValueOrArray[types.Address] `json:"address,omitempty"`
	Topics    []*Topic                     `json:"topics,omitempty"`
}

// filterDecodeJSON reads the bounds as plain strings so that a bound which
// is not a number or tag is reported as a filter error rather than a JSON
// syntax error.
type filterDecodeJSON struct {
	BlockHash *types.Hash                  `json:"blockHash"`
	FromBlock *string                      `json:"fromBlock"`
	ToBlock   *string                      `json:"toBlock"`
	Address   *ValueOrArray[types.Address] `json:"address"`
	Topics    []*Topic                     `json:"topics"`
}

// FilterError reports a filter that is valid JSON but cannot be used as a
// query. Range is set when the block selection is at fault.
type FilterError struct {
	Field string
	Range bool
	Msg   string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: %s", e.Field, e.Msg)
}

// parseBlockBound parses one filter bound, reporting failures against field.
func parseBlockBound(field string, s *string) (*BlockNumberOrTag, error) {
	if s == nil {
		return nil, nil
	}
	var b BlockNumberOrTag
	if err := b.UnmarshalText([]byte(*s)); err != nil {
		return nil, &FilterError{Field: field, Range: true, Msg: err.Error()}
	}
	return &b, nil
}

// MarshalJSON implements json.Marshaler. Trailing wildcard topic positions
// are omitted.
func (f Filter) MarshalJSON() ([]byte, error) {
	enc := filterJSON{
		BlockHash: f.Block.BlockHash,
		FromBlock: f.Block.FromBlock,
		ToBlock:   f.Block.ToBlock,
		Address:   f.Address,
	}
	n := len(f.Topics)
	for n > 0 && f.Topics[n-1] == nil {
		n--
	}
	if n > 0 {
		enc.Topics = f.Topics[:n]
	}
	return json.Marshal(enc)
}

// UnmarshalJSON implements json.Unmarshaler. Unusable bounds, a hash
// combined with a range and too many topic positions fail with a
// *FilterError.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var dec filterDecodeJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	if dec.BlockHash != nil && (dec.FromBlock != nil || dec.ToBlock != nil) {
		return &FilterError{Field: "blockHash", Range: true, Msg: "cannot be combined with fromBlock/toBlock"}
	}
	if len(dec.Topics) > types.MaxTopicsPerLog {
		return &FilterError{Field: "topics", Msg: fmt.Sprintf("%d positions, at most %d allowed", len(dec.Topics), types.MaxTopicsPerLog)}
	}
	from, err := parseBlockBound("fromBlock", dec.FromBlock)
	if err != nil {
		return err
	}
	to, err := parseBlockBound("toBlock", dec.ToBlock)
	if err != nil {
		return err
	}
	*f = Filter{
		Block:   FilterBlockOption{BlockHash: dec.BlockHash, FromBlock: from, ToBlock: to},
		Address: dec.Address,
	}
	copy(f.Topics[:], dec.Topics)
	return nil
}

// MatchesLog reports whether the log satisfies the address and topic
// matchers. Block selection is left to the caller. An empty set matches
// anything, as go-ethereum treats it, and so does a topic set holding a nil
// element.
func (f *Filter) MatchesLog(l *Log) bool {
	if f.Address != nil && len(f.Address.Values()) > 0 &&
		!matchAny(f.Address.Values(), func(a types.Address) bool { return a == l.Address }) {
		return false
	}
	for i, topic := range f.Topics {
		if TopicIsWildcard(topic) {
			continue
		}
		if i >= len(l.Topics) {
			return false
		}
		if !matchAny(topic.Values(), func(h *types.Hash) bool { return *h == l.Topics[i] }) {
			return false
		}
	}
	return true
}

// MatchesBlock reports whether the log lies in the filter's block
// selection. Tag bounds depend on the chain head and are treated as open;
// a numeric bound excludes logs without a block number.
func (f *Filter) MatchesBlock(l *Log) bool {
	if !f.Block.IsRange() {
		return l.BlockHash != nil && *l.BlockHash == *f.Block.BlockHash
	}
	if from := f.Block.FromBlock; from != nil && from.IsNumber() {
		if l.BlockNumber == nil || l.BlockNumber.Int().LtUint64(from.Number) {
			return false
		}
	}
	if to := f.Block.ToBlock; to != nil && to.IsNumber() {
		if l.BlockNumber == nil || l.BlockNumber.Int().GtUint64(to.Number) {
			return false
		}
	}
	return true
}

// MatchesBloom reports whether a block or receipt bloom may hold a log
// matching the address and topic matchers. False positives are possible.
func (f *Filter) MatchesBloom(bloom types.Bloom) bool {
	if f.Address != nil && len(f.Address.Values()) > 0 &&
		!matchAny(f.Address.Values(), func(a types.Address) bool { return types.BloomContains(bloom, a.Bytes()) }) {
		return false
	}
	for _, topic := range f.Topics {
		if TopicIsWildcard(topic) {
			continue
		}
		if !matchAny(topic.Values(), func(h *types.Hash) bool { return types.BloomContains(bloom, h.Bytes()) }) {
			return false
		}
	}
	return true
}

// TopicIsWildcard reports whether a topic position matches any value.
func TopicIsWildcard(t *Topic) bool {
	if t == nil || len(t.Values()) == 0 {
		return true
	}
	return matchAny(t.Values(), func(h *types.Hash) bool { return h == nil })
}

func matchAny[T any](vs []T, match func(T) bool) bool {
	for _, v := range vs {
		if match(v) {
			return true
		}
	}
	return false
}
