package geth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/rpcbridge/rpc"
)

// Direction selects which side of the bridge a JSON document is converted
// to.
type Direction string

const (
	// ToGeth reads the node's JSON and writes go-ethereum's.
	ToGeth Direction = "to-geth"
	// FromGeth reads go-ethereum's JSON and writes the node's.
	FromGeth Direction = "from-geth"
)

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case ToGeth, FromGeth:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want %s or %s)", s, ToGeth, FromGeth)
	}
}

// Codec converts the JSON form of one entity in either direction.
type Codec struct {
	Entity string
	// Request is set for entities clients send to the node. A failure
	// converting one of them from go-ethereum's form is the caller's fault.
	Request bool

	toGeth   func([]byte) (any, error)
	fromGeth func([]byte) (any, error)
}

// Convert decodes input in the source form for dir, converts it and returns
// a value that marshals to the target form.
func (c Codec) Convert(dir Direction, input []byte) (any, error) {
	switch dir {
	case ToGeth:
		return c.toGeth(input)
	case FromGeth:
		return c.fromGeth(input)
	default:
		return nil, fmt.Errorf("%w: direction %q", ErrUnsupportedVariant, dir)
	}
}

// Inbound reports whether a failure converting in dir should be reported to
// the client as invalid parameters.
func (c Codec) Inbound(dir Direction) bool {
	return c.Request && dir == FromGeth
}

var codecs = map[string]Codec{
	"transaction": {
		Entity:   "transaction",
		toGeth:   convertWith(ToGethTransaction),
		fromGeth: convertWith(FromGethTransaction),
	},
	"receipt": {
		Entity:   "receipt",
		toGeth:   convertWith(ToGethReceipt),
		fromGeth: convertWith(FromGethReceipt),
	},
	"log": {
		Entity:   "log",
		toGeth:   convertWith(ToGethLog),
		fromGeth: convertWith(FromGethLog),
	},
	"filter": {
		Entity:  "filter",
		Request: true,
		toGeth: convertWith(func(f *rpc.Filter) (*filterArg, error) {
			q, err := ToGethFilter(f)
			if err != nil {
				return nil, err
			}
			return &filterArg{q}, nil
		}),
		fromGeth: convertWith(func(a *filterArg) (*rpc.Filter, error) {
			return FromGethFilter(a.q)
		}),
	},
	"call": {
		Entity:  "call",
		Request: true,
		toGeth: convertWith(func(req *rpc.CallRequest) (*callArg, error) {
			msg, err := ToGethCallMsg(req)
			if err != nil {
				return nil, err
			}
			return &callArg{msg}, nil
		}),
		fromGeth: convertWith(func(a *callArg) (*rpc.CallRequest, error) {
			return FromGethCallMsg(a.msg)
		}),
	},
	"block-id": {
		Entity:  "block-id",
		Request: true,
		toGeth: convertWith(func(id *rpc.BlockID) (*blockIDArg, error) {
			b, err := ToGethBlockID(*id)
			if err != nil {
				return nil, err
			}
			return &blockIDArg{b}, nil
		}),
		fromGeth: convertWith(func(b *gethrpc.BlockNumberOrHash) (*rpc.BlockID, error) {
			id, err := FromGethBlockID(*b)
			if err != nil {
				return nil, err
			}
			return &id, nil
		}),
	},
	"proof": {
		Entity:   "proof",
		toGeth:   convertWith(ToGethProof),
		fromGeth: convertWith(FromGethProof),
	},
	"fee-history": {
		Entity: "fee-history",
		toGeth: convertWith(func(h *rpc.FeeHistory) (*feeHistoryResult, error) {
			out, err := ToGethFeeHistory(h)
			if err != nil {
				return nil, err
			}
			return &feeHistoryResult{out}, nil
		}),
		fromGeth: convertWith(func(r *feeHistoryResult) (*rpc.FeeHistory, error) {
			return FromGethFeeHistory(r.h)
		}),
	},
	"access-list-result": {
		Entity: "access-list-result",
		toGeth: convertWith(ToGethAccessListResult),
		fromGeth: convertWith(func(r *AccessListResult) (*rpc.AccessListResult, error) {
			return FromGethAccessListResult(r), nil
		}),
	},
}

// LookupCodec returns the codec for entity.
func LookupCodec(entity string) (Codec, bool) {
	c, ok := codecs[entity]
	return c, ok
}

// Entities returns the names of every convertible entity in sorted order.
func Entities() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func convertWith[In, Out any](conv func(*In) (Out, error)) func([]byte) (any, error) {
	return func(input []byte) (any, error) {
		v := new(In)
		if err := json.Unmarshal(input, v); err != nil {
			return nil, DecodeError(err)
		}
		out, err := conv(v)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

// DecodeError classifies a failure to decode a document. A filter that
// parses as JSON but cannot be used as a query names the field at fault;
// anything else is malformed input.
func DecodeError(err error) error {
	var fe *rpc.FilterError
	if errors.As(err, &fe) {
		kind := ErrUnsupportedVariant
		if fe.Range {
			kind = ErrInvalidFilterRange
		}
		return &ConversionError{Field: fe.Field, Err: fmt.Errorf("%w: %s", kind, fe.Msg)}
	}
	return fmt.Errorf("%w: %v", ErrMalformedInput, err)
}

// filterArg is the eth_getLogs parameter object for a FilterQuery. Topic
// positions and addresses are always arrays.
type filterArg struct {
	q ethereum.FilterQuery
}

type filterArgJSON struct {
	BlockHash *gethcommon.Hash     `json:"blockHash,omitempty"`
	FromBlock *string              `json:"fromBlock,omitempty"`
	ToBlock   *string              `json:"toBlock,omitempty"`
	Addresses []gethcommon.Address `json:"address,omitempty"`
	Topics    [][]gethcommon.Hash  `json:"topics,omitempty"`
}

func (a *filterArg) MarshalJSON() ([]byte, error) {
	enc := map[string]any{}
	if a.q.BlockHash != nil {
		enc["blockHash"] = *a.q.BlockHash
	}
	if a.q.FromBlock != nil {
		enc["fromBlock"] = boundText(a.q.FromBlock)
	}
	if a.q.ToBlock != nil {
		enc["toBlock"] = boundText(a.q.ToBlock)
	}
	if len(a.q.Addresses) > 0 {
		enc["address"] = a.q.Addresses
	}
	if len(a.q.Topics) > 0 {
		enc["topics"] = a.q.Topics
	}
	return json.Marshal(enc)
}

func (a *filterArg) UnmarshalJSON(data []byte) error {
	var dec filterArgJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	a.q = ethereum.FilterQuery{
		BlockHash: dec.BlockHash,
		Addresses: dec.Addresses,
		Topics:    dec.Topics,
	}
	var err error
	if a.q.FromBlock, err = parseGethBound("fromBlock", dec.FromBlock); err != nil {
		return err
	}
	if a.q.ToBlock, err = parseGethBound("toBlock", dec.ToBlock); err != nil {
		return err
	}
	return nil
}

// parseGethBound parses a bound the way go-ethereum does, leaving tags as
// their negative block numbers.
func parseGethBound(field string, s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	var n gethrpc.BlockNumber
	if err := n.UnmarshalJSON([]byte(strconv.Quote(*s))); err != nil {
		return nil, &rpc.FilterError{Field: field, Range: true, Msg: err.Error()}
	}
	return big.NewInt(n.Int64()), nil
}

func boundText(b *big.Int) string {
	if b.Sign() < 0 && b.IsInt64() {
		return blockNumberText(gethrpc.BlockNumber(b.Int64()))
	}
	return hexutil.EncodeBig(b)
}

func blockNumberText(n gethrpc.BlockNumber) string {
	switch n {
	case gethrpc.EarliestBlockNumber:
		return "earliest"
	case gethrpc.SafeBlockNumber:
		return "safe"
	case gethrpc.FinalizedBlockNumber:
		return "finalized"
	case gethrpc.LatestBlockNumber:
		return "latest"
	case gethrpc.PendingBlockNumber:
		return "pending"
	}
	if n < 0 {
		return fmt.Sprintf("%d", int64(n))
	}
	return hexutil.Uint64(n).String()
}

// callArg is the eth_call parameter object for a CallMsg, in the shape
// ethclient sends.
type callArg struct {
	msg ethereum.CallMsg
}

type callArgJSON struct {
	From                 *gethcommon.Address              `json:"from,omitempty"`
	To                   *gethcommon.Address              `json:"to,omitempty"`
	Input                hexutil.Bytes                    `json:"input,omitempty"`
	Value                *hexutil.Big                     `json:"value,omitempty"`
	Gas                  hexutil.Uint64                   `json:"gas,omitempty"`
	GasPrice             *hexutil.Big                     `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big                     `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big                     `json:"maxPriorityFeePerGas,omitempty"`
	AccessList           *gethtypes.AccessList            `json:"accessList,omitempty"`
	MaxFeePerBlobGas     *hexutil.Big                     `json:"maxFeePerBlobGas,omitempty"`
	BlobVersionedHashes  []gethcommon.Hash                `json:"blobVersionedHashes,omitempty"`
	AuthorizationList    []gethtypes.SetCodeAuthorization `json:"authorizationList,omitempty"`
}

func (a *callArg) MarshalJSON() ([]byte, error) {
	m := a.msg
	enc := callArgJSON{
		To:                   m.To,
		Input:                m.Data,
		Value:                (*hexutil.Big)(m.Value),
		Gas:                  hexutil.Uint64(m.Gas),
		GasPrice:             (*hexutil.Big)(m.GasPrice),
		MaxFeePerGas:         (*hexutil.Big)(m.GasFeeCap),
		MaxPriorityFeePerGas: (*hexutil.Big)(m.GasTipCap),
		MaxFeePerBlobGas:     (*hexutil.Big)(m.BlobGasFeeCap),
		BlobVersionedHashes:  m.BlobHashes,
		AuthorizationList:    m.AuthorizationList,
	}
	if m.From != (gethcommon.Address{}) {
		enc.From = &m.From
	}
	if m.AccessList != nil {
		enc.AccessList = &m.AccessList
	}
	return json.Marshal(enc)
}

func (a *callArg) UnmarshalJSON(data []byte) error {
	var dec callArgJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	a.msg = ethereum.CallMsg{
		To:                dec.To,
		Data:              dec.Input,
		Value:             (*big.Int)(dec.Value),
		Gas:               uint64(dec.Gas),
		GasPrice:          (*big.Int)(dec.GasPrice),
		GasFeeCap:         (*big.Int)(dec.MaxFeePerGas),
		GasTipCap:         (*big.Int)(dec.MaxPriorityFeePerGas),
		BlobGasFeeCap:     (*big.Int)(dec.MaxFeePerBlobGas),
		BlobHashes:        dec.BlobVersionedHashes,
		AuthorizationList: dec.AuthorizationList,
	}
	if dec.From != nil {
		a.msg.From = *dec.From
	}
	if dec.AccessList != nil {
		a.msg.AccessList = *dec.AccessList
	}
	return nil
}

// blockIDArg is the EIP-1898 form of a BlockNumberOrHash. Decoding goes
// through go-ethereum's own parser.
type blockIDArg struct {
	b gethrpc.BlockNumberOrHash
}

func (a *blockIDArg) MarshalJSON() ([]byte, error) {
	if h, ok := a.b.Hash(); ok {
		enc := map[string]any{"blockHash": h}
		if a.b.RequireCanonical {
			enc["requireCanonical"] = true
		}
		return json.Marshal(enc)
	}
	if n, ok := a.b.Number(); ok {
		return json.Marshal(blockNumberText(n))
	}
	return nil, fmt.Errorf("empty block selector")
}

func (a *blockIDArg) UnmarshalJSON(data []byte) error {
	return a.b.UnmarshalJSON(data)
}

// feeHistoryResult is the eth_feeHistory result object for a FeeHistory.
type feeHistoryResult struct {
	h *ethereum.FeeHistory
}

type feeHistoryJSON struct {
	OldestBlock  *hexutil.Big     `json:"oldestBlock"`
	Reward       [][]*hexutil.Big `json:"reward,omitempty"`
	BaseFee      []*hexutil.Big   `json:"baseFeePerGas,omitempty"`
	GasUsedRatio []float64        `json:"gasUsedRatio"`
}

func (r *feeHistoryResult) MarshalJSON() ([]byte, error) {
	enc := feeHistoryJSON{
		OldestBlock:  (*hexutil.Big)(r.h.OldestBlock),
		BaseFee:      toHexBigs(r.h.BaseFee),
		GasUsedRatio: r.h.GasUsedRatio,
	}
	if r.h.Reward != nil {
		enc.Reward = make([][]*hexutil.Big, len(r.h.Reward))
		for i, row := range r.h.Reward {
			enc.Reward[i] = toHexBigs(row)
		}
	}
	return json.Marshal(enc)
}

func (r *feeHistoryResult) UnmarshalJSON(data []byte) error {
	var dec feeHistoryJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	r.h = &ethereum.FeeHistory{
		OldestBlock:  (*big.Int)(dec.OldestBlock),
		BaseFee:      fromHexBigs(dec.BaseFee),
		GasUsedRatio: dec.GasUsedRatio,
	}
	if dec.Reward != nil {
		r.h.Reward = make([][]*big.Int, len(dec.Reward))
		for i, row := range dec.Reward {
			r.h.Reward[i] = fromHexBigs(row)
		}
	}
	return nil
}

func toHexBigs(bs []*big.Int) []*hexutil.Big {
	if bs == nil {
		return nil
	}
	out := make([]*hexutil.Big, len(bs))
	for i, b := range bs {
		out[i] = (*hexutil.Big)(b)
	}
	return out
}

func fromHexBigs(hs []*hexutil.Big) []*big.Int {
	if hs == nil {
		return nil
	}
	out := make([]*big.Int, len(hs))
	for i, h := range hs {
		out[i] = (*big.Int)(h)
	}
	return out
}
