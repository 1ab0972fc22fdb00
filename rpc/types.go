// Package rpc defines the node's client-facing JSON-RPC record shapes:
// transactions, call requests, receipts, logs, filters, proofs and fee
// history, with nullable fields for everything that is unknown until a
// transaction is mined.
package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eth2030/rpcbridge/core/types"
)

// BlockTag selects a block by its position relative to the chain head.
type BlockTag uint8

const (
	TagNumber BlockTag = iota
	TagLatest
	TagEarliest
	TagPending
	TagSafe
	TagFinalized
)

var tagNames = map[BlockTag]string{
	TagLatest:    "latest",
	TagEarliest:  "earliest",
	TagPending:   "pending",
	TagSafe:      "safe",
	TagFinalized: "finalized",
}

// BlockNumberOrTag is either an exact block number or a named tag.
type BlockNumberOrTag struct {
	Tag    BlockTag
	Number uint64 // only meaningful when Tag == TagNumber
}

// Number returns a selector for the exact block n.
func Number(n uint64) BlockNumberOrTag {
	return BlockNumberOrTag{Tag: TagNumber, Number: n}
}

// Tagged returns a selector for the named tag.
func Tagged(tag BlockTag) BlockNumberOrTag {
	return BlockNumberOrTag{Tag: tag}
}

// IsNumber reports whether the selector names an exact block.
func (b BlockNumberOrTag) IsNumber() bool { return b.Tag == TagNumber }

// String implements fmt.Stringer.
func (b BlockNumberOrTag) String() string {
	if name, ok := tagNames[b.Tag]; ok {
		return name
	}
	if b.Tag != TagNumber {
		return fmt.Sprintf("<invalid tag %d>", b.Tag)
	}
	s, _ := types.U64(b.Number).MarshalText()
	return string(s)
}

// MarshalText implements encoding.TextMarshaler.
func (b BlockNumberOrTag) MarshalText() ([]byte, error) {
	if _, ok := tagNames[b.Tag]; !ok && b.Tag != TagNumber {
		return nil, fmt.Errorf("invalid block tag %d", b.Tag)
	}
	return []byte(b.String()), nil
}

// UnmarshalText accepts a tag name or a hex block number.
func (b *BlockNumberOrTag) UnmarshalText(input []byte) error {
	for tag, name := range tagNames {
		if string(input) == name {
			*b = Tagged(tag)
			return nil
		}
	}
	var n types.U64
	if err := n.UnmarshalText(input); err != nil {
		return fmt.Errorf("invalid block number: %s", input)
	}
	*b = Number(uint64(n))
	return nil
}

// BlockID identifies a block either by hash or by number/tag.
type BlockID struct {
	Hash             *types.Hash
	RequireCanonical *bool
	Number           *BlockNumberOrTag
}

// BlockIDFromHash returns a BlockID selecting the block with hash h.
func BlockIDFromHash(h types.Hash) BlockID {
	return BlockID{Hash: &h}
}

// BlockIDFromNumber returns a BlockID selecting the given number or tag.
func BlockIDFromNumber(n BlockNumberOrTag) BlockID {
	return BlockID{Number: &n}
}

type blockIDObject struct {
	BlockHash        *types.Hash       `json:"blockHash,omitempty"`
	RequireCanonical *bool             `json:"requireCanonical,omitempty"`
	BlockNumber      *BlockNumberOrTag `json:"blockNumber,omitempty"`
}

// MarshalJSON encodes numbers and tags as strings and hashes as the
// EIP-1898 object form.
func (id BlockID) MarshalJSON() ([]byte, error) {
	if id.Hash != nil {
		return json.Marshal(blockIDObject{BlockHash: id.Hash, RequireCanonical: id.RequireCanonical})
	}
	if id.Number != nil {
		return json.Marshal(id.Number)
	}
	return nil, fmt.Errorf("empty block id")
}

// UnmarshalJSON accepts a tag, a hex number, a 32-byte hex hash or the
// EIP-1898 object form.
func (id *BlockID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj blockIDObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if (obj.BlockHash == nil) == (obj.BlockNumber == nil) {
			return fmt.Errorf("block id needs exactly one of blockHash and blockNumber")
		}
		if obj.BlockNumber != nil && obj.RequireCanonical != nil {
			return fmt.Errorf("requireCanonical is only valid with blockHash")
		}
		*id = BlockID{Hash: obj.BlockHash, RequireCanonical: obj.RequireCanonical, Number: obj.BlockNumber}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid block id: %s", string(data))
	}
	if len(s) == 2+2*types.HashLength {
		var h types.Hash
		if err := h.UnmarshalText([]byte(s)); err != nil {
			return err
		}
		*id = BlockIDFromHash(h)
		return nil
	}
	var n BlockNumberOrTag
	if err := n.UnmarshalText([]byte(s)); err != nil {
		return err
	}
	*id = BlockIDFromNumber(n)
	return nil
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)
