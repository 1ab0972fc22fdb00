package rpc

import (
	"github.com/eth2030/rpcbridge/core/types"
)

// Transaction type tags.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
	BlobTxType       = 0x03
	SetCodeTxType    = 0x04
)

// Transaction is the flat JSON-RPC transaction record. Block linkage
// (BlockHash, BlockNumber, TransactionIndex) is set only once the
// transaction is included in a block.
type Transaction struct {
	Hash             types.Hash     `json:"hash"`
	Nonce            types.U64      `json:"nonce"`
	BlockHash        *types.Hash    `json:"blockHash"`
	BlockNumber      *types.U256    `json:"blockNumber"`
	TransactionIndex *types.U256    `json:"transactionIndex"`
	From             types.Address  `json:"from"`
	To               *types.Address `json:"to"`
	Value            *types.U256    `json:"value"`
	Gas              *types.U256    `json:"gas"`
	Input            types.Bytes    `json:"input"`

	// GasPrice is authoritative for legacy and access-list transactions.
	// For fee-market transactions it is a convenience value and the two
	// fee caps below are authoritative.
	GasPrice             *types.U128 `json:"gasPrice,omitempty"`
	MaxFeePerGas         *types.U128 `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *types.U128 `json:"maxPriorityFeePerGas,omitempty"`

	// EIP-4844
	MaxFeePerBlobGas    *types.U128  `json:"maxFeePerBlobGas,omitempty"`
	BlobVersionedHashes []types.Hash `json:"blobVersionedHashes,omitempty"`

	// EIP-7702
	AuthorizationList []Authorization `json:"authorizationList,omitempty"`

	*Signature

	ChainID    *types.U64        `json:"chainId,omitempty"`
	AccessList *types.AccessList `json:"accessList,omitempty"`
	Type       *types.U8         `json:"type,omitempty"`
}

// Signature holds the signature values of a transaction. V is the legacy
// recovery value (27/28 or EIP-155 encoded) or the y-parity for typed
// transactions.
type Signature struct {
	R       *types.U256 `json:"r"`
	S       *types.U256 `json:"s"`
	V       *types.U256 `json:"v"`
	YParity *types.U64  `json:"yParity,omitempty"`
}

// TxType returns the type tag, treating an absent tag as legacy.
func (tx *Transaction) TxType() uint8 {
	if tx.Type == nil {
		return LegacyTxType
	}
	return uint8(*tx.Type)
}

// IsPending reports whether the transaction carries no block linkage.
func (tx *Transaction) IsPending() bool {
	return tx.BlockHash == nil && tx.BlockNumber == nil && tx.TransactionIndex == nil
}

// Authorization is an EIP-7702 set-code authorization tuple.
type Authorization struct {
	ChainID types.U256    `json:"chainId"`
	Address types.Address `json:"address"`
	Nonce   types.U64     `json:"nonce"`
	YParity types.U8      `json:"yParity"`
	R       types.U256    `json:"r"`
	S       types.U256    `json:"s"`
}

// CallRequest is a client-submitted call or transaction request. Every
// field is optional; the execution layer applies its own defaults.
type CallRequest struct {
	From                 *types.Address    `json:"from,omitempty"`
	To                   *types.Address    `json:"to,omitempty"`
	GasPrice             *types.U128       `json:"gasPrice,omitempty"`
	MaxFeePerGas         *types.U128       `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *types.U128       `json:"maxPriorityFeePerGas,omitempty"`
	Gas                  *types.U256       `json:"gas,omitempty"`
	Value                *types.U256       `json:"value,omitempty"`
	Input                types.Bytes       `json:"input,omitempty"`
	Nonce                *types.U64        `json:"nonce,omitempty"`
	ChainID              *types.U64        `json:"chainId,omitempty"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
	Type                 *types.U8         `json:"type,omitempty"`
	MaxFeePerBlobGas     *types.U128       `json:"maxFeePerBlobGas,omitempty"`
	BlobVersionedHashes  []types.Hash      `json:"blobVersionedHashes,omitempty"`
	AuthorizationList    []Authorization   `json:"authorizationList,omitempty"`
}
