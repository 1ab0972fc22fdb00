package rpc

import (
	"github.com/eth2030/rpcbridge/core/types"
)

// AccountProof is the response for eth_getProof (EIP-1186).
type AccountProof struct {
	Address      types.Address  `json:"address"`
	AccountProof []types.Bytes  `json:"accountProof"`
	Balance      *types.U256    `json:"balance"`
	CodeHash     types.Hash     `json:"codeHash"`
	Nonce        types.U64      `json:"nonce"`
	StorageHash  types.Hash     `json:"storageHash"`
	StorageProof []StorageProof `json:"storageProof"`
}

// StorageProof is a single storage slot proof within eth_getProof. Key is
// the full 32-byte storage slot.
type StorageProof struct {
	Key   types.Hash    `json:"key"`
	Value *types.U256   `json:"value"`
	Proof []types.Bytes `json:"proof"`
}

// FeeHistory is the response for eth_feeHistory. BaseFeePerGas has one
// more entry than GasUsedRatio: the base fee of the block after the newest
// one. Reward is nil unless percentiles were requested.
type FeeHistory struct {
	OldestBlock   types.U64       `json:"oldestBlock"`
	BaseFeePerGas []*types.U256   `json:"baseFeePerGas"`
	GasUsedRatio  []float64       `json:"gasUsedRatio"`
	Reward        [][]*types.U256 `json:"reward,omitempty"`
}

// AccessListResult is the response for eth_createAccessList.
type AccessListResult struct {
	AccessList types.AccessList `json:"accessList"`
	GasUsed    *types.U256      `json:"gasUsed"`
	Error      string           `json:"error,omitempty"`
}
