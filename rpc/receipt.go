package rpc

import (
	"github.com/eth2030/rpcbridge/core/types"
)

// Receipt status codes.
const (
	ReceiptStatusFailed     = 0
	ReceiptStatusSuccessful = 1
)

// Receipt is the JSON-RPC transaction receipt. Exactly one of StateRoot
// (pre-Byzantium) and StatusCode is set.
type Receipt struct {
	TransactionHash   *types.Hash    `json:"transactionHash"`
	TransactionIndex  *types.U64     `json:"transactionIndex"`
	BlockHash         *types.Hash    `json:"blockHash"`
	BlockNumber       *types.U256    `json:"blockNumber"`
	From              types.Address  `json:"from"`
	To                *types.Address `json:"to"`
	CumulativeGasUsed *types.U256    `json:"cumulativeGasUsed"`
	GasUsed           *types.U256    `json:"gasUsed"`
	EffectiveGasPrice *types.U128    `json:"effectiveGasPrice,omitempty"`
	BlobGasUsed       *types.U64     `json:"blobGasUsed,omitempty"`
	BlobGasPrice      *types.U128    `json:"blobGasPrice,omitempty"`
	ContractAddress   *types.Address `json:"contractAddress"`
	Logs              []*Log         `json:"logs"`
	LogsBloom         types.Bloom    `json:"logsBloom"`
	StateRoot         *types.Hash    `json:"root,omitempty"`
	StatusCode        *types.U64     `json:"status,omitempty"`
	Type              types.U8       `json:"type"`
}

// DeriveBloom computes the bloom filter of the receipt's logs. Nil entries
// are skipped.
func (r *Receipt) DeriveBloom() types.Bloom {
	logs := make([]*types.Log, 0, len(r.Logs))
	for _, l := range r.Logs {
		if l != nil {
			logs = append(logs, l.Consensus())
		}
	}
	return types.LogsBloom(logs)
}

// Log is a contract log event as returned over JSON-RPC. The block and
// transaction linkage mirrors the parent transaction and is absent for
// pending logs.
type Log struct {
	Address          types.Address `json:"address"`
	Topics           []types.Hash  `json:"topics"`
	Data             types.Bytes   `json:"data"`
	BlockHash        *types.Hash   `json:"blockHash"`
	BlockNumber      *types.U256   `json:"blockNumber"`
	TransactionHash  *types.Hash   `json:"transactionHash"`
	TransactionIndex *types.U256   `json:"transactionIndex"`
	LogIndex         *types.U256   `json:"logIndex"`
	Removed          bool          `json:"removed"`
}

// Consensus returns the consensus fields of the log.
func (l *Log) Consensus() *types.Log {
	return &types.Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
}
