package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/eth2030/rpcbridge/geth"
	"github.com/eth2030/rpcbridge/metrics"
)

var (
	yellow = color.New(color.FgYellow).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// fieldMapping pairs a node JSON field with the go-ethereum field it
// converts to.
type fieldMapping struct {
	node  string
	geth  string
	notes string
}

var fieldMappings = map[string][]fieldMapping{
	"transaction": {
		{"hash", "Tx.Hash()", "checked against the envelope hash"},
		{"nonce", "Tx.Nonce()", ""},
		{"from", "From", "recovered from the signature when absent"},
		{"to", "Tx.To()", "required for blob and set-code"},
		{"value", "Tx.Value()", ""},
		{"gas", "Tx.Gas()", "required"},
		{"gasPrice", "Tx.GasPrice()", "authoritative for legacy/access-list; fee cap for fee-market"},
		{"maxFeePerGas", "Tx.GasFeeCap()", "fee-market types"},
		{"maxPriorityFeePerGas", "Tx.GasTipCap()", "fee-market types"},
		{"maxFeePerBlobGas", "Tx.BlobGasFeeCap()", "blob only"},
		{"blobVersionedHashes", "Tx.BlobHashes()", "blob only"},
		{"input", "Tx.Data()", ""},
		{"chainId", "Tx.ChainId()", "absent for unprotected legacy; legacy must match v"},
		{"accessList", "Tx.AccessList()", "typed only"},
		{"authorizationList", "Tx.SetCodeAuthorizations()", "set-code only"},
		{"v, r, s", "Tx.RawSignatureValues()", "zero when unsigned"},
		{"yParity", "Tx.RawSignatureValues() v", "typed only"},
		{"type", "Tx.Type()", ""},
		{"blockHash, blockNumber, transactionIndex", "TxExtraInfo", "all or none"},
	},
	"receipt": {
		{"transactionHash", "Receipt.TxHash", "required"},
		{"transactionIndex", "Receipt.TransactionIndex", "required"},
		{"blockHash, blockNumber", "Receipt.BlockHash, BlockNumber", "both or neither"},
		{"from, to", "ReceiptExtraInfo", ""},
		{"cumulativeGasUsed", "Receipt.CumulativeGasUsed", "required"},
		{"gasUsed", "Receipt.GasUsed", "required"},
		{"effectiveGasPrice", "Receipt.EffectiveGasPrice", "at most 128 bits"},
		{"blobGasUsed", "Receipt.BlobGasUsed", ""},
		{"blobGasPrice", "Receipt.BlobGasPrice", "at most 128 bits"},
		{"contractAddress", "Receipt.ContractAddress", "zero means absent"},
		{"logs", "Receipt.Logs", ""},
		{"logsBloom", "Receipt.Bloom", "checked against logs when non-zero"},
		{"root", "Receipt.PostState", "pre-Byzantium; excludes status"},
		{"status", "Receipt.Status", "excludes root"},
		{"type", "Receipt.Type", ""},
	},
	"log": {
		{"address", "Log.Address", ""},
		{"topics", "Log.Topics", "at most four"},
		{"data", "Log.Data", ""},
		{"blockHash, blockNumber, transactionIndex, logIndex", "Log.BlockHash, BlockNumber, TxIndex, Index", "all or none"},
		{"transactionHash", "Log.TxHash", "zero means absent"},
		{"removed", "Log.Removed", ""},
	},
	"filter": {
		{"blockHash", "FilterQuery.BlockHash", "excludes fromBlock and toBlock"},
		{"fromBlock", "FilterQuery.FromBlock", "tags are negative numbers"},
		{"toBlock", "FilterQuery.ToBlock", "tags are negative numbers"},
		{"address", "FilterQuery.Addresses", "single value reads back as one"},
		{"topics", "FilterQuery.Topics", "trailing wildcards dropped"},
	},
	"call": {
		{"from", "CallMsg.From", "zero means absent"},
		{"to", "CallMsg.To", ""},
		{"gas", "CallMsg.Gas", "zero means absent"},
		{"gasPrice", "CallMsg.GasPrice", ""},
		{"maxFeePerGas", "CallMsg.GasFeeCap", ""},
		{"maxPriorityFeePerGas", "CallMsg.GasTipCap", ""},
		{"value", "CallMsg.Value", ""},
		{"input", "CallMsg.Data", ""},
		{"accessList", "CallMsg.AccessList", ""},
		{"maxFeePerBlobGas", "CallMsg.BlobGasFeeCap", ""},
		{"blobVersionedHashes", "CallMsg.BlobHashes", ""},
		{"authorizationList", "CallMsg.AuthorizationList", ""},
		{"nonce, chainId", "", "not representable"},
		{"type", "", "must match the fee fields"},
	},
	"block-id": {
		{"blockHash", "BlockNumberOrHash.BlockHash", ""},
		{"requireCanonical", "BlockNumberOrHash.RequireCanonical", "false reads back as absent"},
		{"blockNumber", "BlockNumberOrHash.BlockNumber", "tags are negative numbers"},
	},
	"proof": {
		{"address", "AccountResult.Address", ""},
		{"accountProof", "AccountResult.AccountProof", "hex strings"},
		{"balance", "AccountResult.Balance", "required"},
		{"codeHash", "AccountResult.CodeHash", ""},
		{"nonce", "AccountResult.Nonce", ""},
		{"storageHash", "AccountResult.StorageHash", ""},
		{"storageProof[].key", "StorageResult.Key", "left-padded to 32 bytes"},
		{"storageProof[].value", "StorageResult.Value", "required"},
		{"storageProof[].proof", "StorageResult.Proof", "hex strings"},
	},
	"fee-history": {
		{"oldestBlock", "FeeHistory.OldestBlock", "required"},
		{"baseFeePerGas", "FeeHistory.BaseFee", ""},
		{"gasUsedRatio", "FeeHistory.GasUsedRatio", ""},
		{"reward", "FeeHistory.Reward", "absent without percentiles"},
	},
	"access-list-result": {
		{"accessList", "AccessListResult.AccessList", ""},
		{"gasUsed", "AccessListResult.GasUsed", "required, at most 64 bits"},
		{"error", "AccessListResult.Error", ""},
	},
}

func fieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields [entity]",
		Short: "Print how node JSON fields map to go-ethereum fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entities := geth.Entities()
			if len(args) == 1 {
				if _, ok := fieldMappings[args[0]]; !ok {
					return fmt.Errorf("unknown entity %q (known: %s)", args[0], strings.Join(entities, ", "))
				}
				entities = args[:1]
			}
			printFields(a.stdout, entities)
			return nil
		},
	}
}

func printFields(w io.Writer, entities []string) {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Entity", "Node field", "go-ethereum field", "Notes")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, entity := range entities {
		for _, m := range fieldMappings[entity] {
			gethField := m.geth
			if gethField == "" {
				gethField = yellow("none")
			}
			tbl.AddRow(entity, m.node, gethField, dim(m.notes))
		}
	}
	tbl.Print()
}

func printStats(w io.Writer, r *metrics.Registry) {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Metric", "Kind", "Value")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, s := range r.Snapshot() {
		value := fmt.Sprintf("%d", s.Value)
		if s.Kind == "histogram" {
			value = fmt.Sprintf("n=%d mean=%.1f min=%.0f max=%.0f",
				s.Summary.Count, s.Summary.Mean(), s.Summary.Min, s.Summary.Max)
		}
		tbl.AddRow(s.Name, s.Kind, value)
	}
	tbl.Print()
}
