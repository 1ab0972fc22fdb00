package geth

import (
	"encoding/json"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// RPCReceipt is a go-ethereum receipt together with the sender and
// recipient a node reports next to it. It has the JSON shape of an
// eth_getTransactionReceipt result.
type RPCReceipt struct {
	Receipt *gethtypes.Receipt
	ReceiptExtraInfo
}

// ReceiptExtraInfo holds receipt result fields go-ethereum's Receipt does
// not model.
type ReceiptExtraInfo struct {
	From gethcommon.Address  `json:"from"`
	To   *gethcommon.Address `json:"to"`
}

// UnmarshalJSON decodes both the receipt and the extra fields.
func (r *RPCReceipt) UnmarshalJSON(msg []byte) error {
	rcpt := new(gethtypes.Receipt)
	if err := rcpt.UnmarshalJSON(msg); err != nil {
		return err
	}
	var extra ReceiptExtraInfo
	if err := json.Unmarshal(msg, &extra); err != nil {
		return err
	}
	r.Receipt, r.ReceiptExtraInfo = rcpt, extra
	return nil
}

// MarshalJSON encodes the receipt and the extra fields as one object.
func (r *RPCReceipt) MarshalJSON() ([]byte, error) {
	return mergeJSON(r.Receipt, r.ReceiptExtraInfo)
}

// ToGethReceipt converts a receipt. The transaction hash and index are
// required, and exactly one of status and root must be set. A non-zero
// logsBloom must be the bloom of the receipt's logs.
func ToGethReceipt(r *rpc.Receipt) (*RPCReceipt, error) {
	if r == nil {
		return nil, nil
	}
	if r.TransactionHash == nil {
		return nil, missing("transactionHash")
	}
	if r.TransactionIndex == nil {
		return nil, missing("transactionIndex")
	}
	if (r.StatusCode == nil) == (r.StateRoot == nil) {
		return nil, &ConversionError{Field: "status", Err: ErrAmbiguousReceiptState}
	}
	if (r.BlockHash == nil) != (r.BlockNumber == nil) {
		return nil, unsupported("blockHash", "partial block linkage")
	}
	if r.CumulativeGasUsed == nil {
		return nil, missing("cumulativeGasUsed")
	}
	if r.GasUsed == nil {
		return nil, missing("gasUsed")
	}

	out := &gethtypes.Receipt{
		Type:              uint8(r.Type),
		Bloom:             ToGethBloom(r.LogsBloom),
		TxHash:            ToGethHash(*r.TransactionHash),
		EffectiveGasPrice: U128ToBig(r.EffectiveGasPrice),
		BlobGasPrice:      U128ToBig(r.BlobGasPrice),
		BlockNumber:       U256ToBig(r.BlockNumber),
	}
	var err error
	if out.CumulativeGasUsed, err = U256ToUint64(r.CumulativeGasUsed); err != nil {
		return nil, fieldErr("cumulativeGasUsed", err)
	}
	if out.GasUsed, err = U256ToUint64(r.GasUsed); err != nil {
		return nil, fieldErr("gasUsed", err)
	}
	if out.TransactionIndex, err = Uint64ToUint(uint64(*r.TransactionIndex)); err != nil {
		return nil, fieldErr("transactionIndex", err)
	}
	if r.StatusCode != nil {
		out.Status = uint64(*r.StatusCode)
	} else {
		out.PostState = copyBytes(r.StateRoot.Bytes())
	}
	if r.BlobGasUsed != nil {
		out.BlobGasUsed = uint64(*r.BlobGasUsed)
	}
	if r.ContractAddress != nil {
		out.ContractAddress = ToGethAddress(*r.ContractAddress)
	}
	if r.BlockHash != nil {
		out.BlockHash = ToGethHash(*r.BlockHash)
	}
	if out.Logs, err = ToGethLogs(r.Logs); err != nil {
		return nil, fieldErr("logs", err)
	}
	if r.LogsBloom != (types.Bloom{}) && r.LogsBloom != r.DeriveBloom() {
		return nil, unsupported("logsBloom", "bloom does not cover the receipt's logs")
	}
	return &RPCReceipt{
		Receipt: out,
		ReceiptExtraInfo: ReceiptExtraInfo{
			From: ToGethAddress(r.From),
			To:   toGethAddressPtr(r.To),
		},
	}, nil
}

// FromGethReceipt converts a go-ethereum receipt. A non-empty PostState
// becomes the pre-Byzantium root and must be 32 bytes; otherwise Status is
// used. A zero contract address converts to an absent one.
func FromGethReceipt(rr *RPCReceipt) (*rpc.Receipt, error) {
	if rr == nil {
		return nil, nil
	}
	r := rr.Receipt
	if r == nil {
		return nil, missing("receipt")
	}
	txHash := FromGethHash(r.TxHash)
	txIndex := types.U64(r.TransactionIndex)
	out := &rpc.Receipt{
		TransactionHash:   &txHash,
		TransactionIndex:  &txIndex,
		From:              FromGethAddress(rr.From),
		To:                fromGethAddressPtr(rr.To),
		CumulativeGasUsed: Uint64ToU256(r.CumulativeGasUsed),
		GasUsed:           Uint64ToU256(r.GasUsed),
		LogsBloom:         FromGethBloom(r.Bloom),
		Type:              types.U8(r.Type),
	}

	if len(r.PostState) > 0 {
		if r.Status == gethtypes.ReceiptStatusSuccessful {
			return nil, &ConversionError{Field: "root", Err: ErrAmbiguousReceiptState}
		}
		root, err := HashFromBytes(r.PostState)
		if err != nil {
			return nil, fieldErr("root", err)
		}
		out.StateRoot = &root
	} else {
		status := types.U64(r.Status)
		out.StatusCode = &status
	}

	hasHash := r.BlockHash != (gethcommon.Hash{})
	if hasHash != (r.BlockNumber != nil) {
		return nil, unsupported("blockHash", "partial block linkage")
	}
	var err error
	if hasHash {
		h := FromGethHash(r.BlockHash)
		out.BlockHash = &h
		if out.BlockNumber, err = BigToU256(r.BlockNumber); err != nil {
			return nil, fieldErr("blockNumber", err)
		}
	}
	if out.EffectiveGasPrice, err = BigToU128(r.EffectiveGasPrice); err != nil {
		return nil, fieldErr("effectiveGasPrice", err)
	}
	if out.BlobGasPrice, err = BigToU128(r.BlobGasPrice); err != nil {
		return nil, fieldErr("blobGasPrice", err)
	}
	if r.BlobGasUsed != 0 {
		used := types.U64(r.BlobGasUsed)
		out.BlobGasUsed = &used
	}
	if r.ContractAddress != (gethcommon.Address{}) {
		addr := FromGethAddress(r.ContractAddress)
		out.ContractAddress = &addr
	}
	if out.Logs, err = FromGethLogs(r.Logs); err != nil {
		return nil, fieldErr("logs", err)
	}
	return out, nil
}
