package geth

import (
	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// FromGethCallMsg converts a go-ethereum call message into a call request.
// A zero sender and zero gas are treated as unset. CallMsg carries no type
// tag, so the request's type is left for the node to infer.
func FromGethCallMsg(msg ethereum.CallMsg) (*rpc.CallRequest, error) {
	req := &rpc.CallRequest{
		To:                  fromGethAddressPtr(msg.To),
		BlobVersionedHashes: fromGethHashes(msg.BlobHashes),
		AuthorizationList:   fromGethAuthorizations(msg.AuthorizationList),
	}
	if msg.From != (gethcommon.Address{}) {
		from := FromGethAddress(msg.From)
		req.From = &from
	}
	if msg.Gas != 0 {
		req.Gas = Uint64ToU256(msg.Gas)
	}
	if len(msg.Data) > 0 {
		req.Input = copyBytes(msg.Data)
	}
	if msg.AccessList != nil {
		req.AccessList = FromGethAccessList(msg.AccessList)
	}

	var err error
	if req.GasPrice, err = BigToU128(msg.GasPrice); err != nil {
		return nil, fieldErr("gasPrice", err)
	}
	if req.MaxFeePerGas, err = BigToU128(msg.GasFeeCap); err != nil {
		return nil, fieldErr("maxFeePerGas", err)
	}
	if req.MaxPriorityFeePerGas, err = BigToU128(msg.GasTipCap); err != nil {
		return nil, fieldErr("maxPriorityFeePerGas", err)
	}
	if req.MaxFeePerBlobGas, err = BigToU128(msg.BlobGasFeeCap); err != nil {
		return nil, fieldErr("maxFeePerBlobGas", err)
	}
	if req.Value, err = BigToU256(msg.Value); err != nil {
		return nil, fieldErr("value", err)
	}
	return req, nil
}

// ToGethCallMsg converts a call request into a go-ethereum call message.
// CallMsg cannot carry a nonce, a chain id or a type tag that disagrees with
// the fee fields, so requests with those fail with ErrUnsupportedVariant.
func ToGethCallMsg(req *rpc.CallRequest) (ethereum.CallMsg, error) {
	var msg ethereum.CallMsg
	if req.Nonce != nil {
		return msg, unsupported("nonce", "call message has no nonce")
	}
	if req.ChainID != nil {
		return msg, unsupported("chainId", "call message has no chain id")
	}
	if req.Type != nil {
		if inferred := inferCallType(req); uint8(*req.Type) != inferred {
			return msg, unsupported("type", "type %d does not match fee fields of type %d", *req.Type, inferred)
		}
	}
	if req.From != nil {
		msg.From = ToGethAddress(*req.From)
	}
	if req.Gas != nil {
		gas, err := U256ToUint64(req.Gas)
		if err != nil {
			return msg, fieldErr("gas", err)
		}
		msg.Gas = gas
	}
	msg.To = toGethAddressPtr(req.To)
	msg.GasPrice = U128ToBig(req.GasPrice)
	msg.GasFeeCap = U128ToBig(req.MaxFeePerGas)
	msg.GasTipCap = U128ToBig(req.MaxPriorityFeePerGas)
	msg.Value = U256ToBig(req.Value)
	msg.Data = copyBytes(req.Input)
	if req.AccessList != nil {
		msg.AccessList = ToGethAccessList(req.AccessList)
	}
	msg.BlobGasFeeCap = U128ToBig(req.MaxFeePerBlobGas)
	msg.BlobHashes = toGethHashes(req.BlobVersionedHashes)
	msg.AuthorizationList = toGethAuthorizations(req.AuthorizationList)
	return msg, nil
}

// inferCallType returns the transaction type implied by the fields a call
// request carries.
func inferCallType(req *rpc.CallRequest) uint8 {
	switch {
	case len(req.AuthorizationList) > 0:
		return rpc.SetCodeTxType
	case req.MaxFeePerBlobGas != nil || len(req.BlobVersionedHashes) > 0:
		return rpc.BlobTxType
	case req.MaxFeePerGas != nil || req.MaxPriorityFeePerGas != nil:
		return rpc.DynamicFeeTxType
	case req.AccessList != nil:
		return rpc.AccessListTxType
	default:
		return rpc.LegacyTxType
	}
}

// CallRequestFromGethTransaction turns a typed transaction and its sender
// into a call request, as used for eth_call and eth_estimateGas on a
// transaction a client has already built.
func CallRequestFromGethTransaction(tx *gethtypes.Transaction, from gethcommon.Address) (*rpc.CallRequest, error) {
	sender := FromGethAddress(from)
	typ := types.U8(tx.Type())
	nonce := types.U64(tx.Nonce())
	req := &rpc.CallRequest{
		From:  &sender,
		To:    fromGethAddressPtr(tx.To()),
		Gas:   Uint64ToU256(tx.Gas()),
		Input: types.Bytes(tx.Data()),
		Nonce: &nonce,
		Type:  &typ,
	}
	var err error
	if req.Value, err = BigToU256(tx.Value()); err != nil {
		return nil, fieldErr("value", err)
	}
	switch tx.Type() {
	case gethtypes.LegacyTxType, gethtypes.AccessListTxType:
		if req.GasPrice, err = BigToU128(tx.GasPrice()); err != nil {
			return nil, fieldErr("gasPrice", err)
		}
	default:
		if req.MaxFeePerGas, err = BigToU128(tx.GasFeeCap()); err != nil {
			return nil, fieldErr("maxFeePerGas", err)
		}
		if req.MaxPriorityFeePerGas, err = BigToU128(tx.GasTipCap()); err != nil {
			return nil, fieldErr("maxPriorityFeePerGas", err)
		}
	}
	if tx.Type() != gethtypes.LegacyTxType || tx.Protected() {
		if req.ChainID, err = BigToU64(tx.ChainId()); err != nil {
			return nil, fieldErr("chainId", err)
		}
	}
	if tx.Type() != gethtypes.LegacyTxType {
		req.AccessList = FromGethAccessList(tx.AccessList())
	}
	if tx.Type() == gethtypes.BlobTxType {
		if req.MaxFeePerBlobGas, err = BigToU128(tx.BlobGasFeeCap()); err != nil {
			return nil, fieldErr("maxFeePerBlobGas", err)
		}
		req.BlobVersionedHashes = fromGethHashes(tx.BlobHashes())
	}
	req.AuthorizationList = fromGethAuthorizations(tx.SetCodeAuthorizations())
	return req, nil
}
