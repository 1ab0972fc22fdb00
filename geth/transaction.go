package geth

import (
	"encoding/json"
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// RPCTransaction is a go-ethereum transaction envelope together with the
// inclusion metadata a node reports next to it. It has the JSON shape of an
// eth_getTransactionByHash result.
type RPCTransaction struct {
	Tx *gethtypes.Transaction
	TxExtraInfo
}

// TxExtraInfo holds the fields of a transaction result that are not part of
// the signed envelope. Block linkage is either fully present or absent.
type TxExtraInfo struct {
	BlockHash        *gethcommon.Hash    `json:"blockHash,omitempty"`
	BlockNumber      *hexutil.Big        `json:"blockNumber,omitempty"`
	TransactionIndex *hexutil.Uint64     `json:"transactionIndex,omitempty"`
	From             *gethcommon.Address `json:"from,omitempty"`
}

// UnmarshalJSON decodes both the envelope and the extra fields.
func (t *RPCTransaction) UnmarshalJSON(msg []byte) error {
	tx := new(gethtypes.Transaction)
	if err := json.Unmarshal(msg, tx); err != nil {
		return err
	}
	var extra TxExtraInfo
	if err := json.Unmarshal(msg, &extra); err != nil {
		return err
	}
	t.Tx, t.TxExtraInfo = tx, extra
	return nil
}

// MarshalJSON encodes the envelope and the extra fields as one object.
func (t *RPCTransaction) MarshalJSON() ([]byte, error) {
	return mergeJSON(t.Tx, t.TxExtraInfo)
}

func mergeJSON(parts ...any) ([]byte, error) {
	merged := make(map[string]json.RawMessage)
	for _, p := range parts {
		enc, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(enc, &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// ToGethTransaction builds the typed go-ethereum envelope for tx. Legacy and
// access-list transactions need GasPrice and must not carry fee caps;
// fee-market transactions need both fee caps and ignore GasPrice. A missing
// signature converts to v = r = s = 0.
func ToGethTransaction(tx *rpc.Transaction) (*RPCTransaction, error) {
	if tx == nil {
		return nil, nil
	}
	inner, err := toGethTxData(tx)
	if err != nil {
		return nil, err
	}
	etx := gethtypes.NewTx(inner)
	if !tx.Hash.IsZero() && etx.Hash() != ToGethHash(tx.Hash) {
		return nil, unsupported("hash", "envelope hash %s does not match %s", etx.Hash(), tx.Hash)
	}

	out := &RPCTransaction{Tx: etx}
	from := ToGethAddress(tx.From)
	out.From = &from
	if !tx.IsPending() {
		if tx.BlockHash == nil || tx.BlockNumber == nil || tx.TransactionIndex == nil {
			return nil, unsupported("blockHash", "partial block linkage")
		}
		hash := ToGethHash(*tx.BlockHash)
		idx, err := U256ToUint64(tx.TransactionIndex)
		if err != nil {
			return nil, fieldErr("transactionIndex", err)
		}
		out.BlockHash = &hash
		out.BlockNumber = (*hexutil.Big)(U256ToBig(tx.BlockNumber))
		out.TransactionIndex = (*hexutil.Uint64)(&idx)
	}
	return out, nil
}

func toGethTxData(tx *rpc.Transaction) (gethtypes.TxData, error) {
	if tx.Gas == nil {
		return nil, missing("gas")
	}
	gas, err := U256ToUint64(tx.Gas)
	if err != nil {
		return nil, fieldErr("gas", err)
	}
	v, r, s := signatureValues(tx.Signature)
	to := toGethAddressPtr(tx.To)
	data := copyBytes(tx.Input)
	nonce := uint64(tx.Nonce)

	switch typ := tx.TxType(); typ {
	case rpc.LegacyTxType, rpc.AccessListTxType:
		if tx.MaxFeePerGas != nil {
			return nil, unsupported("maxFeePerGas", "fee cap on type %d transaction", typ)
		}
		if tx.MaxPriorityFeePerGas != nil {
			return nil, unsupported("maxPriorityFeePerGas", "fee cap on type %d transaction", typ)
		}
		if tx.GasPrice == nil {
			return nil, missing("gasPrice")
		}
		if typ == rpc.LegacyTxType {
			if tx.AccessList != nil && len(*tx.AccessList) > 0 {
				return nil, unsupported("accessList", "access list on legacy transaction")
			}
			legacy := &gethtypes.LegacyTx{
				Nonce:    nonce,
				GasPrice: U128ToBig(tx.GasPrice),
				Gas:      gas,
				To:       to,
				Value:    U256ToBig(tx.Value),
				Data:     data,
				V:        v.ToBig(),
				R:        r.ToBig(),
				S:        s.ToBig(),
			}
			if err := checkLegacyChainID(legacy, tx.ChainID); err != nil {
				return nil, err
			}
			return legacy, nil
		}
		if tx.ChainID == nil {
			return nil, missing("chainId")
		}
		return &gethtypes.AccessListTx{
			ChainID:    U64ToBig(tx.ChainID),
			Nonce:      nonce,
			GasPrice:   U128ToBig(tx.GasPrice),
			Gas:        gas,
			To:         to,
			Value:      U256ToBig(tx.Value),
			Data:       data,
			AccessList: ToGethAccessList(tx.AccessList),
			V:          v.ToBig(),
			R:          r.ToBig(),
			S:          s.ToBig(),
		}, nil

	case rpc.DynamicFeeTxType, rpc.BlobTxType, rpc.SetCodeTxType:
		if tx.MaxFeePerGas == nil {
			return nil, missing("maxFeePerGas")
		}
		if tx.MaxPriorityFeePerGas == nil {
			return nil, missing("maxPriorityFeePerGas")
		}
		if tx.ChainID == nil {
			return nil, missing("chainId")
		}
		if typ == rpc.DynamicFeeTxType {
			return &gethtypes.DynamicFeeTx{
				ChainID:    U64ToBig(tx.ChainID),
				Nonce:      nonce,
				GasTipCap:  U128ToBig(tx.MaxPriorityFeePerGas),
				GasFeeCap:  U128ToBig(tx.MaxFeePerGas),
				Gas:        gas,
				To:         to,
				Value:      U256ToBig(tx.Value),
				Data:       data,
				AccessList: ToGethAccessList(tx.AccessList),
				V:          v.ToBig(),
				R:          r.ToBig(),
				S:          s.ToBig(),
			}, nil
		}
		// Blob and set-code transactions cannot create contracts.
		if to == nil {
			return nil, missing("to")
		}
		chainID := uint256.NewInt(uint64(*tx.ChainID))
		if typ == rpc.BlobTxType {
			if tx.MaxFeePerBlobGas == nil {
				return nil, missing("maxFeePerBlobGas")
			}
			return &gethtypes.BlobTx{
				ChainID:    chainID,
				Nonce:      nonce,
				GasTipCap:  u128ToUint256(tx.MaxPriorityFeePerGas),
				GasFeeCap:  u128ToUint256(tx.MaxFeePerGas),
				Gas:        gas,
				To:         *to,
				Value:      u256ToUint256(tx.Value),
				Data:       data,
				AccessList: ToGethAccessList(tx.AccessList),
				BlobFeeCap: u128ToUint256(tx.MaxFeePerBlobGas),
				BlobHashes: toGethHashes(tx.BlobVersionedHashes),
				V:          v,
				R:          r,
				S:          s,
			}, nil
		}
		return &gethtypes.SetCodeTx{
			ChainID:    chainID,
			Nonce:      nonce,
			GasTipCap:  u128ToUint256(tx.MaxPriorityFeePerGas),
			GasFeeCap:  u128ToUint256(tx.MaxFeePerGas),
			Gas:        gas,
			To:         *to,
			Value:      u256ToUint256(tx.Value),
			Data:       data,
			AccessList: ToGethAccessList(tx.AccessList),
			AuthList:   toGethAuthorizations(tx.AuthorizationList),
			V:          v,
			R:          r,
			S:          s,
		}, nil

	default:
		return nil, unsupported("type", "transaction type %d", typ)
	}
}

// checkLegacyChainID verifies a reported chain id against the one encoded in
// the EIP-155 v value. A legacy envelope has no chain id slot of its own, so
// an unprotected transaction cannot carry one.
func checkLegacyChainID(legacy *gethtypes.LegacyTx, chainID *types.U64) error {
	if chainID == nil {
		return nil
	}
	etx := gethtypes.NewTx(legacy)
	if !etx.Protected() {
		return unsupported("chainId", "chain id %d on unprotected legacy transaction", uint64(*chainID))
	}
	if got := etx.ChainId(); got.Cmp(U64ToBig(chainID)) != 0 {
		return unsupported("chainId", "chain id %d does not match %s encoded in v", uint64(*chainID), got)
	}
	return nil
}

// signatureValues returns the signature of a transaction, or zeros when it
// is unsigned. A typed transaction may report only its y-parity.
func signatureValues(sig *rpc.Signature) (v, r, s *uint256.Int) {
	if sig == nil {
		return new(uint256.Int), new(uint256.Int), new(uint256.Int)
	}
	v = u256ToUint256(sig.V)
	if sig.V == nil && sig.YParity != nil {
		v = uint256.NewInt(uint64(*sig.YParity))
	}
	return v, u256ToUint256(sig.R), u256ToUint256(sig.S)
}

func toGethAuthorizations(auths []rpc.Authorization) []gethtypes.SetCodeAuthorization {
	if auths == nil {
		return nil
	}
	out := make([]gethtypes.SetCodeAuthorization, len(auths))
	for i, a := range auths {
		out[i] = gethtypes.SetCodeAuthorization{
			ChainID: *u256ToUint256(&a.ChainID),
			Address: ToGethAddress(a.Address),
			Nonce:   uint64(a.Nonce),
			V:       uint8(a.YParity),
			R:       *u256ToUint256(&a.R),
			S:       *u256ToUint256(&a.S),
		}
	}
	return out
}

func fromGethAuthorizations(auths []gethtypes.SetCodeAuthorization) []rpc.Authorization {
	if auths == nil {
		return nil
	}
	out := make([]rpc.Authorization, len(auths))
	for i, a := range auths {
		out[i] = rpc.Authorization{
			ChainID: *u256FromUint256(&a.ChainID),
			Address: FromGethAddress(a.Address),
			Nonce:   types.U64(a.Nonce),
			YParity: types.U8(a.V),
			R:       *u256FromUint256(&a.R),
			S:       *u256FromUint256(&a.S),
		}
	}
	return out
}

// FromGethTransaction flattens a go-ethereum transaction into the JSON-RPC
// record. GasPrice is always set; for fee-market transactions it carries the
// fee cap. When the sender is not supplied it is recovered from the
// signature, and an unsigned transaction without a sender fails.
func FromGethTransaction(rt *RPCTransaction) (*rpc.Transaction, error) {
	if rt == nil {
		return nil, nil
	}
	etx := rt.Tx
	if etx == nil {
		return nil, missing("tx")
	}

	value, err := BigToU256(etx.Value())
	if err != nil {
		return nil, fieldErr("value", err)
	}
	typ := types.U8(etx.Type())
	out := &rpc.Transaction{
		Hash:  FromGethHash(etx.Hash()),
		Nonce: types.U64(etx.Nonce()),
		To:    fromGethAddressPtr(etx.To()),
		Value: value,
		Gas:   Uint64ToU256(etx.Gas()),
		Input: types.Bytes(etx.Data()),
		Type:  &typ,
	}

	v, r, s := etx.RawSignatureValues()
	sig, err := fromGethSignature(etx.Type(), v, r, s)
	if err != nil {
		return nil, err
	}
	out.Signature = sig

	switch etx.Type() {
	case gethtypes.LegacyTxType, gethtypes.AccessListTxType:
		if out.GasPrice, err = BigToU128(etx.GasPrice()); err != nil {
			return nil, fieldErr("gasPrice", err)
		}
	case gethtypes.DynamicFeeTxType, gethtypes.BlobTxType, gethtypes.SetCodeTxType:
		if out.MaxFeePerGas, err = BigToU128(etx.GasFeeCap()); err != nil {
			return nil, fieldErr("maxFeePerGas", err)
		}
		if out.MaxPriorityFeePerGas, err = BigToU128(etx.GasTipCap()); err != nil {
			return nil, fieldErr("maxPriorityFeePerGas", err)
		}
		gasPrice := *out.MaxFeePerGas
		out.GasPrice = &gasPrice
	default:
		return nil, unsupported("type", "transaction type %d", etx.Type())
	}

	if etx.Type() != gethtypes.LegacyTxType || etx.Protected() {
		if out.ChainID, err = BigToU64(etx.ChainId()); err != nil {
			return nil, fieldErr("chainId", err)
		}
	}
	if etx.Type() != gethtypes.LegacyTxType {
		out.AccessList = FromGethAccessList(etx.AccessList())
	}
	if etx.Type() == gethtypes.BlobTxType {
		if out.MaxFeePerBlobGas, err = BigToU128(etx.BlobGasFeeCap()); err != nil {
			return nil, fieldErr("maxFeePerBlobGas", err)
		}
		out.BlobVersionedHashes = fromGethHashes(etx.BlobHashes())
	}
	if etx.Type() == gethtypes.SetCodeTxType {
		out.AuthorizationList = fromGethAuthorizations(etx.SetCodeAuthorizations())
	}

	from, err := senderOf(rt)
	if err != nil {
		return nil, err
	}
	out.From = from

	if err := fromGethTxLinkage(out, &rt.TxExtraInfo); err != nil {
		return nil, err
	}
	return out, nil
}

func fromGethSignature(typ uint8, v, r, s *big.Int) (*rpc.Signature, error) {
	var sig rpc.Signature
	var err error
	if sig.V, err = BigToU256(v); err != nil {
		return nil, fieldErr("v", err)
	}
	if sig.R, err = BigToU256(r); err != nil {
		return nil, fieldErr("r", err)
	}
	if sig.S, err = BigToU256(s); err != nil {
		return nil, fieldErr("s", err)
	}
	if typ != gethtypes.LegacyTxType {
		if sig.YParity, err = BigToU64(v); err != nil {
			return nil, fieldErr("yParity", err)
		}
	}
	return &sig, nil
}

// senderOf returns the reported sender, or recovers it from the signature.
func senderOf(rt *RPCTransaction) (types.Address, error) {
	if rt.From != nil {
		return FromGethAddress(*rt.From), nil
	}
	etx := rt.Tx
	v, r, s := etx.RawSignatureValues()
	if isZero(v) && isZero(r) && isZero(s) {
		return types.Address{}, missing("from")
	}
	var chainID *big.Int
	if etx.Type() != gethtypes.LegacyTxType || etx.Protected() {
		chainID = etx.ChainId()
	}
	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(chainID), etx)
	if err != nil {
		return types.Address{}, unsupported("from", "sender recovery: %v", err)
	}
	return FromGethAddress(from), nil
}

func isZero(b *big.Int) bool { return b == nil || b.Sign() == 0 }

func fromGethTxLinkage(out *rpc.Transaction, extra *TxExtraInfo) error {
	hasHash, hasNumber, hasIndex := extra.BlockHash != nil, extra.BlockNumber != nil, extra.TransactionIndex != nil
	if !hasHash && !hasNumber && !hasIndex {
		return nil
	}
	if !hasHash || !hasNumber || !hasIndex {
		return unsupported("blockHash", "partial block linkage")
	}
	number, err := BigToU256(extra.BlockNumber.ToInt())
	if err != nil {
		return fieldErr("blockNumber", err)
	}
	hash := FromGethHash(*extra.BlockHash)
	out.BlockHash = &hash
	out.BlockNumber = number
	out.TransactionIndex = Uint64ToU256(uint64(*extra.TransactionIndex))
	return nil
}
