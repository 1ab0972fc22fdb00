package geth

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/go-cmp/cmp"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

func TestCallMsgRoundTrip(t *testing.T) {
	msg := ethereum.CallMsg{
		From:      testAddr,
		To:        &testTo,
		Gas:       50000,
		GasFeeCap: big.NewInt(100),
		GasTipCap: big.NewInt(2),
		Value:     big.NewInt(5),
		Data:      []byte{0x01, 0x02},
		AccessList: gethtypes.AccessList{{
			Address:     testTo,
			StorageKeys: []gethcommon.Hash{{0x07}},
		}},
	}
	req, err := FromGethCallMsg(msg)
	if err != nil {
		t.Fatalf("FromGethCallMsg: %v", err)
	}
	if req.From == nil || *req.From != FromGethAddress(testAddr) {
		t.Errorf("from = %v", req.From)
	}
	if req.Type != nil {
		t.Errorf("type = %d, want unset", *req.Type)
	}
	back, err := ToGethCallMsg(req)
	if err != nil {
		t.Fatalf("ToGethCallMsg: %v", err)
	}
	if diff := cmp.Diff(msg, back, cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGethCallMsgZeroFields(t *testing.T) {
	req, err := FromGethCallMsg(ethereum.CallMsg{})
	if err != nil {
		t.Fatalf("FromGethCallMsg: %v", err)
	}
	if diff := cmp.Diff(&rpc.CallRequest{}, req); diff != "" {
		t.Errorf("empty call mismatch (-want +got):\n%s", diff)
	}
}

func TestToGethCallMsgRejects(t *testing.T) {
	nonce, chain := types.U64(1), types.U64(1)
	if _, err := ToGethCallMsg(&rpc.CallRequest{Nonce: &nonce}); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("nonce: err = %v, want ErrUnsupportedVariant", err)
	}
	if _, err := ToGethCallMsg(&rpc.CallRequest{ChainID: &chain}); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("chainId: err = %v, want ErrUnsupportedVariant", err)
	}

	typ := types.U8(rpc.DynamicFeeTxType)
	price := types.NewU128(0, 1)
	if _, err := ToGethCallMsg(&rpc.CallRequest{Type: &typ, GasPrice: &price}); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("type mismatch: err = %v, want ErrUnsupportedVariant", err)
	}
	if _, err := ToGethCallMsg(&rpc.CallRequest{Type: &typ, MaxFeePerGas: &price}); err != nil {
		t.Errorf("matching type: %v", err)
	}
}

func TestCallRequestFromGethTransaction(t *testing.T) {
	signed := signTx(t, testKey, gethtypes.LatestSignerForChainID(big.NewInt(1)), dynamicFeeTx())
	req, err := CallRequestFromGethTransaction(signed, testAddr)
	if err != nil {
		t.Fatalf("CallRequestFromGethTransaction: %v", err)
	}
	if req.GasPrice != nil {
		t.Error("fee-market request should not carry gasPrice")
	}
	if req.MaxFeePerGas == nil || U128ToBig(req.MaxFeePerGas).Cmp(signed.GasFeeCap()) != 0 {
		t.Errorf("maxFeePerGas = %v", req.MaxFeePerGas)
	}
	if req.Nonce == nil || uint64(*req.Nonce) != signed.Nonce() {
		t.Errorf("nonce = %v", req.Nonce)
	}
	if req.ChainID == nil || *req.ChainID != 1 {
		t.Errorf("chainId = %v", req.ChainID)
	}
	if req.Type == nil || *req.Type != rpc.DynamicFeeTxType {
		t.Errorf("type = %v", req.Type)
	}
	if req.AccessList == nil || len(*req.AccessList) != 1 {
		t.Errorf("accessList = %v", req.AccessList)
	}

	legacy := signTx(t, testKey, gethtypes.HomesteadSigner{}, &gethtypes.LegacyTx{GasPrice: big.NewInt(3), Gas: 21000, To: &testTo})
	if req, err = CallRequestFromGethTransaction(legacy, testAddr); err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if req.ChainID != nil || req.AccessList != nil || req.GasPrice == nil {
		t.Errorf("legacy request = %+v", req)
	}
}
