package geth

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"

	"github.com/eth2030/rpcbridge/core/types"
	"github.com/eth2030/rpcbridge/rpc"
)

// ToGethProof converts an eth_getProof result. Proof nodes become hex
// strings and storage keys become their 32-byte hex form.
func ToGethProof(p *rpc.AccountProof) (*gethclient.AccountResult, error) {
	if p == nil {
		return nil, nil
	}
	if p.Balance == nil {
		return nil, missing("balance")
	}
	out := &gethclient.AccountResult{
		Address:      ToGethAddress(p.Address),
		AccountProof: encodeProof(p.AccountProof),
		Balance:      U256ToBig(p.Balance),
		CodeHash:     ToGethHash(p.CodeHash),
		Nonce:        uint64(p.Nonce),
		StorageHash:  ToGethHash(p.StorageHash),
		StorageProof: make([]gethclient.StorageResult, len(p.StorageProof)),
	}
	for i, sp := range p.StorageProof {
		if sp.Value == nil {
			return nil, missing(indexField("storageProof", i) + ".value")
		}
		out.StorageProof[i] = gethclient.StorageResult{
			Key:   sp.Key.Hex(),
			Value: U256ToBig(sp.Value),
			Proof: encodeProof(sp.Proof),
		}
	}
	return out, nil
}

// FromGethProof converts a go-ethereum eth_getProof result. Storage keys
// shorter than 32 bytes are left-padded; longer keys fail.
func FromGethProof(r *gethclient.AccountResult) (*rpc.AccountProof, error) {
	if r == nil {
		return nil, nil
	}
	if r.Balance == nil {
		return nil, missing("balance")
	}
	balance, err := BigToU256(r.Balance)
	if err != nil {
		return nil, fieldErr("balance", err)
	}
	accountProof, err := decodeProof(r.AccountProof)
	if err != nil {
		return nil, fieldErr("accountProof", err)
	}
	out := &rpc.AccountProof{
		Address:      FromGethAddress(r.Address),
		AccountProof: accountProof,
		Balance:      balance,
		CodeHash:     FromGethHash(r.CodeHash),
		Nonce:        types.U64(r.Nonce),
		StorageHash:  FromGethHash(r.StorageHash),
		StorageProof: make([]rpc.StorageProof, len(r.StorageProof)),
	}
	for i, sr := range r.StorageProof {
		field := indexField("storageProof", i)
		key, err := storageKey(sr.Key)
		if err != nil {
			return nil, fieldErr(field+".key", err)
		}
		if sr.Value == nil {
			return nil, missing(field + ".value")
		}
		value, err := BigToU256(sr.Value)
		if err != nil {
			return nil, fieldErr(field+".value", err)
		}
		proof, err := decodeProof(sr.Proof)
		if err != nil {
			return nil, fieldErr(field+".proof", err)
		}
		out.StorageProof[i] = rpc.StorageProof{Key: key, Value: value, Proof: proof}
	}
	return out, nil
}

// storageKey parses a hex storage slot. Odd-length keys such as "0x1" are
// accepted as nodes echo whatever the client asked for.
func storageKey(s string) (types.Hash, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s)%2 == 1 {
			s = "0x0" + s[2:]
		}
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: storage key %q: %v", ErrUnsupportedVariant, s, err)
	}
	if len(b) > types.HashLength {
		return types.Hash{}, fmt.Errorf("%w: storage key has %d bytes, at most %d allowed", ErrInvalidLength, len(b), types.HashLength)
	}
	return types.BytesToHash(b), nil
}

func encodeProof(nodes []types.Bytes) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = hexutil.Encode(n)
	}
	return out
}

func decodeProof(nodes []string) ([]types.Bytes, error) {
	out := make([]types.Bytes, len(nodes))
	for i, n := range nodes {
		b, err := hexutil.Decode(n)
		if err != nil {
			return nil, &ConversionError{Field: indexField("", i), Err: fmt.Errorf("%w: proof node: %v", ErrUnsupportedVariant, err)}
		}
		out[i] = b
	}
	return out, nil
}
