package rpc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eth2030/rpcbridge/core/types"
)

var matcherOpts = cmp.AllowUnexported(ValueOrArray[types.Address]{}, ValueOrArray[*types.Hash]{})

func hashRef(s string) *types.Hash {
	h := types.HexToHash(s)
	return &h
}

func TestValueOrArrayJSON(t *testing.T) {
	a := types.HexToAddress("0xaa")

	var single ValueOrArray[types.Address]
	if err := json.Unmarshal([]byte(`"`+a.Hex()+`"`), &single); err != nil {
		t.Fatalf("Unmarshal scalar: %v", err)
	}
	if v, ok := single.Value(); !ok || v != a || single.IsSet() {
		t.Errorf("scalar decoded as %+v", single)
	}

	var one ValueOrArray[types.Address]
	if err := json.Unmarshal([]byte(`["`+a.Hex()+`"]`), &one); err != nil {
		t.Fatalf("Unmarshal array: %v", err)
	}
	if !one.IsSet() || len(one.Values()) != 1 {
		t.Errorf("one-element array decoded as %+v", one)
	}
	if _, ok := one.Value(); ok {
		t.Error("Value() on a set reported a single value")
	}

	out, _ := json.Marshal(Single(a))
	if string(out) != `"`+a.Hex()+`"` {
		t.Errorf("Marshal(Single) = %s", out)
	}
	out, _ = json.Marshal(Set[types.Address]())
	if string(out) != `[]` {
		t.Errorf("Marshal(empty Set) = %s, want []", out)
	}
}

func TestFilterJSON(t *testing.T) {
	from := Number(100)
	want := &Filter{
		Block:   Range(&from, nil),
		Address: Single(types.HexToAddress("0xaa")),
		Topics:  [types.MaxTopicsPerLog]*Topic{nil, Set(hashRef("0x1"), nil)},
	}
	in := `{"fromBlock":"0x64","address":"` + types.HexToAddress("0xaa").Hex() +
		`","topics":[null,["` + types.HexToHash("0x1").Hex() + `",null],null]}`

	var got Filter
	if err := json.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, &got, matcherOpts); diff != "" {
		t.Errorf("Unmarshal mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatal(err)
	}
	var topics []json.RawMessage
	if err := json.Unmarshal(fields["topics"], &topics); err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 {
		t.Errorf("marshalled %d topic positions, want trailing wildcard dropped: %s", len(topics), out)
	}
}

func TestFilterJSONErrors(t *testing.T) {
	h := types.HexToHash("0x1").Hex()
	tests := []struct {
		in    string
		field string
		rng   bool
	}{
		{`{"blockHash":"` + h + `","fromBlock":"0x1"}`, "blockHash", true},
		{`{"topics":[null,null,null,null,null]}`, "topics", false},
		{`{"fromBlock":"0xzz"}`, "fromBlock", true},
		{`{"fromBlock":"0x1","toBlock":"head"}`, "toBlock", true},
	}
	for _, tt := range tests {
		var f Filter
		err := json.Unmarshal([]byte(tt.in), &f)
		var fe *FilterError
		if !errors.As(err, &fe) {
			t.Errorf("Unmarshal(%s) err = %v, want *FilterError", tt.in, err)
			continue
		}
		if fe.Field != tt.field || fe.Range != tt.rng {
			t.Errorf("Unmarshal(%s) = {%s %v}, want {%s %v}", tt.in, fe.Field, fe.Range, tt.field, tt.rng)
		}
	}

	var f Filter
	if err := json.Unmarshal([]byte(`{"fromBlock":null,"toBlock":"latest"}`), &f); err != nil {
		t.Fatalf("Unmarshal with null bound: %v", err)
	}
	if f.Block.FromBlock != nil || f.Block.ToBlock == nil || f.Block.ToBlock.Tag != TagLatest {
		t.Errorf("bounds = %v %v, want open to latest", f.Block.FromBlock, f.Block.ToBlock)
	}
}

func TestFilterMatchesLog(t *testing.T) {
	addr := types.HexToAddress("0xaa")
	log := &Log{Address: addr, Topics: []types.Hash{types.HexToHash("0x1"), types.HexToHash("0x2")}}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"address", Filter{Address: Single(addr)}, true},
		{"other address", Filter{Address: Single(types.HexToAddress("0xbb"))}, false},
		{"empty address set", Filter{Address: Set[types.Address]()}, true},
		{"second topic", Filter{Topics: [4]*Topic{nil, Single(hashRef("0x2"))}}, true},
		{"topic set", Filter{Topics: [4]*Topic{Set(hashRef("0x9"), hashRef("0x1"))}}, true},
		{"wrong topic", Filter{Topics: [4]*Topic{Single(hashRef("0x2"))}}, false},
		{"nil in set", Filter{Topics: [4]*Topic{Set(hashRef("0x9"), nil)}}, true},
		{"past last topic", Filter{Topics: [4]*Topic{nil, nil, Single(hashRef("0x3"))}}, false},
	}
	for _, tt := range tests {
		if got := tt.filter.MatchesLog(log); got != tt.want {
			t.Errorf("%s: MatchesLog = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilterMatchesBlock(t *testing.T) {
	blockHash := types.HexToHash("0xb1")
	mined := &Log{BlockHash: &blockHash, BlockNumber: types.NewU256(100)}
	pending := &Log{}
	n := func(v uint64) *BlockNumberOrTag { b := Number(v); return &b }
	latest := Tagged(TagLatest)

	tests := []struct {
		name    string
		block   FilterBlockOption
		mined   bool
		pending bool
	}{
		{"open", Range(nil, nil), true, true},
		{"inside", Range(n(100), n(100)), true, false},
		{"before", Range(n(101), nil), false, false},
		{"after", Range(nil, n(99)), false, false},
		{"tags are open", Range(&latest, &latest), true, true},
		{"hash", AtBlockHash(blockHash), true, false},
		{"other hash", AtBlockHash(types.HexToHash("0xb2")), false, false},
	}
	for _, tt := range tests {
		f := Filter{Block: tt.block}
		if got := f.MatchesBlock(mined); got != tt.mined {
			t.Errorf("%s: MatchesBlock(mined) = %v, want %v", tt.name, got, tt.mined)
		}
		if got := f.MatchesBlock(pending); got != tt.pending {
			t.Errorf("%s: MatchesBlock(pending) = %v, want %v", tt.name, got, tt.pending)
		}
	}
}

func TestFilterMatchesBloom(t *testing.T) {
	addr := types.HexToAddress("0xaa")
	l := &Log{Address: addr, Topics: []types.Hash{types.HexToHash("0x1")}}
	bloom := (&Receipt{Logs: []*Log{l}}).DeriveBloom()

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"address", Filter{Address: Single(addr)}, true},
		{"address set", Filter{Address: Set(types.HexToAddress("0xbb"), addr)}, true},
		{"topic", Filter{Topics: [4]*Topic{Single(hashRef("0x1"))}}, true},
		{"nil in set", Filter{Topics: [4]*Topic{Set(hashRef("0x7"), nil)}}, true},
	}
	for _, tt := range tests {
		if got := tt.filter.MatchesBloom(bloom); got != tt.want {
			t.Errorf("%s: MatchesBloom = %v, want %v", tt.name, got, tt.want)
		}
	}
	if (&Filter{Address: Single(addr)}).MatchesBloom(types.Bloom{}) {
		t.Error("empty bloom matched an address filter")
	}
}

func TestReceiptDeriveBloom(t *testing.T) {
	l := &Log{Address: types.HexToAddress("0xaa"), Topics: []types.Hash{types.HexToHash("0x1")}}
	r := &Receipt{Logs: []*Log{l}}
	if !types.BloomContains(r.DeriveBloom(), l.Address.Bytes()) {
		t.Error("derived bloom does not hold the log's address")
	}

	r.Logs = append(r.Logs, nil)
	if got := r.DeriveBloom(); got != types.LogBloom(l.Consensus()) {
		t.Error("nil log changed the derived bloom")
	}
}
