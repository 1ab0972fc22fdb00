package types

import "testing"

func TestLogsBloom(t *testing.T) {
	logs := []*Log{
		{Address: HexToAddress("0x00000000000000000000000000000000000000aa"), Topics: []Hash{HexToHash("0x01")}},
		{Address: HexToAddress("0x00000000000000000000000000000000000000bb")},
	}
	bloom := LogsBloom(logs)
	for _, l := range logs {
		if !BloomContains(bloom, l.Address.Bytes()) {
			t.Errorf("bloom does not hold address %s", l.Address)
		}
	}
	if !BloomContains(bloom, logs[0].Topics[0].Bytes()) {
		t.Error("bloom does not hold the topic")
	}
	absent := HexToAddress("0x00000000000000000000000000000000000000cc")
	if BloomContains(LogBloom(logs[1]), absent.Bytes()) {
		t.Error("single-log bloom holds an unrelated address")
	}
	if LogsBloom(nil) != (Bloom{}) {
		t.Error("bloom of no logs is not empty")
	}
}

func TestBloomBitCount(t *testing.T) {
	var bloom Bloom
	BloomAdd(&bloom, []byte("rpcbridge"))
	bits := 0
	for _, b := range bloom {
		for ; b != 0; b &= b - 1 {
			bits++
		}
	}
	if bits < 1 || bits > 3 {
		t.Errorf("BloomAdd set %d bits, want 1 to 3", bits)
	}
	if !BloomContains(bloom, []byte("rpcbridge")) {
		t.Error("BloomContains = false after BloomAdd")
	}
}
