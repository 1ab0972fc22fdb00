package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eth2030/rpcbridge/metrics"
	"github.com/eth2030/rpcbridge/rpc"
)

const (
	addrA = "0x00000000000000000000000000000000000000aa"
	hash1 = "0x0000000000000000000000000000000000000000000000000000000000000001"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func jsonValue(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", s, err)
	}
	return v
}

func TestConvertSingle(t *testing.T) {
	stdout, _, err := execute(t, `"0x10"`, "convert", "block-id", "--direction", "to-geth")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if stdout != "\"0x10\"\n" {
		t.Errorf("stdout = %q, want \"0x10\"", stdout)
	}
}

func TestConvertFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.json")
	input := `{"fromBlock":"0x64","toBlock":"latest","address":"` + addrA + `"}`
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := execute(t, "", "convert", "filter", path, "-d", "to-geth", "--pretty")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	want := `{"address":["` + addrA + `"],"fromBlock":"0x64","toBlock":"latest"}`
	if diff := cmp.Diff(jsonValue(t, want), jsonValue(t, stdout)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout, "\n  ") {
		t.Errorf("--pretty output not indented: %q", stdout)
	}
}

type batchResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code int           `json:"code"`
		Data *rpc.ErrorData `json:"data"`
	} `json:"error"`
}

func TestConvertBatch(t *testing.T) {
	input := `[
		{"address":["` + addrA + `"]},
		{"topics":[null,null,null,null,["` + hash1 + `"]]},
		{"blockHash":"` + hash1 + `","fromBlock":"0x1"},
		{"fromBlock":"safe"}
	]`
	before := metrics.DefaultRegistry.Counter("convert.filter.from-geth.failed.unsupported_variant").Value()

	stdout, stderr, err := execute(t, input, "convert", "filter", "-d", "from-geth", "--batch", "--workers", "2")
	if err == nil || !strings.Contains(err.Error(), "2 of 4 conversions failed") {
		t.Errorf("err = %v, want 2 of 4 failed", err)
	}

	var got []batchResponse
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if len(got) != 4 {
		t.Fatalf("responses = %d, want 4", len(got))
	}
	for i, r := range got {
		if r.ID != i {
			t.Errorf("response %d has id %d", i, r.ID)
		}
	}

	if got[0].Error != nil {
		t.Fatalf("response 0 failed: %+v", got[0].Error)
	}
	if diff := cmp.Diff(jsonValue(t, `{"address":"`+addrA+`"}`), jsonValue(t, string(got[0].Result))); diff != "" {
		t.Errorf("response 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(jsonValue(t, `{"fromBlock":"safe"}`), jsonValue(t, string(got[3].Result))); diff != "" {
		t.Errorf("response 3 mismatch (-want +got):\n%s", diff)
	}

	failures := []struct {
		index int
		data  rpc.ErrorData
	}{
		{1, rpc.ErrorData{Field: "topics", Reason: "unsupported_variant"}},
		{2, rpc.ErrorData{Field: "blockHash", Reason: "invalid_filter_range"}},
	}
	for _, f := range failures {
		e := got[f.index].Error
		if e == nil {
			t.Errorf("response %d succeeded, want error", f.index)
			continue
		}
		if e.Code != rpc.ErrCodeInvalidParams {
			t.Errorf("response %d code = %d, want %d", f.index, e.Code, rpc.ErrCodeInvalidParams)
		}
		if e.Data == nil || *e.Data != f.data {
			t.Errorf("response %d data = %+v, want %+v", f.index, e.Data, f.data)
		}
	}

	after := metrics.DefaultRegistry.Counter("convert.filter.from-geth.failed.unsupported_variant").Value()
	if after-before != 1 {
		t.Errorf("unsupported_variant failures recorded = %d, want 1", after-before)
	}
	if !strings.Contains(stderr, "batch converted") {
		t.Errorf("stderr missing batch summary: %q", stderr)
	}
	for _, want := range []string{`"index":1`, `"reason":"unsupported_variant"`, `"code":-32602`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %s: %q", want, stderr)
		}
	}
}

func TestConvertBatchOutboundCode(t *testing.T) {
	input := `[{"address":"` + addrA + `","topics":[],"data":"0x","blockHash":"` + hash1 + `"}]`
	stdout, _, err := execute(t, input, "convert", "log", "-d", "to-geth", "--batch")
	if err == nil {
		t.Fatal("partial linkage accepted")
	}
	var got []batchResponse
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output %q: %v", stdout, err)
	}
	if len(got) != 1 || got[0].Error == nil {
		t.Fatalf("responses = %+v, want one error", got)
	}
	if got[0].Error.Code != rpc.ErrCodeInternal {
		t.Errorf("code = %d, want %d", got[0].Error.Code, rpc.ErrCodeInternal)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"unknown entity", "{}", []string{"convert", "block"}, `unknown entity "block"`},
		{"bad direction", "{}", []string{"convert", "log", "-d", "sideways"}, "unknown direction"},
		{"batch not array", "{}", []string{"convert", "log", "--batch"}, "must be a JSON array"},
		{"zero workers", "[]", []string{"convert", "log", "--batch", "--workers", "0"}, "--workers"},
		{"conversion failure", `{"nonce":"0x1"}`, []string{"convert", "call"}, "convert nonce"},
		{"bad log level", "{}", []string{"convert", "log", "--log.level", "loud"}, "invalid configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.stdin, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
		})
	}
}

func TestConvertStats(t *testing.T) {
	_, stderr, err := execute(t, `"latest"`, "convert", "block-id", "--stats", "--log.format", "text")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	for _, want := range []string{metrics.ConversionsOK, "convert.block-id.to-geth.ok", metrics.ConversionLatency} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stats output missing %q:\n%s", want, stderr)
		}
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, version) || !strings.Contains(stdout, commit) {
		t.Errorf("stdout = %q, want version and commit", stdout)
	}
}

func TestRunExitCode(t *testing.T) {
	if code := run([]string{"fields", "bogus"}); code != 1 {
		t.Errorf("run(fields bogus) = %d, want 1", code)
	}
}
