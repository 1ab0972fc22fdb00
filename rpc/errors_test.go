package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/eth2030/rpcbridge/log"
)

type fieldFailure struct{ field, reason string }

func (f fieldFailure) Error() string     { return "convert " + f.field }
func (f fieldFailure) FieldPath() string { return f.field }
func (f fieldFailure) Reason() string    { return f.reason }

func TestConversionErrorResponse(t *testing.T) {
	id := json.RawMessage(`7`)
	err := fmt.Errorf("batch item: %w", fieldFailure{"topics", "unsupported_variant"})

	resp := ConversionErrorResponse(id, err, true)
	if resp.Error.Code != ErrCodeInvalidParams {
		t.Errorf("inbound code = %d, want %d", resp.Error.Code, ErrCodeInvalidParams)
	}
	data, ok := resp.Error.Data.(ErrorData)
	if !ok || data != (ErrorData{Field: "topics", Reason: "unsupported_variant"}) {
		t.Errorf("data = %+v", resp.Error.Data)
	}
	if string(resp.ID) != "7" || resp.JSONRPC != "2.0" {
		t.Errorf("envelope = %+v", resp)
	}

	plain := ConversionErrorResponse(id, errors.New("boom"), false)
	if plain.Error.Code != ErrCodeInternal {
		t.Errorf("outbound code = %d, want %d", plain.Error.Code, ErrCodeInternal)
	}
	if plain.Error.Data != nil {
		t.Errorf("data = %+v, want none for an error without a field", plain.Error.Data)
	}
}

func TestConversionErrorResponseDoesNotLog(t *testing.T) {
	orig := log.Default()
	defer log.SetDefault(orig)
	var buf bytes.Buffer
	log.SetDefault(log.NewWithFormat(&buf, slog.LevelDebug, log.FormatJSON))

	ConversionErrorResponse(json.RawMessage(`1`), fieldFailure{"gas", "overflow"}, false)
	if buf.Len() != 0 {
		t.Errorf("default logger written: %s", buf.String())
	}
}

func TestSuccessResponse(t *testing.T) {
	out, err := json.Marshal(SuccessResponse(json.RawMessage(`1`), "0x1"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"jsonrpc":"2.0","result":"0x1","id":1}` {
		t.Errorf("Marshal = %s", out)
	}
}
