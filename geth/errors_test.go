package geth

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/eth2030/rpcbridge/rpc"
)

func TestFieldErrPaths(t *testing.T) {
	inner := &ConversionError{Field: "topics", Err: ErrUnsupportedVariant}
	err := fieldErr("logs", fieldErr(indexField("", 2), inner))
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConversionError", err)
	}
	if ce.Field != "logs[2].topics" {
		t.Errorf("field = %q, want logs[2].topics", ce.Field)
	}
	if !errors.Is(err, ErrUnsupportedVariant) {
		t.Error("wrapped kind lost")
	}
	if fieldErr("x", nil) != nil {
		t.Error("fieldErr(nil) should be nil")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: x", ErrOverflow), "overflow"},
		{&ConversionError{Field: "root", Err: ErrInvalidLength}, "invalid_length"},
		{ErrAmbiguousReceiptState, "ambiguous_receipt_state"},
		{ErrInvalidFilterRange, "invalid_filter_range"},
		{ErrMissingField, "missing_field"},
		{ErrUnimplemented, "unimplemented"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestConversionErrorResponse(t *testing.T) {
	_, err := ToGethReceipt(&rpc.Receipt{})
	id := json.RawMessage(`1`)

	resp := rpc.ConversionErrorResponse(id, err, true)
	if resp.Error == nil || resp.Error.Code != rpc.ErrCodeInvalidParams {
		t.Fatalf("inbound error = %+v, want code %d", resp.Error, rpc.ErrCodeInvalidParams)
	}
	data, ok := resp.Error.Data.(rpc.ErrorData)
	if !ok {
		t.Fatalf("data = %T, want rpc.ErrorData", resp.Error.Data)
	}
	if data.Field != "transactionHash" || data.Reason != "missing_field" {
		t.Errorf("data = %+v", data)
	}

	resp = rpc.ConversionErrorResponse(id, err, false)
	if resp.Error.Code != rpc.ErrCodeInternal {
		t.Errorf("outbound code = %d, want %d", resp.Error.Code, rpc.ErrCodeInternal)
	}
}
