package rpc

import (
	"encoding/json"
	"errors"
)

// FieldError is implemented by conversion failures that can name the field
// that failed and the kind of failure.
type FieldError interface {
	error
	FieldPath() string
	Reason() string
}

// ErrorData is the structured data attached to a conversion error response.
type ErrorData struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// SuccessResponse wraps a result in a JSON-RPC 2.0 response.
func SuccessResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
}

// ErrorResponse builds a JSON-RPC 2.0 error response.
func ErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	}
}

// ConversionErrorResponse turns a failed conversion into a client-facing
// error. Failures converting a request (inbound) are the caller's fault and
// use the invalid-params code; failures converting a result use the
// internal-error code. Logging the failure is left to the caller.
func ConversionErrorResponse(id json.RawMessage, err error, inbound bool) *Response {
	code := ErrCodeInternal
	if inbound {
		code = ErrCodeInvalidParams
	}
	resp := ErrorResponse(id, code, err.Error())

	var fe FieldError
	if errors.As(err, &fe) {
		resp.Error.Data = ErrorData{Field: fe.FieldPath(), Reason: fe.Reason()}
	}
	return resp
}
