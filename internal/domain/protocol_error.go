package domain

import (
	"encoding/json"
	"errors"
)

// JSON-RPC 2.0 error codes used on the MCP wire.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// ProtocolError captures JSON-RPC error details for propagation.
type ProtocolError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ProtocolErrorFrom maps a dispatch failure onto a JSON-RPC error.
// Unknown tools keep the fixed "Tool not found" message callers match on.
func ProtocolErrorFrom(err error) *ProtocolError {
	if err == nil {
		return nil
	}
	code, _ := CodeFrom(err)
	switch code {
	case CodeInvalidArgument:
		return &ProtocolError{Code: ErrCodeInvalidParams, Message: messageOf(err)}
	default:
		return &ProtocolError{Code: ErrCodeInternal, Message: messageOf(err)}
	}
}

func messageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}
