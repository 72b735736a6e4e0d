// Package rpc defines the transport-neutral request/response envelope and
// routes named operations to the services.
package rpc

import (
	"encoding/json"
	"errors"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
)

// Request is one named operation call. Params is a JSON object.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Error is the structured failure carried by a Response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Response carries either Result or Error. Warnings annotate degraded
// results, such as a store that could not be read.
type Response struct {
	ID       string   `json:"id"`
	Result   any      `json:"result,omitempty"`
	Error    *Error   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r Response) OK() bool {
	return r.Error == nil
}

// NewError classifies err with domain.ErrorCode.
func NewError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: domain.ErrorCode(err), Message: err.Error()}
}
