package cli

import (
	"encoding/json"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

// Mode represents the CLI operation mode
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeHeadless    Mode = "headless"
)

// Request is one JSON line in headless mode. Command is accepted as an
// alias of Method.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Command string          `json:"command,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r Request) rpc() rpc.Request {
	method := r.Method
	if method == "" {
		method = r.Command
	}
	return rpc.Request{ID: r.ID, Method: method, Params: r.Params}
}

// Ready is the first line written in headless mode.
type Ready struct {
	Status  string   `json:"status"`
	Mode    Mode     `json:"mode"`
	Methods []string `json:"methods"`
}
