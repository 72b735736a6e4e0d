package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 4 << 20

// HeadlessCLI reads one JSON request per line and writes one JSON response
// per line.
type HeadlessCLI struct {
	dispatcher *rpc.Dispatcher
	scanner    *bufio.Scanner
	writer     io.Writer
	mu         sync.Mutex
}

// NewHeadlessCLI creates a new headless CLI
func NewHeadlessCLI(dispatcher *rpc.Dispatcher, in io.Reader, out io.Writer) *HeadlessCLI {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &HeadlessCLI{
		dispatcher: dispatcher,
		scanner:    scanner,
		writer:     out,
	}
}

// Run processes requests until EOF, a quit request or ctx is done.
func (cli *HeadlessCLI) Run(ctx context.Context) error {
	cli.sendResponse(rpc.Response{
		Result: Ready{Status: "ready", Mode: ModeHeadless, Methods: cli.dispatcher.Methods()},
	})

	for cli.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(cli.scanner.Text())
		if line == "" {
			continue
		}
		if quit := cli.processRequest(ctx, line); quit {
			return nil
		}
	}
	if err := cli.scanner.Err(); err != nil {
		return fmt.Errorf("read error: %w", err)
	}
	return nil
}

func (cli *HeadlessCLI) processRequest(ctx context.Context, line string) bool {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		cli.sendError("", fmt.Sprintf("invalid JSON: %v", err))
		return false
	}

	call := req.rpc()
	switch call.Method {
	case "":
		cli.sendError(req.ID, "missing method field")
		return false
	case "quit", "exit":
		cli.sendResponse(rpc.Response{
			ID:     req.ID,
			Result: map[string]string{"message": "goodbye"},
		})
		return true
	}

	cli.sendResponse(cli.dispatcher.Dispatch(ctx, call))
	return false
}

func (cli *HeadlessCLI) sendResponse(resp rpc.Response) {
	cli.mu.Lock()
	defer cli.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(rpc.Response{
			ID:    resp.ID,
			Error: &rpc.Error{Code: domain.CodeInternal, Message: fmt.Sprintf("failed to encode response: %v", err)},
		})
	}
	fmt.Fprintln(cli.writer, string(data))
}

func (cli *HeadlessCLI) sendError(id, message string) {
	cli.sendResponse(rpc.Response{
		ID:    id,
		Error: &rpc.Error{Code: domain.CodeInvalidInput, Message: message},
	})
}
