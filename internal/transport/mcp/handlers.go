package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/render"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

// call forwards the tool arguments to the dispatcher and renders the
// response. Degraded results keep their text and gain warning lines.
func (s *Server) call(ctx context.Context, method string, request mcp.CallToolRequest, format func(any) string) (*mcp.CallToolResult, error) {
	params, err := json.Marshal(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	resp := s.dispatcher.Dispatch(ctx, rpc.Request{Method: method, Params: params})
	if resp.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", resp.Error.Message, resp.Error.Code)), nil
	}

	var result strings.Builder
	result.WriteString(format(resp.Result))
	for _, w := range resp.Warnings {
		result.WriteString(fmt.Sprintf("\nWarning: %s", w))
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleSearchContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("query", "") == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	return s.call(ctx, rpc.MethodSearchContacts, request, render.Result)
}

func (s *Server) handleSmartSearchContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("query", "") == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	threshold := request.GetFloat("threshold", 0.6)
	if threshold < 0 || threshold > 1 {
		return mcp.NewToolResultError("threshold must be between 0 and 1"), nil
	}
	return s.call(ctx, rpc.MethodSmartSearchContacts, request, render.Result)
}

func (s *Server) handleListMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call(ctx, rpc.MethodListMessages, request, render.Result)
}

func (s *Server) handleGetMessageContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("message_id", "") == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}
	return s.call(ctx, rpc.MethodGetMessageContext, request, render.Result)
}

func (s *Server) handleResolveRecipient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("recipient", "") == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	return s.call(ctx, rpc.MethodResolveRecipient, request, render.Result)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("recipient", "") == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	if request.GetString("message", "") == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	return s.call(ctx, rpc.MethodSendMessage, request, render.Result)
}

func (s *Server) handleSendFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("recipient", "") == "" {
		return mcp.NewToolResultError("recipient is required"), nil
	}
	if request.GetString("media_path", "") == "" {
		return mcp.NewToolResultError("media_path is required"), nil
	}
	return s.call(ctx, rpc.MethodSendFile, request, render.Result)
}

func (s *Server) handleDownloadMedia(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("message_id", "") == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}
	if request.GetString("chat_jid", "") == "" {
		return mcp.NewToolResultError("chat_jid is required"), nil
	}
	return s.call(ctx, rpc.MethodDownloadMedia, request, render.Result)
}

func (s *Server) handleListChats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call(ctx, rpc.MethodListChats, request, render.Result)
}

func (s *Server) handleGetChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("chat_jid", "") == "" {
		return mcp.NewToolResultError("chat_jid is required"), nil
	}
	return s.call(ctx, rpc.MethodGetChat, request, render.Result)
}

func (s *Server) handleGetDirectChatByContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("sender_phone_number", "") == "" {
		return mcp.NewToolResultError("sender_phone_number is required"), nil
	}
	return s.call(ctx, rpc.MethodGetDirectChatByContact, request, render.Result)
}

func (s *Server) handleGetContactChats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("jid", "") == "" {
		return mcp.NewToolResultError("jid is required"), nil
	}
	return s.call(ctx, rpc.MethodGetContactChats, request, render.Result)
}

func (s *Server) handleGetLastInteraction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetString("jid", "") == "" {
		return mcp.NewToolResultError("jid is required"), nil
	}
	return s.call(ctx, rpc.MethodGetLastInteraction, request, render.Result)
}
