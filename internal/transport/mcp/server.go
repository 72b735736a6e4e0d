package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

type ServerConfig struct {
	Transport string
	Address   string
	Version   string
}

type Server struct {
	mcpServer  *server.MCPServer
	sseServer  *server.SSEServer
	httpServer *http.Server
	dispatcher *rpc.Dispatcher
	config     ServerConfig
}

func NewServer(dispatcher *rpc.Dispatcher, config ServerConfig) *Server {
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	s := &Server{
		dispatcher: dispatcher,
		config:     config,
	}

	s.mcpServer = server.NewMCPServer(
		"whatsapp-mcp",
		config.Version,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithKeepAliveInterval(30*time.Second),
	)

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodSearchContacts,
			mcp.WithDescription("Search WhatsApp contacts by name or phone number. Matches ignore accents and case; close misspellings are accepted."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Name fragment or phone number to search for"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of contacts to return (default 25)"),
			),
			mcp.WithBoolean("include_groups",
				mcp.Description("Include group chats in the results (default false)"),
			),
		),
		s.handleSearchContacts,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodSmartSearchContacts,
			mcp.WithDescription("Search contacts with a similarity threshold. Word order is ignored, so 'Perez Juan' finds 'Juan Pérez'."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Name to search for"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of contacts to return (default 25)"),
			),
			mcp.WithBoolean("include_groups",
				mcp.Description("Include group chats in the results (default false)"),
			),
			mcp.WithNumber("threshold",
				mcp.Description("Minimum similarity between 0 and 1 (default 0.6)"),
			),
		),
		s.handleSmartSearchContacts,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodListMessages,
			mcp.WithDescription("List WhatsApp messages, newest first. At least one filter is required unless force_load is true."),
			mcp.WithString("after",
				mcp.Description("ISO-8601 date; only messages strictly after it"),
			),
			mcp.WithString("before",
				mcp.Description("ISO-8601 date; only messages strictly before it"),
			),
			mcp.WithString("sender_phone_number",
				mcp.Description("Exact sender to filter by"),
			),
			mcp.WithString("chat_jid",
				mcp.Description("JID of the chat to filter by"),
			),
			mcp.WithString("query",
				mcp.Description("Case-insensitive text to search for in message content"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Messages per page (default 20, never more than 50)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Zero-based page number"),
			),
			mcp.WithBoolean("include_context",
				mcp.Description("Include surrounding messages for the first 5 matches (default true)"),
			),
			mcp.WithNumber("context_before",
				mcp.Description("Messages to include before each match (default 1)"),
			),
			mcp.WithNumber("context_after",
				mcp.Description("Messages to include after each match (default 1)"),
			),
			mcp.WithNumber("max_results",
				mcp.Description("Upper bound on returned messages (default 100)"),
			),
			mcp.WithBoolean("force_load",
				mcp.Description("Allow listing without any filter"),
			),
		),
		s.handleListMessages,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodGetMessageContext,
			mcp.WithDescription("Get the messages around a specific message in its chat"),
			mcp.WithString("message_id",
				mcp.Required(),
				mcp.Description("ID of the message"),
			),
			mcp.WithNumber("before",
				mcp.Description("Messages to include before it (default 5)"),
			),
			mcp.WithNumber("after",
				mcp.Description("Messages to include after it (default 5)"),
			),
		),
		s.handleGetMessageContext,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodResolveRecipient,
			mcp.WithDescription("Resolve a name or number to a single WhatsApp JID. Returns the candidates when several contacts match."),
			mcp.WithString("recipient",
				mcp.Required(),
				mcp.Description("Contact name, phone number or JID"),
			),
		),
		s.handleResolveRecipient,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodSendMessage,
			mcp.WithDescription("Send a WhatsApp text message. Nothing is sent when the recipient matches more than one contact."),
			mcp.WithString("recipient",
				mcp.Required(),
				mcp.Description("Contact name, phone number, or JID (e.g., '123456789@s.whatsapp.net' or '123456789@g.us')"),
			),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
		),
		s.handleSendMessage,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodSendFile,
			mcp.WithDescription("Send an image, video, document or audio file over WhatsApp. Nothing is sent when the recipient matches more than one contact."),
			mcp.WithString("recipient",
				mcp.Required(),
				mcp.Description("Contact name, phone number, or JID"),
			),
			mcp.WithString("media_path",
				mcp.Required(),
				mcp.Description("Absolute path of the file to send"),
			),
		),
		s.handleSendFile,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodDownloadMedia,
			mcp.WithDescription("Download the media attached to a WhatsApp message and return the local file path"),
			mcp.WithString("message_id",
				mcp.Required(),
				mcp.Description("ID of the message containing the media"),
			),
			mcp.WithString("chat_jid",
				mcp.Required(),
				mcp.Description("JID of the chat containing the message"),
			),
		),
		s.handleDownloadMedia,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodListChats,
			mcp.WithDescription("List WhatsApp chats"),
			mcp.WithString("query",
				mcp.Description("Filter by chat name or JID"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of chats to return (default 20)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Zero-based page number"),
			),
			mcp.WithBoolean("include_last_message",
				mcp.Description("Include each chat's last message (default true)"),
			),
			mcp.WithString("sort_by",
				mcp.Description("'last_active' (default) or 'name'"),
			),
		),
		s.handleListChats,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodGetChat,
			mcp.WithDescription("Get one WhatsApp chat by JID"),
			mcp.WithString("chat_jid",
				mcp.Required(),
				mcp.Description("JID of the chat"),
			),
			mcp.WithBoolean("include_last_message",
				mcp.Description("Include the last message (default true)"),
			),
		),
		s.handleGetChat,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodGetDirectChatByContact,
			mcp.WithDescription("Find the direct chat with a phone number"),
			mcp.WithString("sender_phone_number",
				mcp.Required(),
				mcp.Description("Phone number to look up"),
			),
		),
		s.handleGetDirectChatByContact,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodGetContactChats,
			mcp.WithDescription("List the chats a contact takes part in"),
			mcp.WithString("jid",
				mcp.Required(),
				mcp.Description("JID of the contact"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of chats to return (default 20)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Zero-based page number"),
			),
		),
		s.handleGetContactChats,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(rpc.MethodGetLastInteraction,
			mcp.WithDescription("Get the most recent message with a contact"),
			mcp.WithString("jid",
				mcp.Required(),
				mcp.Description("JID of the contact"),
			),
		),
		s.handleGetLastInteraction,
	)
}

// Start serves until the transport ends. stdio blocks on stdin; sse listens
// on the configured address.
func (s *Server) Start() error {
	log := logger.Module("mcp")

	switch s.config.Transport {
	case TransportStdio, "":
		log.Info().Msg("serving MCP over stdio")
		return server.ServeStdio(s.mcpServer)
	case TransportSSE:
	default:
		return fmt.Errorf("unknown MCP transport %q", s.config.Transport)
	}

	mux := http.NewServeMux()

	mux.Handle("/sse", s.sseServer.SSEHandler())
	mux.Handle("/message", s.sseServer.MessageHandler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: mux,
	}

	log.Info().Str("address", s.config.Address).Msg("serving MCP over SSE")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
