package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

var errQuit = errors.New("quit")

// CommandHandler maps slash commands onto dispatcher calls.
type CommandHandler struct {
	dispatcher *rpc.Dispatcher
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(dispatcher *rpc.Dispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command string (e.g., `/send "Juan Pérez" hola`).
// Double quotes group words into one argument.
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts, err := splitArgs(input)
	if err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(parts[0], "/")
	return &Command{Name: name, Args: parts[1:]}, nil
}

func splitArgs(input string) ([]string, error) {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				parts = append(parts, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return parts, nil
}

// Execute runs cmd. Usage mistakes are returned as errors; operation
// failures come back inside the response.
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (*rpc.Response, error) {
	method, params, err := h.toCall(cmd)
	if err != nil {
		return nil, err
	}
	req, err := newRequest(method, params)
	if err != nil {
		return nil, err
	}
	resp := h.dispatcher.Dispatch(ctx, req)
	return &resp, nil
}

func (h *CommandHandler) toCall(cmd *Command) (string, map[string]any, error) {
	args := cmd.Args
	switch cmd.Name {
	case "search", "contacts":
		if len(args) == 0 {
			return "", nil, usage("/search <name or number>")
		}
		return rpc.MethodSearchContacts, map[string]any{"query": strings.Join(args, " ")}, nil

	case "smart":
		if len(args) == 0 {
			return "", nil, usage("/smart <name>")
		}
		return rpc.MethodSmartSearchContacts, map[string]any{"query": strings.Join(args, " ")}, nil

	case "messages", "msg":
		if len(args) == 0 {
			return "", nil, usage("/messages <chat_jid> [limit]")
		}
		params := map[string]any{"chat_jid": args[0]}
		if err := optionalInt(params, "limit", args, 1); err != nil {
			return "", nil, err
		}
		return rpc.MethodListMessages, params, nil

	case "grep":
		if len(args) == 0 {
			return "", nil, usage("/grep <text>")
		}
		return rpc.MethodListMessages, map[string]any{"query": strings.Join(args, " ")}, nil

	case "context":
		if len(args) == 0 {
			return "", nil, usage("/context <message_id> [before] [after]")
		}
		params := map[string]any{"message_id": args[0]}
		if err := optionalInt(params, "before", args, 1); err != nil {
			return "", nil, err
		}
		if err := optionalInt(params, "after", args, 2); err != nil {
			return "", nil, err
		}
		return rpc.MethodGetMessageContext, params, nil

	case "resolve":
		if len(args) == 0 {
			return "", nil, usage("/resolve <recipient>")
		}
		return rpc.MethodResolveRecipient, map[string]any{"recipient": strings.Join(args, " ")}, nil

	case "send":
		if len(args) < 2 {
			return "", nil, usage(`/send <recipient> <text>  (quote names with spaces: /send "Juan Pérez" hola)`)
		}
		return rpc.MethodSendMessage, map[string]any{"recipient": args[0], "message": strings.Join(args[1:], " ")}, nil

	case "sendfile":
		if len(args) != 2 {
			return "", nil, usage(`/sendfile <recipient> <path>  (quote names or paths with spaces)`)
		}
		return rpc.MethodSendFile, map[string]any{"recipient": args[0], "media_path": args[1]}, nil

	case "download":
		if len(args) != 2 {
			return "", nil, usage("/download <message_id> <chat_jid>")
		}
		return rpc.MethodDownloadMedia, map[string]any{"message_id": args[0], "chat_jid": args[1]}, nil

	case "chats", "ls":
		params := map[string]any{}
		if err := optionalInt(params, "limit", args, 0); err != nil {
			return "", nil, err
		}
		return rpc.MethodListChats, params, nil

	case "chat":
		if len(args) == 0 {
			return "", nil, usage("/chat <jid>")
		}
		return rpc.MethodGetChat, map[string]any{"chat_jid": args[0]}, nil

	case "direct":
		if len(args) == 0 {
			return "", nil, usage("/direct <phone>")
		}
		return rpc.MethodGetDirectChatByContact, map[string]any{"sender_phone_number": strings.Join(args, "")}, nil

	case "contact-chats":
		if len(args) == 0 {
			return "", nil, usage("/contact-chats <jid>")
		}
		return rpc.MethodGetContactChats, map[string]any{"jid": args[0]}, nil

	case "last":
		if len(args) == 0 {
			return "", nil, usage("/last <jid>")
		}
		return rpc.MethodGetLastInteraction, map[string]any{"jid": args[0]}, nil

	case "quit", "exit", "q":
		return "", nil, errQuit

	default:
		return "", nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func newRequest(method string, params map[string]any) (rpc.Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return rpc.Request{}, err
	}
	return rpc.Request{Method: method, Params: raw}, nil
}

func optionalInt(params map[string]any, key string, args []string, i int) error {
	if len(args) <= i {
		return nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, args[i])
	}
	params[key] = n
	return nil
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

const helpText = `Available commands:

Contacts:
  /search, /contacts <query>        Search contacts by name or number
  /smart <query>                    Similarity search, word order ignored
  /resolve <recipient>              Resolve a name or number to one JID

Messages:
  /messages, /msg <jid> [limit]     List messages in a chat
  /grep <text>                      Search message content
  /context <id> [before] [after]    Show the messages around one message
  /send <recipient> <text>          Send a text message
  /sendfile <recipient> <path>      Send an image, video, document or audio file
  /download <id> <chat_jid>         Download a message's media
  /last <jid>                       Last message with a contact

Chats:
  /chats, /ls [limit]               List chats
  /chat <jid>                       Show one chat
  /direct <phone>                   Find the direct chat with a number
  /contact-chats <jid>              Chats a contact takes part in

Other:
  /help, /h                         Show this help
  /quit, /exit, /q                  Exit the CLI`
