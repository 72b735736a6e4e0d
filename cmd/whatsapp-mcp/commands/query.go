package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

var (
	contactLimit     int
	contactGroups    bool
	contactSmart     bool
	contactThreshold float64

	msgChat    string
	msgSender  string
	msgQuery   string
	msgAfter   string
	msgBefore  string
	msgLimit   int
	msgPage    int
	msgContext bool
	msgForce   bool

	ctxBefore int
	ctxAfter  int

	chatQuery string
	chatLimit int
	chatPage  int
	chatSort  string
)

var contactsCmd = &cobra.Command{
	Use:   "contacts <query>",
	Short: "Search contacts by name or phone number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{
			"query":          strings.Join(args, " "),
			"limit":          contactLimit,
			"include_groups": contactGroups,
		}
		method := rpc.MethodSearchContacts
		if contactSmart {
			method = rpc.MethodSmartSearchContacts
			if cmd.Flags().Changed("threshold") {
				params["threshold"] = contactThreshold
			}
		}
		return invoke(cmd.Context(), method, params)
	},
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List messages, newest first",
	Long: `List messages matching the filters, newest first. At least one filter is
required unless --force is given. Dates are ISO-8601.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{
			"include_context": msgContext,
			"force_load":      msgForce,
			"page":            msgPage,
		}
		setIf(params, "chat_jid", msgChat)
		setIf(params, "sender", msgSender)
		setIf(params, "query", msgQuery)
		setIf(params, "after", msgAfter)
		setIf(params, "before", msgBefore)
		if msgLimit > 0 {
			params["limit"] = msgLimit
		}
		return invoke(cmd.Context(), rpc.MethodListMessages, params)
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <message_id>",
	Short: "Show the messages around one message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodGetMessageContext, map[string]any{
			"message_id": args[0],
			"before":     ctxBefore,
			"after":      ctxAfter,
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <recipient>",
	Short: "Resolve a name, number or JID to one recipient",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodResolveRecipient, map[string]any{
			"recipient": strings.Join(args, " "),
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <recipient> <message>",
	Short: "Send a text message through the bridge",
	Long: `Send a text message. The recipient may be a name, a phone number or a JID.
Nothing is sent when the name matches more than one contact.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodSendMessage, map[string]any{
			"recipient": args[0],
			"message":   strings.Join(args[1:], " "),
		})
	},
}

var sendFileCmd = &cobra.Command{
	Use:   "send-file <recipient> <path>",
	Short: "Send a media file through the bridge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodSendFile, map[string]any{
			"recipient":  args[0],
			"media_path": args[1],
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <message_id> <chat_jid>",
	Short: "Download the media attached to a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodDownloadMedia, map[string]any{
			"message_id": args[0],
			"chat_jid":   args[1],
		})
	},
}

var chatsCmd = &cobra.Command{
	Use:   "chats [jid]",
	Short: "List chats, or show one chat",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return invoke(cmd.Context(), rpc.MethodGetChat, map[string]any{"chat_jid": args[0]})
		}
		params := map[string]any{"page": chatPage}
		setIf(params, "query", chatQuery)
		setIf(params, "sort_by", chatSort)
		if chatLimit > 0 {
			params["limit"] = chatLimit
		}
		return invoke(cmd.Context(), rpc.MethodListChats, params)
	},
}

var lastCmd = &cobra.Command{
	Use:   "last <jid>",
	Short: "Show the last message exchanged with a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd.Context(), rpc.MethodGetLastInteraction, map[string]any{"jid": args[0]})
	},
}

var callCmd = &cobra.Command{
	Use:   "call <method> [params-json]",
	Short: "Invoke any operation by name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("params must be a JSON object: %w", err)
			}
		}
		return invoke(cmd.Context(), args[0], params)
	},
}

func init() {
	rootCmd.AddCommand(contactsCmd, messagesCmd, contextCmd, resolveCmd, sendCmd, sendFileCmd, downloadCmd, chatsCmd, lastCmd, callCmd)

	contactsCmd.Flags().IntVarP(&contactLimit, "limit", "n", 25, "Maximum number of contacts")
	contactsCmd.Flags().BoolVar(&contactGroups, "groups", false, "Include group chats")
	contactsCmd.Flags().BoolVar(&contactSmart, "smart", false, "Similarity search that ignores word order")
	contactsCmd.Flags().Float64Var(&contactThreshold, "threshold", 0.6, "Similarity threshold for --smart (0-1)")

	messagesCmd.Flags().StringVarP(&msgChat, "chat", "c", "", "Chat JID")
	messagesCmd.Flags().StringVarP(&msgSender, "sender", "s", "", "Sender")
	messagesCmd.Flags().StringVarP(&msgQuery, "query", "q", "", "Text to search for")
	messagesCmd.Flags().StringVar(&msgAfter, "after", "", "Only messages after this date")
	messagesCmd.Flags().StringVar(&msgBefore, "before", "", "Only messages before this date")
	messagesCmd.Flags().IntVarP(&msgLimit, "limit", "n", 0, "Messages per page (default 20)")
	messagesCmd.Flags().IntVarP(&msgPage, "page", "p", 0, "Zero-based page")
	messagesCmd.Flags().BoolVar(&msgContext, "context", true, "Include surrounding messages")
	messagesCmd.Flags().BoolVar(&msgForce, "force", false, "List without any filter")

	contextCmd.Flags().IntVarP(&ctxBefore, "before", "B", 5, "Messages before")
	contextCmd.Flags().IntVarP(&ctxAfter, "after", "A", 5, "Messages after")

	chatsCmd.Flags().StringVarP(&chatQuery, "query", "q", "", "Filter by name or JID")
	chatsCmd.Flags().IntVarP(&chatLimit, "limit", "n", 0, "Maximum number of chats (default 20)")
	chatsCmd.Flags().IntVarP(&chatPage, "page", "p", 0, "Zero-based page")
	chatsCmd.Flags().StringVar(&chatSort, "sort", "", "last_active or name")
}

func setIf(params map[string]any, key, value string) {
	if value != "" {
		params[key] = value
	}
}
