package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/bridge"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/config"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/render"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/service"
)

var (
	// Global flags
	configPath   string
	logLevel     string
	outputFormat string

	cfg        *config.Config
	dispatcher *rpc.Dispatcher
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "whatsapp-mcp",
	Short: "Query a WhatsApp bridge's stores and send through it",
	Long: `whatsapp-mcp reads the message and contact stores written by a running
WhatsApp bridge and exposes them as tools.

  - serve:    run the MCP server (stdio or SSE), optionally with gRPC
  - headless: JSON lines on stdin/stdout
  - shell:    interactive slash commands
  - contacts, messages, chats, ...: one-shot queries

Stores are opened read-only for each call; sending goes through the bridge's
REST API.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $WA_MCP_CONFIG or ~/.whatsapp-mcp/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format for one-shot commands (text, json)")
}

// setup loads .env, the config and wires the services shared by every
// subcommand.
func setup(cmd *cobra.Command, args []string) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	logger.Init(loaded.Log.Level, os.Stderr)

	d, err := newDispatcher(loaded)
	if err != nil {
		return err
	}
	cfg, dispatcher = loaded, d

	log := logger.Module("main")
	log.Debug().
		Str("messages_db", cfg.Store.MessagesPath).
		Str("directory_db", cfg.Store.DirectoryPath).
		Str("bridge", cfg.Bridge.APIBaseURL).
		Msg("configuration loaded")
	return nil
}

func newDispatcher(cfg *config.Config) (*rpc.Dispatcher, error) {
	stores := repository.NewAccessor(repository.StoreConfig{
		MessagesPath:  cfg.Store.MessagesPath,
		DirectoryPath: cfg.Store.DirectoryPath,
		BusyTimeout:   cfg.Store.BusyTimeout.Duration,
	})

	contacts, err := service.NewContactService(stores, cfg.Ranking)
	if err != nil {
		return nil, err
	}
	bridgeClient := bridge.NewClient(bridge.ClientConfig{
		BaseURL: cfg.Bridge.APIBaseURL,
		Timeout: cfg.Bridge.Timeout.Duration,
	})

	return rpc.NewDispatcher(rpc.Services{
		Contacts:       contacts,
		Messages:       service.NewMessageService(stores, cfg.Query),
		Chats:          service.NewChatService(stores, cfg.Query),
		Recipients:     service.NewRecipientService(contacts, bridgeClient),
		Media:          service.NewMediaService(bridgeClient),
		SmartThreshold: cfg.Ranking.SmartThreshold,
	}), nil
}

// invoke dispatches one call and prints the response in the selected format.
// An operation error is printed and returned so the exit status is non-zero.
func invoke(ctx context.Context, method string, params map[string]any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	resp := dispatcher.Dispatch(ctx, rpc.Request{Method: method, Params: raw})

	switch outputFormat {
	case "json":
		if err := OutputJSON(resp); err != nil {
			return err
		}
	case "text":
		if resp.Error == nil {
			fmt.Println(render.Result(resp.Result))
		}
		for _, w := range resp.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

// OutputJSON writes indented JSON to stdout
func OutputJSON(data interface{}) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
