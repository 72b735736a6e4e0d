package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	grpcTransport "github.com/clippy-oss/homie/whatsapp-mcp/internal/transport/grpc"
	mcpTransport "github.com/clippy-oss/homie/whatsapp-mcp/internal/transport/mcp"
)

var (
	serveTransport string
	serveAddress   string
	serveGRPC      bool
	grpcAddress    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server over stdio (default) or SSE. With --grpc the Core gRPC
service runs alongside it.`,
	RunE: runServe,
}

var grpcCmd = &cobra.Command{
	Use:   "grpc",
	Short: "Run only the Core gRPC service",
	RunE:  runGRPC,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(grpcCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio or sse (default from config)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "SSE listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveGRPC, "grpc", false, "Also serve the Core gRPC service")
	serveCmd.Flags().StringVar(&grpcAddress, "grpc-address", "", "gRPC listen address (default from config)")
	grpcCmd.Flags().StringVar(&grpcAddress, "address", "", "gRPC listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Module("main")

	mcpConfig := mcpTransport.ServerConfig{
		Transport: firstNonEmpty(serveTransport, cfg.MCP.Transport),
		Address:   firstNonEmpty(serveAddress, cfg.MCP.Address),
	}
	mcpServer := mcpTransport.NewServer(dispatcher, mcpConfig)

	errCh := make(chan error, 2)

	var grpcServer *grpcTransport.Server
	if serveGRPC {
		grpcServer = grpcTransport.NewServer(dispatcher, grpcTransport.ServerConfig{
			Address: firstNonEmpty(grpcAddress, cfg.GRPC.Address),
		})
		go func() {
			if err := grpcServer.Start(); err != nil {
				errCh <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	go func() {
		err := mcpServer.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		// stdio returns when the client closes the stream.
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case runErr = <-errCh:
		if runErr != nil {
			log.Error().Err(runErr).Msg("server stopped")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Stop()
	}
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("MCP server stop error")
	}

	log.Info().Msg("shutdown complete")
	return runErr
}

func runGRPC(cmd *cobra.Command, args []string) error {
	log := logger.Module("main")

	server := grpcTransport.NewServer(dispatcher, grpcTransport.ServerConfig{
		Address: firstNonEmpty(grpcAddress, cfg.GRPC.Address),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Print ready message for subprocess coordination
	fmt.Println("ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	server.Stop()
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
