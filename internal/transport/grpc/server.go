package grpc

import (
	"net"

	"google.golang.org/grpc"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/logger"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/rpc"
)

type ServerConfig struct {
	Address string
}

type Server struct {
	server  *grpc.Server
	handler *Handler
	config  ServerConfig
}

func NewServer(dispatcher *rpc.Dispatcher, config ServerConfig) *Server {
	handler := NewHandler(dispatcher)

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			LoggingInterceptor(),
			RecoveryInterceptor(),
		),
	)

	RegisterCoreServer(server, handler)

	return &Server{
		server:  server,
		handler: handler,
		config:  config,
	}
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve runs on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	log := logger.Module("grpc")
	log.Info().Str("address", lis.Addr().String()).Msg("serving gRPC")
	return s.server.Serve(lis)
}

func (s *Server) Stop() {
	s.server.GracefulStop()
}
