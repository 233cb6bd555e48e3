// Package grpc serves the gopfolio.Portfolio service used by the CLI.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gopfolio/internal/logging"
	pb "github.com/dmitrijs2005/gopfolio/internal/proto"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/services"
	"google.golang.org/grpc"
)

type authSvc interface {
	Login(ctx context.Context, username, credential string) (*services.LoginResult, error)
	Logout(ctx context.Context) error
}

type portfolioSvc interface {
	GetTotals(ctx context.Context) (models.Totals, error)
	GetTransactionHistory(ctx context.Context, kind models.Kind, page, pageSize int) (*models.HistoryPage, error)
	ClearAllFinancialData(ctx context.Context) error
}

type GRPCServer struct {
	address   string
	auth      authSvc
	portfolio portfolioSvc
	logger    logging.Logger
	jwtSecret []byte
}

var _ pb.PortfolioServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, as authSvc, ps portfolioSvc, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		auth:      as,
		portfolio: ps,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	pb.RegisterPortfolioServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
