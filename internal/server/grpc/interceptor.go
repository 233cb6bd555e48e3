package grpc

import (
	"context"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	pb "github.com/dmitrijs2005/gopfolio/internal/proto"
	"github.com/dmitrijs2005/gopfolio/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// public methods skip the token check
var public = map[string]bool{
	pb.MethodLogin:  true,
	pb.MethodLogout: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if public[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	accountID, err := auth.GetAccountIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, accountIDKey, accountID)

	return handler(ctx, req)
}
