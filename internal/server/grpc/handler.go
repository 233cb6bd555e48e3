package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/dmitrijs2005/gopfolio/internal/server/guard"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	fields := req.GetFields()
	username := fields["username"].GetStringValue()
	password := fields["password"].GetStringValue()

	result, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Logged in", "username", username)
	return structpb.NewStruct(map[string]any{
		"accessToken": result.AccessToken,
		"accountId":   result.Profile.ID,
		"username":    result.Profile.Username,
	})
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.auth.Logout(ctx); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{"message": "logged out"})
}

func (s *GRPCServer) Totals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	totals, err := s.portfolio.GetTotals(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return structpb.NewStruct(map[string]any{
		"totalInvested": totals.Invested.String(),
		"totalGoals":    totals.Goals.String(),
	})
}

func (s *GRPCServer) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	fields := req.GetFields()

	kind, err := models.ParseKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	page := toInt(fields["page"].GetNumberValue())
	pageSize := toInt(fields["pageSize"].GetNumberValue())

	res, err := s.portfolio.GetTransactionHistory(ctx, kind, page, pageSize)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	items := make([]any, 0, len(res.Items))
	for _, t := range res.Items {
		items = append(items, map[string]any{
			"id":         t.ID,
			"name":       t.Name,
			"amount":     t.Amount.String(),
			"percentage": t.Percentage.String(),
			"timestamp":  t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return structpb.NewStruct(map[string]any{
		"kind":        kind.String(),
		"items":       items,
		"totalCount":  float64(res.TotalCount),
		"totalPages":  float64(res.TotalPages),
		"currentPage": float64(res.Page),
		"pageSize":    float64(res.PageSize),
	})
}

func (s *GRPCServer) Clear(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.portfolio.ClearAllFinancialData(ctx); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Warn(ctx, "Financial data cleared over gRPC")
	return structpb.NewStruct(map[string]any{"message": "all financial data cleared"})
}

// toStatus maps service errors to gRPC codes; unexpected causes stay in the log.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var (
		locked  *guard.LockedError
		invalid *guard.InvalidCredentialsError
	)

	switch {
	case errors.As(err, &locked):
		secs := int64(math.Ceil(locked.Remaining.Seconds()))
		return status.Error(codes.PermissionDenied, fmt.Sprintf("account locked, retry in %d seconds", secs))
	case errors.As(err, &invalid):
		return status.Error(codes.Unauthenticated, fmt.Sprintf("invalid credentials, %d attempts left", invalid.AttemptsLeft))
	case errors.Is(err, common.ErrNotAuthorized):
		return status.Error(codes.Unauthenticated, "not authorized")
	case errors.Is(err, common.ErrorInvalidKind), errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// toInt converts a JSON number to int, mapping NaN and non-positive values
// to 0 and saturating at math.MaxInt instead of wrapping.
func toInt(v float64) int {
	switch {
	case math.IsNaN(v) || v < 1:
		return 0
	case v >= float64(math.MaxInt):
		return math.MaxInt
	}
	return int(v)
}
