package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	pb "github.com/dmitrijs2005/gopfolio/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// portfolioRPC is the subset of pb.PortfolioClient the CLI uses.
type portfolioRPC interface {
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Totals(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	History(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Clear(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type Totals struct {
	Invested string
	Goals    string
}

type HistoryItem struct {
	Name       string
	Amount     string
	Percentage string
	Timestamp  time.Time
}

type HistoryPage struct {
	Kind        string
	Items       []HistoryItem
	TotalCount  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      portfolioRPC

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(t string) {
	s.mu.Lock()
	s.accessToken = t
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewPortfolioClientService(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewPortfolioClient(conn)
	return nil
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Login authenticates and keeps the access token for later calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"username": username, "password": password})
	if err != nil {
		return err
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.setToken(resp.GetFields()["accessToken"].GetStringValue())
	return nil
}

func (s *GRPCClient) LoggedIn() bool {
	return s.token() != ""
}

// Logout tells the server and always forgets the local token.
func (s *GRPCClient) Logout(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Logout(ctx, &structpb.Struct{})
	s.setToken("")
	return s.mapError(err)
}

func (s *GRPCClient) Totals(ctx context.Context) (*Totals, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Totals(ctx, &structpb.Struct{})
	if err != nil {
		return nil, s.mapError(err)
	}

	f := resp.GetFields()
	return &Totals{
		Invested: f["totalInvested"].GetStringValue(),
		Goals:    f["totalGoals"].GetStringValue(),
	}, nil
}

func (s *GRPCClient) History(ctx context.Context, kind string, page, pageSize int) (*HistoryPage, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		"kind":     kind,
		"page":     float64(page),
		"pageSize": float64(pageSize),
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.History(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	f := resp.GetFields()
	res := &HistoryPage{
		Kind:        f["kind"].GetStringValue(),
		TotalCount:  int(f["totalCount"].GetNumberValue()),
		TotalPages:  int(f["totalPages"].GetNumberValue()),
		CurrentPage: int(f["currentPage"].GetNumberValue()),
		PageSize:    int(f["pageSize"].GetNumberValue()),
	}

	for _, v := range f["items"].GetListValue().GetValues() {
		item := v.GetStructValue().GetFields()
		ts, _ := time.Parse(time.RFC3339, item["timestamp"].GetStringValue())
		res.Items = append(res.Items, HistoryItem{
			Name:       item["name"].GetStringValue(),
			Amount:     item["amount"].GetStringValue(),
			Percentage: item["percentage"].GetStringValue(),
			Timestamp:  ts,
		})
	}

	return res, nil
}

func (s *GRPCClient) Clear(ctx context.Context) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Clear(ctx, &structpb.Struct{})
	return s.mapError(err)
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrLocked, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %s", st.Message())
	}
}
