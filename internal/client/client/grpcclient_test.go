package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakePB struct {
	lastLoginReq   *structpb.Struct
	lastHistoryReq *structpb.Struct

	loginResp *structpb.Struct
	loginErr  error

	logoutErr error

	totalsResp *structpb.Struct
	totalsErr  error

	historyResp *structpb.Struct
	historyErr  error

	clearErr   error
	clearCalls int
}

func (f *fakePB) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastLoginReq = in
	return f.loginResp, f.loginErr
}
func (f *fakePB) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return &structpb.Struct{}, f.logoutErr
}
func (f *fakePB) Totals(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return f.totalsResp, f.totalsErr
}
func (f *fakePB) History(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.lastHistoryReq = in
	return f.historyResp, f.historyErr
}
func (f *fakePB) Clear(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	f.clearCalls++
	return &structpb.Struct{}, f.clearErr
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestInterceptor_AttachesToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)
		require.Equal(t, "A1", toks[0])
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoTokenNoMetadata(t *testing.T) {
	c := &GRPCClient{}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "old", "x-other", "1")
	ctx = withAccessToken(ctx, "new")

	md, _ := metadata.FromOutgoingContext(ctx)
	assert.Equal(t, []string{"new"}, md.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"1"}, md.Get("x-other"))
}

func TestLogin_StoresToken(t *testing.T) {
	f := &fakePB{loginResp: mustStruct(t, map[string]any{"accessToken": "tok", "accountId": "a1"})}
	c := &GRPCClient{client: f}

	require.NoError(t, c.Login(context.Background(), "owner", "pw"))
	assert.True(t, c.LoggedIn())
	assert.Equal(t, "owner", f.lastLoginReq.GetFields()["username"].GetStringValue())
	assert.Equal(t, "pw", f.lastLoginReq.GetFields()["password"].GetStringValue())
}

func TestLogin_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		msg  string
	}{
		{"invalid credentials", status.Error(codes.Unauthenticated, "invalid credentials, 2 attempts left"), ErrUnauthorized, "2 attempts left"},
		{"locked", status.Error(codes.PermissionDenied, "account locked, retry in 1800 seconds"), ErrLocked, "1800 seconds"},
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrUnavailable, ""},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &GRPCClient{client: &fakePB{loginErr: tt.err}}
			err := c.Login(context.Background(), "owner", "bad")
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
			assert.False(t, c.LoggedIn())
		})
	}
}

func TestMapError_Other(t *testing.T) {
	c := &GRPCClient{}
	assert.Nil(t, c.mapError(nil))
	assert.EqualError(t, c.mapError(status.Error(codes.Internal, "internal error")), "rpc error: internal error")

	plain := errors.New("boom")
	assert.ErrorIs(t, c.mapError(plain), plain)
}

func TestLogout_ForgetsTokenEvenOnError(t *testing.T) {
	c := &GRPCClient{client: &fakePB{logoutErr: status.Error(codes.Unavailable, "down")}, accessToken: "tok"}

	err := c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, c.LoggedIn())
}

func TestCallsRequireLogin(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f}

	_, err := c.Totals(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = c.History(context.Background(), "investment", 1, 10)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, c.Clear(context.Background()), ErrNotLoggedIn)
	assert.Zero(t, f.clearCalls)
}

func TestTotals(t *testing.T) {
	f := &fakePB{totalsResp: mustStruct(t, map[string]any{"totalInvested": "1000", "totalGoals": "1000"})}
	c := &GRPCClient{client: f, accessToken: "tok", timeout: time.Second}

	got, err := c.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Totals{Invested: "1000", Goals: "1000"}, got)
}

func TestHistory_DecodesPage(t *testing.T) {
	f := &fakePB{historyResp: mustStruct(t, map[string]any{
		"kind": "investment",
		"items": []any{
			map[string]any{"name": "Stocks", "amount": "600", "percentage": "60", "timestamp": "2026-01-02T03:04:05Z"},
		},
		"totalCount":  float64(11),
		"totalPages":  float64(2),
		"currentPage": float64(2),
		"pageSize":    float64(10),
	})}
	c := &GRPCClient{client: f, accessToken: "tok"}

	got, err := c.History(context.Background(), "investment", 2, 10)
	require.NoError(t, err)

	assert.Equal(t, float64(2), f.lastHistoryReq.GetFields()["page"].GetNumberValue())
	assert.Equal(t, 11, got.TotalCount)
	assert.Equal(t, 2, got.TotalPages)
	assert.Equal(t, 2, got.CurrentPage)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Stocks", got.Items[0].Name)
	assert.True(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Equal(got.Items[0].Timestamp))
}

func TestHistory_Error(t *testing.T) {
	c := &GRPCClient{client: &fakePB{historyErr: status.Error(codes.InvalidArgument, "invalid kind")}, accessToken: "tok"}
	_, err := c.History(context.Background(), "bogus", 1, 10)
	assert.EqualError(t, err, "rpc error: invalid kind")
}

func TestClear(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f, accessToken: "tok"}
	require.NoError(t, c.Clear(context.Background()))
	assert.Equal(t, 1, f.clearCalls)
}

func TestNewPortfolioClientService_LazyConnect(t *testing.T) {
	c, err := NewPortfolioClientService("127.0.0.1:1", time.Second)
	require.NoError(t, err)
	require.NotNil(t, c.client)
	require.NoError(t, c.Close())
}
