// Package client talks to the gopfolio backend over gRPC.
//
// GRPCClient keeps the access token returned by Login and attaches it to
// every later call through a unary interceptor. gRPC status codes are mapped
// to the sentinels in errors.go so callers can match them with errors.Is;
// the server's status message is kept in the wrapped error text.
package client
