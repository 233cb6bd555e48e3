// Package config loads runtime configuration for the gopfolio CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-u string   username to log in as
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "username": "owner",
//	  "request_timeout": "10s"
//	}
package config
