// Package cli provides the interactive gopfolio command-line client.
//
// It logs the configured principal in over gRPC (the password is read
// without echo) and then runs a small REPL for read-mostly portfolio tasks:
// totals, paged transaction history and clearing all financial data.
package cli
