package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-l string   HTTP bind address (e.g., ":8080")
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-principal string   principal username
//	-k string   seed credential for the principal
//	-m string   credential scheme: plain, bcrypt or argon2id
//	-x int      failed attempts before lockout
//	-o int      base lockout, minutes
//	-cors string  comma separated allowed origins
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, endpoint
//	-w int      presigned photo URL validity, minutes
//	-log-level string  debug, info, warn or error
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and other
// components' flags do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-l", "-a", "-d", "-s", "-t", "-principal", "-k", "-m", "-x", "-o", "-cors",
		"-u", "-p", "-b", "-g", "-e", "-w", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.Principal, "principal", config.Principal, "principal username")
	fs.StringVar(&config.SeedCredential, "k", config.SeedCredential, "seed credential for the principal")
	fs.StringVar(&config.CredentialScheme, "m", config.CredentialScheme, "credential scheme (plain, bcrypt, argon2id)")
	fs.IntVar(&config.MaxFailedAttempts, "x", config.MaxFailedAttempts, "failed attempts before lockout")
	baseLockout := fs.Int("o", int(config.BaseLockout.Minutes()), "base lockout (in minutes)")
	origins := fs.String("cors", strings.Join(config.CORSAllowedOrigins, ","), "comma separated CORS origins")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	photoURLValidity := fs.Int("w", int(config.PhotoURLValidity.Minutes()), "photo URL validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.BaseLockout = time.Duration(*baseLockout) * time.Minute
	config.PhotoURLValidity = time.Duration(*photoURLValidity) * time.Minute
	config.CORSAllowedOrigins = splitList(*origins)
}
