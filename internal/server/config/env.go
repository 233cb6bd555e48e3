package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading variables; a missing file is not an error.
var envFile = ".env"

const envPrefix = "GOPFOLIO_"

// parseEnv overlays GOPFOLIO_* environment variables onto config. Values
// already present in the process environment win over the .env file.
// Malformed numbers or durations panic, like the other layers.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	envString("PRINCIPAL", &config.Principal)
	envString("SEED_CREDENTIAL", &config.SeedCredential)
	envString("CREDENTIAL_SCHEME", &config.CredentialScheme)
	envInt("MAX_FAILED_ATTEMPTS", &config.MaxFailedAttempts)
	envDuration("BASE_LOCKOUT", &config.BaseLockout)
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("PHOTO_URL_VALIDITY", &config.PhotoURLValidity)
	envString("LOG_LEVEL", &config.LogLevel)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
