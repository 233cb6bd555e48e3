package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gopfolio/internal/flagx"
	"github.com/dmitrijs2005/gopfolio/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Duration fields
// use timex.Duration so both "30m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	Principal                   string         `json:"principal"`
	SeedCredential              string         `json:"seed_credential"`
	CredentialScheme            string         `json:"credential_scheme"`
	MaxFailedAttempts           int            `json:"max_failed_attempts"`
	BaseLockout                 timex.Duration `json:"base_lockout"`
	CORSAllowedOrigins          []string       `json:"cors_allowed_origins"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	PhotoURLValidity            timex.Duration `json:"photo_url_validity"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) and copies every
// field that is present in it into config. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.Principal, c.Principal)
	setString(&config.SeedCredential, c.SeedCredential)
	setString(&config.CredentialScheme, c.CredentialScheme)
	if c.MaxFailedAttempts > 0 {
		config.MaxFailedAttempts = c.MaxFailedAttempts
	}
	if c.BaseLockout.Duration > 0 {
		config.BaseLockout = c.BaseLockout.Duration
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.PhotoURLValidity.Duration > 0 {
		config.PhotoURLValidity = c.PhotoURLValidity.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
