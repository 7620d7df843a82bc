package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/contactkeeper/internal/flagx"
	"github.com/dmitrijs2005/contactkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "3h" and integer nanoseconds are accepted. Pointer fields tell an
// explicit false or zero apart from an absent key.
type JsonConfig struct {
	EndpointAddrHTTP                string         `json:"endpoint_addr_http"`
	DatabaseDSN                     string         `json:"database_dsn"`
	SecretKey                       string         `json:"secret_key"`
	SessionTokenValidityDuration    timex.Duration `json:"session_token_validity_duration"`
	PasswordHashCost                *int           `json:"password_hash_cost"`
	PublicBaseURL                   string         `json:"public_base_url"`
	SendGridAPIKey                  string         `json:"sendgrid_api_key"`
	MailFrom                        string         `json:"mail_from"`
	RotateVerificationTokenOnResend *bool          `json:"rotate_verification_token_on_resend"`
	LogLevel                        string         `json:"log_level"`
	S3RootUser                      string         `json:"s3_root_user"`
	S3RootPassword                  string         `json:"s3_root_password"`
	S3Bucket                        string         `json:"s3_bucket"`
	S3Region                        string         `json:"s3_region"`
	S3BaseEndpoint                  string         `json:"s3_base_endpoint"`
	AvatarBaseURL                   string         `json:"avatar_base_url"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// CONFIG environment variable) onto config. Keys missing from the file keep
// their current values. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTokenValidityDuration.Duration != 0 {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	if c.PasswordHashCost != nil {
		config.PasswordHashCost = *c.PasswordHashCost
	}
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.SendGridAPIKey, c.SendGridAPIKey)
	setString(&config.MailFrom, c.MailFrom)
	if c.RotateVerificationTokenOnResend != nil {
		config.RotateVerificationTokenOnResend = *c.RotateVerificationTokenOnResend
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AvatarBaseURL, c.AvatarBaseURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
