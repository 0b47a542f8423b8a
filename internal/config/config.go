package config

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

type Config struct {
	Port             string
	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseSSLMode  string
	EmailAPIKey      string
	AdminEmail       string
	SupportEmail     string // displayed on the site for support queries
	NoReplyEmail     string // used for transactional emails
	SessionKey       []byte
	JwtSigningKey    []byte
	SentryDSN        string
	Env              string // either prod or dev, will disable https and few other bits
	SiteName         string
	SiteHost         string
	URLProtocol      string
	InternshipsPerPage int // configures how many internship postings are shown per page result
	ProfilesPerPage    int // configures how many profiles are shown per page result
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL cannot be empty")
	}
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		return Config{}, fmt.Errorf("SUPPORT_EMAIL cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKeyString := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKeyString == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	sentryDSN := os.Getenv("SENTRY_DSN")
	env := os.Getenv("ENV")
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		siteName = "InternMatch"
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	urlProtocol := "https://"
	if env == "dev" {
		urlProtocol = "http://"
	}

	return Config{
		Port:               port,
		DatabaseUser:       databaseUser,
		DatabasePassword:   databasePassword,
		DatabaseHost:       databaseHost,
		DatabasePort:       databasePort,
		DatabaseName:       databaseName,
		DatabaseSSLMode:    databaseSSLMode,
		EmailAPIKey:        emailAPIKey,
		AdminEmail:         adminEmail,
		SupportEmail:       supportEmail,
		NoReplyEmail:       noReplyEmail,
		SessionKey:         sessionKeyBytes,
		JwtSigningKey:      jwtSigningKeyBytes,
		SentryDSN:          sentryDSN,
		Env:                env,
		SiteName:           siteName,
		SiteHost:           siteHost,
		URLProtocol:        urlProtocol,
		InternshipsPerPage: 10,
		ProfilesPerPage:    10,
	}, nil
}
