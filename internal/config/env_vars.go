package config

import (
	"net"
	"os"
	"strings"
	"time"
)

const (
	portEnvVar          = "PORT"
	hostEnvVar          = "HOST"
	appNameVar          = "APP_NAME"
	sessionSecretEnvVar = "SESSION_SECRET"
	sessionTTLEnvVar    = "SESSION_TTL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	return strings.TrimPrefix(GetEnv(portEnvVar, "8080"), ":")
}

func (EnvVars) GetHost() string {
	return GetEnv(hostEnvVar, "127.0.0.1")
}

func (e EnvVars) GetAddr() string {
	return joinHostPort(e.GetHost(), e.GetPort())
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "OAuth Quickstart")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetSessionSecret returns the secret used to protect session cookies.
// An empty value means a random per-process secret is generated.
func (EnvVars) GetSessionSecret() string {
	return GetEnv(sessionSecretEnvVar, "")
}

// GetSessionTTL is how long a login session (state, code verifier, token) is kept
func (EnvVars) GetSessionTTL() time.Duration {
	if d, err := time.ParseDuration(GetEnv(sessionTTLEnvVar, "")); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func joinHostPort(host, port string) string {
	return net.JoinHostPort(host, port)
}
