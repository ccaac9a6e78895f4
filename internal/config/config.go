package config

import "time"

type Config interface {
	EnvConfig
	GetOAuthApp() *OAuthApp
}

type EnvConfig interface {
	GetPort() string
	GetHost() string
	GetAddr() string
	GetAppName() string
	GetEnv() string
	GetSessionSecret() string
	GetSessionTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	app  *OAuthApp
	host string
	port string
}

type Option func(*mainConfig)

// WithHost overrides the HOST environment variable
func WithHost(host string) Option {
	return func(c *mainConfig) { c.host = host }
}

// WithPort overrides the PORT environment variable
func WithPort(port string) Option {
	return func(c *mainConfig) { c.port = port }
}

func New(app *OAuthApp, opts ...Option) Config {
	c := mainConfig{app: app}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c mainConfig) GetOAuthApp() *OAuthApp {
	return c.app
}

func (c mainConfig) GetHost() string {
	if c.host != "" {
		return c.host
	}
	return c.EnvVars.GetHost()
}

func (c mainConfig) GetPort() string {
	if c.port != "" {
		return c.port
	}
	return c.EnvVars.GetPort()
}

func (c mainConfig) GetAddr() string {
	return joinHostPort(c.GetHost(), c.GetPort())
}
