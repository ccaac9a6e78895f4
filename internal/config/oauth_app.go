package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when neither a flag nor the flow's env var names a file
const DefaultConfigPath = "coze_oauth_config.json"

const (
	defaultRedirectURI = "http://127.0.0.1:8080/callback"
	defaultTokenTTL    = 900
)

// Flow identifies which OAuth grant a quickstart runs
type Flow string

const (
	FlowDevice Flow = "device"
	FlowJWT    Flow = "jwt"
	FlowPKCE   Flow = "pkce"
	FlowWeb    Flow = "web"
)

// ConfigPathEnvVar returns the environment variable that selects the config file for a flow,
// e.g. DEVICE_OAUTH_CONFIG_PATH.
func (f Flow) ConfigPathEnvVar() string {
	return strings.ToUpper(string(f)) + "_OAUTH_CONFIG_PATH"
}

// OAuthApp is the OAuth application record read from the config file.
// It is never modified after Load returns.
type OAuthApp struct {
	ClientType   string   `json:"client_type" yaml:"client_type"`
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty" yaml:"client_secret"`
	PrivateKey   string   `json:"private_key,omitempty" yaml:"private_key"`
	PublicKeyID  string   `json:"public_key_id,omitempty" yaml:"public_key_id"`
	CozeAPIBase  string   `json:"coze_api_base" yaml:"coze_api_base"`
	CozeWWWBase  string   `json:"coze_www_base,omitempty" yaml:"coze_www_base"`
	RedirectURI  string   `json:"redirect_uri,omitempty" yaml:"redirect_uri"`
	IssuerURL    string   `json:"issuer_url,omitempty" yaml:"issuer_url"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes"`
	TokenTTL     int      `json:"token_ttl,omitempty" yaml:"token_ttl"`
}

// fileLayout accepts both a flat record and one nested under "app"
type fileLayout struct {
	App      *OAuthApp `json:"app,omitempty" yaml:"app"`
	OAuthApp `yaml:",inline"`
}

// Loader reads a config file at most once. Every Load call after the first returns
// the same *OAuthApp (and error) as the first.
type Loader struct {
	path string
	once sync.Once
	app  *OAuthApp
	err  error
}

func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultConfigPath
	}
	return &Loader{path: path}
}

func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) Load() (*OAuthApp, error) {
	l.once.Do(func() {
		l.app, l.err = LoadFile(l.path)
	})
	return l.app, l.err
}

// LoadFile reads and parses a JSON or YAML config file
func LoadFile(path string) (*OAuthApp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %s not found", apperrors.ErrConfig, path)
		}
		return nil, fmt.Errorf("%w: failed to read config file %s: %v", apperrors.ErrConfig, path, err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(data, format)
}

// Parse decodes config data. format is "json", "yaml" or "yml"; anything else is
// sniffed from the first non-space byte.
func Parse(data []byte, format string) (*OAuthApp, error) {
	if format != "json" && format != "yaml" && format != "yml" {
		format = "yaml"
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = "json"
		}
	}

	var layout fileLayout
	switch format {
	case "json":
		if err := json.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("%w: failed to parse JSON config: %v", apperrors.ErrConfig, err)
		}
	default:
		if err := yaml.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("%w: failed to parse YAML config: %v", apperrors.ErrConfig, err)
		}
	}

	app := layout.OAuthApp
	if layout.App != nil {
		app = *layout.App
	}
	app.applyDefaults()
	return &app, nil
}

func (a *OAuthApp) applyDefaults() {
	a.CozeAPIBase = strings.TrimRight(a.CozeAPIBase, "/")
	a.CozeWWWBase = strings.TrimRight(a.CozeWWWBase, "/")
	if a.CozeWWWBase == "" {
		a.CozeWWWBase = deriveWWWBase(a.CozeAPIBase)
	}
	if a.RedirectURI == "" {
		a.RedirectURI = defaultRedirectURI
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = defaultTokenTTL
	}
}

// Validate checks the fields the given flow needs
func (a *OAuthApp) Validate(flow Flow) error {
	if a.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", apperrors.ErrConfig)
	}
	if a.CozeAPIBase == "" && a.IssuerURL == "" {
		return fmt.Errorf("%w: coze_api_base is required", apperrors.ErrConfig)
	}
	if a.ClientType != "" && a.ClientType != string(flow) {
		return fmt.Errorf("%w: invalid client type: %s. expected: %s", apperrors.ErrConfig, a.ClientType, flow)
	}

	switch flow {
	case FlowJWT:
		if a.PrivateKey == "" || a.PublicKeyID == "" {
			return fmt.Errorf("%w: private_key and public_key_id are required for the jwt flow", apperrors.ErrConfig)
		}
	case FlowWeb:
		if a.ClientSecret == "" {
			return fmt.Errorf("%w: client_secret is required for the web flow", apperrors.ErrConfig)
		}
	case FlowDevice, FlowPKCE:
	default:
		return fmt.Errorf("%w: unknown flow %q", apperrors.ErrConfig, flow)
	}
	return nil
}

// APIHost is the host part of coze_api_base, used as the JWT audience
func (a *OAuthApp) APIHost() string {
	u, err := url.Parse(a.CozeAPIBase)
	if err != nil || u.Host == "" {
		return a.CozeAPIBase
	}
	return u.Host
}

func deriveWWWBase(apiBase string) string {
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" {
		return apiBase
	}
	if strings.HasPrefix(u.Host, "api.") {
		u.Host = "www." + strings.TrimPrefix(u.Host, "api.")
	}
	return u.String()
}
