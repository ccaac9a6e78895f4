package provider

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"golang.org/x/oauth2"
)

// Discovery is what an OpenID Connect issuer advertises about itself
type Discovery struct {
	Endpoint oauth2.Endpoint
	Verifier *oidc.IDTokenVerifier
}

type discoveryClaims struct {
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
}

// Discover reads the issuer's .well-known/openid-configuration. Endpoints the issuer
// does not advertise fall back to the provider defaults for the app.
func Discover(ctx context.Context, app *config.OAuthApp, httpClient *http.Client) (Discovery, error) {
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}

	provider, err := oidc.NewProvider(ctx, app.IssuerURL)
	if err != nil {
		return Discovery{}, apperrors.Wrapf(apperrors.ErrTransport, "failed to discover OIDC provider %s: %v", app.IssuerURL, err)
	}

	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return Discovery{}, apperrors.Wrapf(apperrors.ErrTransport, "failed to read discovery document: %v", err)
	}

	defaults := DefaultEndpoint(app)
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = defaults.AuthStyle
	endpoint.DeviceAuthURL = claims.DeviceAuthorizationEndpoint
	if endpoint.DeviceAuthURL == "" {
		endpoint.DeviceAuthURL = defaults.DeviceAuthURL
	}

	return Discovery{
		Endpoint: endpoint,
		Verifier: provider.Verifier(&oidc.Config{ClientID: app.ClientID}),
	}, nil
}
