package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/authorize",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/jwks",
			"device_authorization_endpoint":         srv.URL + "/device",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}))
	t.Cleanup(srv.Close)

	app := testApp("https://api.coze.test")
	app.IssuerURL = srv.URL

	d, err := provider.Discover(context.Background(), app, srv.Client())
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/authorize", d.Endpoint.AuthURL)
	require.Equal(t, srv.URL+"/token", d.Endpoint.TokenURL)
	require.Equal(t, srv.URL+"/device", d.Endpoint.DeviceAuthURL)
	require.NotNil(t, d.Verifier)

	c := provider.NewClient(app, provider.WithDiscovery(d))
	authURL, err := c.GenOAuthURL("state-1")
	require.NoError(t, err)
	require.Contains(t, authURL.URL, srv.URL+"/authorize?")
}

func TestDiscover_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	app := testApp("https://api.coze.test")
	app.IssuerURL = srv.URL

	_, err := provider.Discover(context.Background(), app, srv.Client())
	require.Error(t, err)
}
