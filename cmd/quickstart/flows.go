package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/device"
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/jrsteele09/go-oauth-quickstart/server"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// buildClients creates the provider clients of a flow. The device flow also gets the
// authorizer that obtains its first token.
func buildClients(ctx context.Context, flow config.Flow, app *config.OAuthApp, cache *token.Cache) (server.Clients, *device.Authorizer, error) {
	httpClient := provider.NewHTTPClient()
	opts := []provider.Option{provider.WithHTTPClient(httpClient)}
	jwtOpts := []provider.JWTOption{provider.WithJWTHTTPClient(httpClient)}

	if app.IssuerURL != "" {
		discovery, err := provider.Discover(ctx, app, httpClient)
		if err != nil {
			return server.Clients{}, nil, err
		}
		log.Info().Str("issuer", app.IssuerURL).Str("token_url", discovery.Endpoint.TokenURL).Msg("Using discovered endpoints")
		opts = append(opts, provider.WithDiscovery(discovery))
		jwtOpts = append(jwtOpts, provider.WithTokenURL(discovery.Endpoint.TokenURL))
	}

	switch flow {
	case config.FlowJWT:
		client, err := provider.NewJWTAssertionClient(app, jwtOpts...)
		if err != nil {
			return server.Clients{}, nil, err
		}
		return server.Clients{JWT: client}, nil, nil

	case config.FlowPKCE:
		opts = append(opts, provider.WithPKCE())
		fallthrough

	case config.FlowWeb:
		client := provider.NewClient(app, opts...)
		return server.Clients{Web: client, UserInfo: client}, nil, nil

	case config.FlowDevice:
		client := provider.NewClient(app, opts...)
		return server.Clients{Device: client, UserInfo: client}, device.NewAuthorizer(client, cache, app.ClientID), nil
	}
	return server.Clients{}, nil, fmt.Errorf("unknown flow %q", flow)
}

// authorizeDevice blocks until the device is authorized and prints the token and its owner
func authorizeDevice(ctx context.Context, authorizer *device.Authorizer, clients server.Clients) error {
	tok, err := authorizer.Authorize(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("[device-oauth] access_token: %s\n", tok.AccessToken)
	fmt.Printf("[device-oauth] refresh_token: %s\n", tok.RefreshToken)
	fmt.Printf("[device-oauth] expires_in: %s\n", tok.ExpiresAtDisplay())

	user, err := clients.UserInfo.UsersMe(ctx, tok.AccessToken)
	if err != nil {
		// Authorization succeeded; the server can still run without the user's details
		log.Err(err).Msg("Failed to get user info")
		return nil
	}
	fmt.Printf("[user_info] user_id: %s\n", user.UserID)
	fmt.Printf("[user_info] user_name: %s\n", user.UserName)
	fmt.Printf("[user_info] nick_name: %s\n", user.NickName)
	fmt.Printf("[user_info] avatar_url: %s\n", user.AvatarURL)
	return nil
}

// probe calls the flow's token endpoint once, as a client of this server would
func probe(ctx context.Context, baseURL string, flow config.Flow) {
	path := server.RouteToken
	if flow == config.FlowDevice {
		path = server.RouteRefreshToken
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		log.Err(err).Msg("Probe failed")
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Err(err).Msg("Probe failed")
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	log.Info().Str("path", path).Int("status", resp.StatusCode).Bytes("body", body).Msg("Probe response")
}
