package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Client talks to the provider for the web, PKCE and device flows
type Client struct {
	oauth      *oauth2.Config
	pkce       bool
	httpClient *http.Client
	usersMeURL string
	verifier   *oidc.IDTokenVerifier
}

var (
	_ WebClient      = (*Client)(nil)
	_ DeviceClient   = (*Client)(nil)
	_ UserInfoClient = (*Client)(nil)
)

type Option func(*Client)

// WithPKCE makes GenOAuthURL generate a code verifier and send its S256 challenge
func WithPKCE() Option {
	return func(c *Client) { c.pkce = true }
}

// WithHTTPClient replaces the retrying client returned by NewHTTPClient
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithDiscovery uses endpoints discovered from an OpenID Connect issuer and verifies
// any id_token returned alongside access tokens.
func WithDiscovery(d Discovery) Option {
	return func(c *Client) {
		c.oauth.Endpoint = d.Endpoint
		c.verifier = d.Verifier
	}
}

func NewClient(app *config.OAuthApp, opts ...Option) *Client {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     app.ClientID,
			ClientSecret: app.ClientSecret,
			Endpoint:     DefaultEndpoint(app),
			RedirectURL:  app.RedirectURI,
			Scopes:       app.Scopes,
		},
		usersMeURL: UsersMeURL(app),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient()
	}
	return c
}

// withHTTPClient makes x/oauth2 send its requests through the provider HTTP client
func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) GenOAuthURL(state string) (AuthURL, error) {
	if state == "" {
		return AuthURL{}, apperrors.Wrapf(apperrors.ErrInvalidState, "state is required")
	}
	if !c.pkce {
		return AuthURL{URL: c.oauth.AuthCodeURL(state)}, nil
	}

	verifier := oauth2.GenerateVerifier()
	return AuthURL{
		URL:          c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		CodeVerifier: verifier,
	}, nil
}

func (c *Client) GetAccessToken(ctx context.Context, code, codeVerifier string) (token.Token, error) {
	if code == "" {
		return token.Token{}, apperrors.ErrMissingCode
	}

	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	} else if c.pkce {
		return token.Token{}, apperrors.ErrVerifierNotFound
	}

	ctx = c.withHTTPClient(ctx)
	tok, err := c.oauth.Exchange(ctx, code, opts...)
	if err != nil {
		return token.Token{}, convertError(ctx, err)
	}
	if err := c.verifyIDToken(ctx, tok); err != nil {
		return token.Token{}, err
	}
	return token.FromOAuth2(tok), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (token.Token, error) {
	if refreshToken == "" {
		return token.Token{}, apperrors.ErrNoToken
	}

	ctx = c.withHTTPClient(ctx)
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return token.Token{}, convertError(ctx, err)
	}

	fresh := token.FromOAuth2(tok)
	if fresh.RefreshToken == "" {
		// Provider did not rotate; the old refresh token stays valid
		fresh.RefreshToken = refreshToken
	}
	return fresh, nil
}

func (c *Client) GetDeviceCode(ctx context.Context) (oauthmodel.DeviceCode, error) {
	ctx = c.withHTTPClient(ctx)
	da, err := c.oauth.DeviceAuth(ctx)
	if err != nil {
		return oauthmodel.DeviceCode{}, convertError(ctx, err)
	}

	verificationURL := da.VerificationURIComplete
	if verificationURL == "" {
		verificationURL = da.VerificationURI
	}
	return oauthmodel.DeviceCode{
		DeviceCode:      da.DeviceCode,
		UserCode:        da.UserCode,
		VerificationURL: verificationURL,
		Interval:        da.Interval,
		Expiry:          da.Expiry,
	}, nil
}

func (c *Client) GetDeviceToken(ctx context.Context, code oauthmodel.DeviceCode) (token.Token, error) {
	ctx = c.withHTTPClient(ctx)
	tok, err := c.oauth.DeviceAccessToken(ctx, &oauth2.DeviceAuthResponse{
		DeviceCode: code.DeviceCode,
		UserCode:   code.UserCode,
		Interval:   code.Interval,
		Expiry:     code.Expiry,
	})
	if err != nil {
		// The poll is bounded by the device code's expiry
		if apperrors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return token.Token{}, &AuthError{Code: oauthmodel.ErrorExpiredToken, Description: "device code expired before authorization"}
		}
		return token.Token{}, convertError(ctx, err)
	}
	return token.FromOAuth2(tok), nil
}

type usersMeResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data oauthmodel.User `json:"data"`
}

// UsersMe fetches the account behind accessToken
func (c *Client) UsersMe(ctx context.Context, accessToken string) (oauthmodel.User, error) {
	if accessToken == "" {
		return oauthmodel.User{}, apperrors.ErrNoToken
	}

	ctx = c.withHTTPClient(ctx)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.usersMeURL, nil)
	if err != nil {
		return oauthmodel.User{}, fmt.Errorf("failed to build users/me request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return oauthmodel.User{}, convertError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return oauthmodel.User{}, &AuthError{Code: "invalid_token", StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return oauthmodel.User{}, apperrors.Wrapf(apperrors.ErrTransport, "users/me returned status %d", resp.StatusCode)
	}

	var body usersMeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return oauthmodel.User{}, apperrors.Wrapf(apperrors.ErrTransport, "failed to decode users/me response: %v", err)
	}
	if body.Code != 0 {
		return oauthmodel.User{}, &AuthError{Code: oauthmodel.ErrorCode(fmt.Sprint(body.Code)), Description: body.Msg, StatusCode: resp.StatusCode}
	}
	return body.Data, nil
}

func (c *Client) verifyIDToken(ctx context.Context, tok *oauth2.Token) error {
	if c.verifier == nil {
		return nil
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil
	}
	if _, err := c.verifier.Verify(ctx, rawIDToken); err != nil {
		log.Err(err).Msg("id_token verification failed")
		return &AuthError{Code: oauthmodel.ErrorInvalidGrant, Description: "id_token verification failed: " + err.Error()}
	}
	return nil
}

// convertError turns x/oauth2 and transport failures into AuthError or ErrTransport
func convertError(ctx context.Context, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if apperrors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorCode != "" {
			return &AuthError{
				Code:        oauthmodel.ErrorCode(retrieveErr.ErrorCode),
				Description: retrieveErr.ErrorDescription,
				StatusCode:  status,
			}
		}
		if status >= http.StatusInternalServerError {
			return apperrors.Wrapf(apperrors.ErrTransport, "provider returned status %d", status)
		}
		return &AuthError{
			Code:        oauthmodel.ErrorInvalidRequest,
			Description: fmt.Sprintf("provider returned status %d: %s", status, string(retrieveErr.Body)),
			StatusCode:  status,
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
}
