package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/assertion"
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// assertionTTL is how long a signed assertion is accepted by the provider
const assertionTTL = time.Hour

// JWTAssertionClient exchanges a signed assertion for an access token (RFC 7523).
// Every call signs a fresh assertion; nothing is cached.
type JWTAssertionClient struct {
	clientID   string
	audience   string
	tokenURL   string
	tokenTTL   time.Duration
	signer     assertion.Signer
	httpClient *http.Client
}

var _ JWTClient = (*JWTAssertionClient)(nil)

type JWTOption func(*JWTAssertionClient)

func WithJWTHTTPClient(httpClient *http.Client) JWTOption {
	return func(c *JWTAssertionClient) { c.httpClient = httpClient }
}

// WithSigner replaces the signer built from the app's private key
func WithSigner(signer assertion.Signer) JWTOption {
	return func(c *JWTAssertionClient) { c.signer = signer }
}

// WithTokenURL sets the token endpoint, e.g. one found by Discover
func WithTokenURL(tokenURL string) JWTOption {
	return func(c *JWTAssertionClient) { c.tokenURL = tokenURL }
}

func NewJWTAssertionClient(app *config.OAuthApp, opts ...JWTOption) (*JWTAssertionClient, error) {
	c := &JWTAssertionClient{
		clientID: app.ClientID,
		audience: app.APIHost(),
		tokenURL: DefaultEndpoint(app).TokenURL,
		tokenTTL: time.Duration(app.TokenTTL) * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.signer == nil {
		keyPair, err := assertion.LoadKeyPairFromPEM(app.PublicKeyID, app.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrConfig, err)
		}
		c.signer = assertion.NewKeyPairSigner(keyPair)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient()
	}
	return c, nil
}

// tokenEndpointResponse covers both the success and the error body of the token endpoint
type tokenEndpointResponse struct {
	AccessToken      string      `json:"access_token"`
	TokenType        string      `json:"token_type"`
	ExpiresIn        json.Number `json:"expires_in"`
	RefreshToken     string      `json:"refresh_token"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (c *JWTAssertionClient) GetAccessToken(ctx context.Context) (token.Token, error) {
	signed, err := c.signer.Sign(assertion.NewClaims(c.clientID, c.audience, assertionTTL))
	if err != nil {
		return token.Token{}, err
	}

	form := url.Values{
		"grant_type":       {string(oauthmodel.JWTBearerGrant)},
		"assertion":        {signed},
		"client_id":        {c.clientID},
		"duration_seconds": {strconv.Itoa(int(c.tokenTTL / time.Second))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return token.Token{}, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return token.Token{}, convertError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: failed to read token response: %v", apperrors.ErrTransport, err)
	}

	var parsed tokenEndpointResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return token.Token{}, fmt.Errorf("%w: failed to decode token response: %v", apperrors.ErrTransport, err)
	}

	switch {
	case parsed.Error != "":
		return token.Token{}, &AuthError{Code: oauthmodel.ErrorCode(parsed.Error), Description: parsed.ErrorDescription, StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusInternalServerError:
		return token.Token{}, apperrors.Wrapf(apperrors.ErrTransport, "provider returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return token.Token{}, &AuthError{Code: oauthmodel.ErrorInvalidRequest, Description: fmt.Sprintf("provider returned status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	case parsed.AccessToken == "":
		return token.Token{}, fmt.Errorf("%w: token response has no access_token", apperrors.ErrTransport)
	}

	expiresIn, err := expiresInSeconds(parsed.ExpiresIn)
	if err != nil {
		log.Warn().Err(err).Str("expires_in", parsed.ExpiresIn.String()).Msg("Ignoring unparseable expires_in")
	}
	tok := token.Token{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    token.ExpiryFromExpiresIn(expiresIn),
		TokenType:    parsed.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = oauthmodel.BearerTokenType
	}
	return tok, nil
}

// expiresInSeconds reads expires_in, accepting fractional values such as 900.0
func expiresInSeconds(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid expires_in %q: %w", n, err)
	}
	return int64(f), nil
}
