package provider

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/token"
)

// AuthURL is where the user is sent to authorize the application
type AuthURL struct {
	URL string
	// CodeVerifier is set for PKCE clients and must be presented when the code is exchanged
	CodeVerifier string
}

// Refresher exchanges a refresh token for a new token. It is what token.Cache refreshes with.
type Refresher = token.Refresher

// WebClient drives the authorization code flow, with or without PKCE
type WebClient interface {
	Refresher
	GenOAuthURL(state string) (AuthURL, error)
	GetAccessToken(ctx context.Context, code, codeVerifier string) (token.Token, error)
}

// DeviceClient drives the device authorization flow
type DeviceClient interface {
	Refresher
	GetDeviceCode(ctx context.Context) (oauthmodel.DeviceCode, error)
	// GetDeviceToken polls until the user approves, denies or the code expires
	GetDeviceToken(ctx context.Context, code oauthmodel.DeviceCode) (token.Token, error)
}

// JWTClient obtains access tokens with a signed assertion
type JWTClient interface {
	GetAccessToken(ctx context.Context) (token.Token, error)
}

// UserInfoClient looks up the account an access token belongs to
type UserInfoClient interface {
	UsersMe(ctx context.Context, accessToken string) (oauthmodel.User, error)
}

// AuthError is an OAuth error response from the provider (denied, expired or invalid grants).
// It matches apperrors.ErrAuthorization.
type AuthError struct {
	Code        oauthmodel.ErrorCode
	Description string
	StatusCode  int
}

func (e *AuthError) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *AuthError) Is(target error) bool {
	return target == apperrors.ErrAuthorization
}

// ErrorCode returns the OAuth error code carried by err, if any
func ErrorCode(err error) (oauthmodel.ErrorCode, bool) {
	var authErr *AuthError
	if apperrors.As(err, &authErr) {
		return authErr.Code, true
	}
	return "", false
}
