package oauthmodel

import "time"

// TokenResponse is the JSON body returned by /refresh_token, /token and AJAX /callback requests.
type TokenResponse struct {
	// TokenType indicates how to use the access token.
	// Example: "Bearer"
	TokenType string `json:"token_type,omitempty"`

	// AccessToken is the token used to call the provider's API.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// ExpiresIn is the absolute expiry of the access token as a Unix timestamp (seconds).
	// Example: 1735689600
	// Note: this follows the provider convention of an absolute time, not a lifetime
	ExpiresIn int64 `json:"expires_in"`

	// RefreshToken is only included where the caller owns it (AJAX /callback).
	// /refresh_token keeps it server-side.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrorResponse is the JSON body returned by the JSON endpoints on failure.
type ErrorResponse struct {
	// Error is a short machine readable code.
	// Example: "unauthorized", "server_error"
	Error string `json:"error"`

	// ErrorDescription is the free-text message.
	// Example: "Error getting access token: invalid_grant"
	ErrorDescription string `json:"error_description,omitempty"`
}

// DeviceCode is the result of starting a device authorization.
type DeviceCode struct {
	// DeviceCode is polled by the quickstart; never shown to the user.
	DeviceCode string

	// UserCode is the short code the user types on the verification page.
	// Example: "WDJB-MJHT"
	UserCode string

	// VerificationURL is where the user approves the device.
	// When the provider returns a complete URI it already embeds the user code.
	VerificationURL string

	// Interval is the minimum polling interval in seconds.
	Interval int64

	// Expiry is when the device code stops being accepted.
	// Zero when the provider did not report a lifetime.
	Expiry time.Time
}

// User is the account the access token belongs to, as returned by /users_me.
type User struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	NickName  string `json:"nick_name"`
	AvatarURL string `json:"avatar_url"`
}

// RefreshRequest is the optional JSON body of POST /refresh_token.
type RefreshRequest struct {
	// RefreshToken replaces the server-side refresh token before the exchange.
	// When empty the cached refresh token is used.
	RefreshToken string `json:"refresh_token"`
}
