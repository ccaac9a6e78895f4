package oauthmodel

// GrantType represents the OAuth 2.0 grant type sent to the provider's token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Used in: web and PKCE flows, at /callback
	// Token request includes: code, client_id, redirect_uri, client_secret (web) or code_verifier (PKCE)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Used in: /refresh_token for web, PKCE and device flows
	// Behavior: the provider normally rotates the refresh token on every use
	RefreshTokenGrant GrantType = "refresh_token"

	// DeviceCodeGrant polls for the token of a device authorization (RFC 8628).
	// Used in: device flow initial authorization
	DeviceCodeGrant GrantType = "urn:ietf:params:oauth:grant-type:device_code"

	// JWTBearerGrant exchanges a signed assertion for an access token (RFC 7523).
	// Used in: JWT flow, every /token call
	// Returns: access_token only (no refresh_token)
	JWTBearerGrant GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// ErrorCode is the "error" field of an OAuth 2.0 error response.
type ErrorCode string

const (
	// ErrorAccessDenied means the user declined the authorization request.
	// Device flow: the authorization is restarted with a new device code.
	ErrorAccessDenied ErrorCode = "access_denied"

	// ErrorExpiredToken means the device code expired before the user approved it.
	// Device flow: the authorization is restarted with a new device code.
	ErrorExpiredToken ErrorCode = "expired_token"

	// ErrorAuthorizationPending and ErrorSlowDown are handled while polling and never surface.
	ErrorAuthorizationPending ErrorCode = "authorization_pending"
	ErrorSlowDown             ErrorCode = "slow_down"

	ErrorInvalidGrant   ErrorCode = "invalid_grant"
	ErrorInvalidClient  ErrorCode = "invalid_client"
	ErrorInvalidRequest ErrorCode = "invalid_request"
)

// Retryable reports whether a device authorization should be started over after this error.
func (c ErrorCode) Retryable() bool {
	return c == ErrorAccessDenied || c == ErrorExpiredToken
}

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// The only method this client generates.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// BearerTokenType is the token_type reported to callers when the provider omits it.
const BearerTokenType = "Bearer"
