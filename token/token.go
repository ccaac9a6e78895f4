package token

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DisplayLayout is how expiry times are shown on pages and the console
const DisplayLayout = "2006-01-02 15:04:05"

// expires_in values above this are Unix timestamps rather than lifetimes in seconds
const absoluteExpiryThreshold = 1_000_000_000

// Token is the credential obtained from the provider. It is only ever replaced as a
// whole, never patched field by field.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	TokenType    string
}

// Expired reports whether the access token is past its expiry. A zero expiry never expires.
func (t Token) Expired() bool {
	return !t.ExpiresAt.IsZero() && !NowTimeFunc().Before(t.ExpiresAt)
}

// ExpiresAtDisplay renders the expiry as "<unix> (<local time>)"
func (t Token) ExpiresAtDisplay() string {
	if t.ExpiresAt.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.ExpiresAt.Unix(), 10) + " (" + t.ExpiresAt.Local().Format(DisplayLayout) + ")"
}

// Response converts the token to the JSON body of the token endpoints
func (t Token) Response(includeRefresh bool) oauthmodel.TokenResponse {
	resp := oauthmodel.TokenResponse{
		TokenType:   t.TokenType,
		AccessToken: t.AccessToken,
	}
	if resp.TokenType == "" {
		resp.TokenType = oauthmodel.BearerTokenType
	}
	if !t.ExpiresAt.IsZero() {
		resp.ExpiresIn = t.ExpiresAt.Unix()
	}
	if includeRefresh {
		resp.RefreshToken = t.RefreshToken
	}
	return resp
}

// FromOAuth2 converts an x/oauth2 token. Providers that report expires_in as an absolute
// Unix timestamp keep that timestamp as the expiry.
func FromOAuth2(t *oauth2.Token) Token {
	if t == nil {
		return Token{}
	}
	tok := Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
		TokenType:    t.Type(),
	}
	if abs, ok := AbsoluteExpiry(t.Extra("expires_in")); ok {
		tok.ExpiresAt = abs
	}
	return tok
}

// ExpiryFromExpiresIn interprets a raw expires_in value, either a lifetime or a timestamp
func ExpiryFromExpiresIn(expiresIn int64) time.Time {
	switch {
	case expiresIn <= 0:
		return time.Time{}
	case expiresIn > absoluteExpiryThreshold:
		return time.Unix(expiresIn, 0)
	default:
		return NowTimeFunc().Add(time.Duration(expiresIn) * time.Second)
	}
}

// AbsoluteExpiry returns the expiry when raw holds an absolute Unix timestamp
func AbsoluteExpiry(raw any) (time.Time, bool) {
	var v int64
	switch n := raw.(type) {
	case float64:
		v = int64(n)
	case int64:
		v = n
	case int:
		v = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return time.Time{}, false
		}
		v = i
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		v = i
	default:
		return time.Time{}, false
	}
	if v <= absoluteExpiryThreshold {
		return time.Time{}, false
	}
	return time.Unix(v, 0), true
}
