package provider

import (
	"github.com/jrsteele09/go-oauth-quickstart/internal/config"
	"golang.org/x/oauth2"
)

const (
	authorizePath  = "/api/permission/oauth2/authorize"
	tokenPath      = "/api/permission/oauth2/token"
	deviceCodePath = "/api/permission/oauth2/device/code"
	usersMePath    = "/v1/users/me"
)

// DefaultEndpoint returns the provider's OAuth endpoints for an app. The consent page
// lives on the www host; tokens and device codes are issued by the API host.
func DefaultEndpoint(app *config.OAuthApp) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:       app.CozeWWWBase + authorizePath,
		TokenURL:      app.CozeAPIBase + tokenPath,
		DeviceAuthURL: app.CozeAPIBase + deviceCodePath,
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

// UsersMeURL is the user info endpoint on the API host
func UsersMeURL(app *config.OAuthApp) string {
	return app.CozeAPIBase + usersMePath
}
