package device_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jrsteele09/go-oauth-quickstart/device"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/jrsteele09/go-oauth-quickstart/provider/providerfake"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/stretchr/testify/require"
)

const clientID = "device-client"

func newAuthorizer(fake *providerfake.FakeProvider, cache *token.Cache) (*device.Authorizer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	a := device.NewAuthorizer(fake, cache, clientID)
	a.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	a.Out = out
	return a, out
}

func tok(suffix string) token.Token {
	return token.Token{AccessToken: "at-" + suffix, RefreshToken: "rt-" + suffix, ExpiresAt: time.Unix(1735689600, 0), TokenType: "Bearer"}
}

func TestAuthorizer_RetriesAfterDenial(t *testing.T) {
	fake := providerfake.NewFakeProvider(token.Token{})
	fake.QueueDevice(token.Token{}, &provider.AuthError{Code: oauthmodel.ErrorAccessDenied})
	fake.QueueDevice(tok("2"), nil)

	cache := token.NewCache()
	a, out := newAuthorizer(fake, cache)
	require.Equal(t, device.AwaitingUserAuthorization, a.State())

	got, err := a.Authorize(context.Background())
	require.NoError(t, err)
	require.Equal(t, tok("2"), got)
	require.Equal(t, device.Authorized, a.State())
	require.Equal(t, 2, fake.DeviceCodes)

	cached, ok := cache.Get(clientID)
	require.True(t, ok)
	require.Equal(t, tok("2"), cached)

	require.Contains(t, out.String(), "https://provider.test/device")
	require.Contains(t, out.String(), "USER-0001")
	require.Contains(t, out.String(), "USER-0002")
}

func TestAuthorizer_ExpiredCodeIsRetried(t *testing.T) {
	fake := providerfake.NewFakeProvider(token.Token{})
	fake.QueueDevice(token.Token{}, &provider.AuthError{Code: oauthmodel.ErrorExpiredToken})
	fake.QueueDevice(tok("1"), nil)

	a, _ := newAuthorizer(fake, token.NewCache())
	_, err := a.Authorize(context.Background())
	require.NoError(t, err)
	require.Equal(t, device.Authorized, a.State())
}

func TestAuthorizer_GivesUpAfterMaxAttempts(t *testing.T) {
	fake := providerfake.NewFakeProvider(token.Token{})
	for i := 0; i < 5; i++ {
		fake.QueueDevice(token.Token{}, &provider.AuthError{Code: oauthmodel.ErrorAccessDenied})
	}

	cache := token.NewCache()
	a, _ := newAuthorizer(fake, cache)
	a.MaxAttempts = 3

	_, err := a.Authorize(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrAuthorization))
	require.Equal(t, device.Failed, a.State())
	require.Equal(t, 3, fake.DevicePolls)

	_, ok := cache.Get(clientID)
	require.False(t, ok)
}

func TestAuthorizer_FatalErrorStops(t *testing.T) {
	fake := providerfake.NewFakeProvider(token.Token{})
	fake.QueueDevice(token.Token{}, &provider.AuthError{Code: oauthmodel.ErrorInvalidClient})
	fake.QueueDevice(tok("never"), nil)

	a, _ := newAuthorizer(fake, token.NewCache())
	_, err := a.Authorize(context.Background())
	require.Error(t, err)
	require.Equal(t, device.Failed, a.State())
	require.Equal(t, 1, fake.DevicePolls)
}

func TestAuthorizer_DeviceCodeFailure(t *testing.T) {
	fake := providerfake.NewFakeProvider(token.Token{})
	fake.DeviceCodeErr = apperrors.Wrapf(apperrors.ErrTransport, "connection refused")

	a, _ := newAuthorizer(fake, token.NewCache())
	_, err := a.Authorize(context.Background())
	require.True(t, errors.Is(err, apperrors.ErrTransport))
	require.Equal(t, device.Failed, a.State())
	require.Equal(t, 0, fake.DevicePolls)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "awaiting_user_authorization", device.AwaitingUserAuthorization.String())
	require.Equal(t, "authorized", device.Authorized.String())
	require.Equal(t, "failed", device.Failed.String())
}
