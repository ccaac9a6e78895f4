// Package device runs the blocking initial authorization of the device flow.
package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/oauthmodel"
	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/rs/zerolog/log"
)

// DefaultMaxAttempts bounds how many device codes are requested before giving up
const DefaultMaxAttempts = 3

// State of the device authorization
type State int

const (
	AwaitingUserAuthorization State = iota
	Authorized
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingUserAuthorization:
		return "awaiting_user_authorization"
	case Authorized:
		return "authorized"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Authorizer obtains the first token of the device flow and stores it in the cache
type Authorizer struct {
	client   provider.DeviceClient
	cache    *token.Cache
	clientID string

	MaxAttempts int
	// NewBackOff returns the wait policy between attempts
	NewBackOff func() backoff.BackOff
	Out        io.Writer

	mu    sync.RWMutex
	state State
}

func NewAuthorizer(client provider.DeviceClient, cache *token.Cache, clientID string) *Authorizer {
	return &Authorizer{
		client:      client,
		cache:       cache,
		clientID:    clientID,
		MaxAttempts: DefaultMaxAttempts,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 10 * time.Second
			return b
		},
		Out:   os.Stdout,
		state: AwaitingUserAuthorization,
	}
}

func (a *Authorizer) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Authorizer) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// Authorize requests a device code, shows the user where to approve it and waits for the
// token. A denied or expired authorization starts over with a new device code, up to
// MaxAttempts times; any other error is fatal.
func (a *Authorizer) Authorize(ctx context.Context) (token.Token, error) {
	a.setState(AwaitingUserAuthorization)

	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(a.NewBackOff(), uint64(attempts-1)), ctx)

	attempt := 0
	tok, err := backoff.RetryWithData(func() (token.Token, error) {
		attempt++
		tok, err := a.attempt(ctx)
		if err == nil {
			return tok, nil
		}
		if code, ok := provider.ErrorCode(err); ok && code.Retryable() {
			log.Warn().Str("error", string(code)).Int("attempt", attempt).Int("max_attempts", attempts).Msg("device authorization not granted, requesting a new code")
			return token.Token{}, err
		}
		return token.Token{}, backoff.Permanent(err)
	}, policy)
	if err != nil {
		a.setState(Failed)
		return token.Token{}, apperrors.Wrapf(err, "device authorization failed after %d attempt(s)", attempt)
	}

	a.cache.Set(a.clientID, tok)
	a.setState(Authorized)
	return tok, nil
}

func (a *Authorizer) attempt(ctx context.Context) (token.Token, error) {
	code, err := a.client.GetDeviceCode(ctx)
	if err != nil {
		return token.Token{}, err
	}
	a.prompt(code)
	return a.client.GetDeviceToken(ctx, code)
}

func (a *Authorizer) prompt(code oauthmodel.DeviceCode) {
	if a.Out == nil {
		return
	}
	fmt.Fprintf(a.Out, "Please visit the following url to authorize the app: %s\n", code.VerificationURL)
	fmt.Fprintf(a.Out, "User code: %s\n", code.UserCode)
}
