package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LeveledZerolog adapts zerolog to retryablehttp.LeveledLogger
type LeveledZerolog struct {
	inner zerolog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledZerolog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn().Fields(keysAndValues).Msg(msg)
}

func (l LeveledZerolog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn().Fields(keysAndValues).Msg(msg)
}

func (l LeveledZerolog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Info().Fields(keysAndValues).Msg(msg)
}

func (l LeveledZerolog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debug().Fields(keysAndValues).Msg(msg)
}

type HTTPOption func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries for the HTTP client.
func WithMaxRetries(maxRetries int) HTTPOption {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
	}
}

// WithRetryWait sets the minimum and maximum wait between retries.
func WithRetryWait(waitMin, waitMax time.Duration) HTTPOption {
	return func(client *retryablehttp.Client) {
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// retryPolicy is retryablehttp's default policy, except that a POST the provider answered
// is never sent again: a token request may already have spent a code or a rotated refresh token.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.Request != nil && resp.Request.Method == http.MethodPost {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// NewHTTPClient returns the client used for every provider call. It retries connection
// errors, and for non-POST requests 5xx responses (except 501) and 429s, logging
// intermediate failures at WARN.
// Requests carry no credentials in the log output, only method and URL.
func NewHTTPClient(opts ...HTTPOption) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.CheckRetry = retryPolicy
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledZerolog{inner: log.With().Str("component", "provider-http").Logger()})
	for _, opt := range opts {
		opt(retryClient)
	}
	client := retryClient.StandardClient()
	client.Timeout = 20 * time.Second
	return client
}
