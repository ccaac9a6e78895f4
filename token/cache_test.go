package token_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/token"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-1"

type refresherFunc func(ctx context.Context, refreshToken string) (token.Token, error)

func (f refresherFunc) RefreshToken(ctx context.Context, refreshToken string) (token.Token, error) {
	return f(ctx, refreshToken)
}

func testToken(suffix string) token.Token {
	return token.Token{
		AccessToken:  "access-" + suffix,
		RefreshToken: "refresh-" + suffix,
		ExpiresAt:    time.Unix(1735689600, 0),
		TokenType:    "Bearer",
	}
}

func TestCache_GetSet(t *testing.T) {
	c := token.NewCache()

	_, ok := c.Get(testClientID)
	require.False(t, ok)

	c.Set(testClientID, testToken("1"))
	got, ok := c.Get(testClientID)
	require.True(t, ok)
	require.Equal(t, testToken("1"), got)

	c.Set(testClientID, testToken("2"))
	got, _ = c.Get(testClientID)
	require.Equal(t, testToken("2"), got)

	_, ok = c.Get("other-client")
	require.False(t, ok)

	c.Delete(testClientID)
	_, ok = c.Get(testClientID)
	require.False(t, ok)
}

func TestCache_RefreshWithoutToken(t *testing.T) {
	c := token.NewCache()
	called := false

	_, err := c.Refresh(context.Background(), testClientID, refresherFunc(func(context.Context, string) (token.Token, error) {
		called = true
		return token.Token{}, nil
	}))
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrNoToken))
	require.True(t, apperrors.Is(err, apperrors.ErrAuthorization))
	require.False(t, called)
}

func TestCache_RefreshReplacesToken(t *testing.T) {
	c := token.NewCache()
	c.Set(testClientID, testToken("1"))

	var used string
	fresh, err := c.Refresh(context.Background(), testClientID, refresherFunc(func(_ context.Context, rt string) (token.Token, error) {
		used = rt
		return testToken("2"), nil
	}))
	require.NoError(t, err)
	require.Equal(t, "refresh-1", used)
	require.Equal(t, testToken("2"), fresh)

	cached, _ := c.Get(testClientID)
	require.Equal(t, testToken("2"), cached)
}

func TestCache_RefreshFailureKeepsToken(t *testing.T) {
	c := token.NewCache()
	c.Set(testClientID, testToken("1"))

	_, err := c.Refresh(context.Background(), testClientID, refresherFunc(func(context.Context, string) (token.Token, error) {
		return token.Token{}, errors.New("invalid_grant")
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid_grant")

	cached, _ := c.Get(testClientID)
	require.Equal(t, testToken("1"), cached)
}

func TestCache_ConcurrentRefreshSharesOneCall(t *testing.T) {
	c := token.NewCache()
	c.Set(testClientID, testToken("1"))

	var calls atomic.Int32
	release := make(chan struct{})
	refresher := refresherFunc(func(_ context.Context, rt string) (token.Token, error) {
		calls.Add(1)
		<-release
		return testToken("2"), nil
	})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]token.Token, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Refresh(context.Background(), testClientID, refresher)
		}(i)
	}

	// Give every caller time to join the in-flight refresh
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for i, tok := range results {
		require.NoError(t, errs[i])
		require.Equal(t, testToken("2"), tok)
	}
}

func TestCache_RefreshWith(t *testing.T) {
	t.Run("success replaces the cached token", func(t *testing.T) {
		c := token.NewCache()
		c.Set(testClientID, testToken("1"))

		var used string
		fresh, err := c.RefreshWith(context.Background(), testClientID, "posted", refresherFunc(func(_ context.Context, rt string) (token.Token, error) {
			used = rt
			return testToken("2"), nil
		}))
		require.NoError(t, err)
		require.Equal(t, "posted", used)
		require.Equal(t, testToken("2"), fresh)

		cached, _ := c.Get(testClientID)
		require.Equal(t, testToken("2"), cached)
	})

	t.Run("failure leaves the cache untouched", func(t *testing.T) {
		c := token.NewCache()
		c.Set(testClientID, testToken("1"))

		_, err := c.RefreshWith(context.Background(), testClientID, "bogus", refresherFunc(func(context.Context, string) (token.Token, error) {
			return token.Token{}, errors.New("invalid_grant")
		}))
		require.Error(t, err)

		cached, ok := c.Get(testClientID)
		require.True(t, ok)
		require.Equal(t, testToken("1"), cached)
	})

	t.Run("failure with nothing cached stores nothing", func(t *testing.T) {
		c := token.NewCache()

		_, err := c.RefreshWith(context.Background(), testClientID, "bogus", refresherFunc(func(context.Context, string) (token.Token, error) {
			return token.Token{}, errors.New("invalid_grant")
		}))
		require.Error(t, err)

		_, ok := c.Get(testClientID)
		require.False(t, ok)
	})

	t.Run("empty token uses the cached one", func(t *testing.T) {
		c := token.NewCache()
		c.Set(testClientID, testToken("1"))

		var used string
		_, err := c.RefreshWith(context.Background(), testClientID, "", refresherFunc(func(_ context.Context, rt string) (token.Token, error) {
			used = rt
			return testToken("2"), nil
		}))
		require.NoError(t, err)
		require.Equal(t, "refresh-1", used)
	})
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := token.NewCache()
	c.Set(testClientID, testToken("1"))

	started := make(chan struct{})
	var startOnce sync.Once
	release := make(chan struct{})
	refresher := refresherFunc(func(ctx context.Context, _ string) (token.Token, error) {
		startOnce.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return token.Token{}, err
		}
		return testToken("2"), nil
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctxA, testClientID, refresher)
		errA <- err
	}()
	<-started

	type result struct {
		tok token.Token
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tok, err := c.Refresh(context.Background(), testClientID, refresher)
		resB <- result{tok, err}
	}()

	// A gives up while the shared refresh is still in flight
	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	// Let B join the flight before it completes
	time.Sleep(20 * time.Millisecond)
	close(release)

	b := <-resB
	require.NoError(t, b.err)
	require.Equal(t, testToken("2"), b.tok)

	cached, _ := c.Get(testClientID)
	require.Equal(t, testToken("2"), cached)
}
