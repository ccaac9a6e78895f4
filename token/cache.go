package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"golang.org/x/sync/singleflight"
)

// Refresher exchanges a refresh token for a new token
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (Token, error)
}

// refreshTimeout bounds a shared provider refresh
const refreshTimeout = 30 * time.Second

// Cache holds the most recently obtained token per client id
type Cache struct {
	mu     sync.RWMutex
	tokens map[string]Token
	// refreshes for the same client share one provider call so the
	// rotated refresh token is never spent twice
	refreshes singleflight.Group
}

func NewCache() *Cache {
	return &Cache{
		tokens: make(map[string]Token),
	}
}

// Get returns the cached token for the client
func (c *Cache) Get(clientID string) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tokens[clientID]
	return t, ok
}

// Set replaces the cached token for the client
func (c *Cache) Set(clientID string, t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[clientID] = t
}

// Delete drops the cached token for the client
func (c *Cache) Delete(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tokens, clientID)
}

// Refresh exchanges the cached refresh token and replaces the cached token with the result.
// When the exchange fails the cache is left as it was.
func (c *Cache) Refresh(ctx context.Context, key string, refresher Refresher) (Token, error) {
	return c.share(ctx, key, func(ctx context.Context) (Token, error) {
		current, ok := c.Get(key)
		if !ok || current.RefreshToken == "" {
			return Token{}, fmt.Errorf("%w: %w for client %s", apperrors.ErrAuthorization, apperrors.ErrNoToken, key)
		}
		return c.exchange(ctx, key, current.RefreshToken, refresher)
	})
}

// RefreshWith exchanges a refresh token supplied by the caller instead of the cached one.
// The cache is only written when the exchange succeeds. An empty refreshToken is Refresh.
func (c *Cache) RefreshWith(ctx context.Context, key, refreshToken string, refresher Refresher) (Token, error) {
	if refreshToken == "" {
		return c.Refresh(ctx, key, refresher)
	}
	return c.share(ctx, key+"\x00"+refreshToken, func(ctx context.Context) (Token, error) {
		return c.exchange(ctx, key, refreshToken, refresher)
	})
}

func (c *Cache) exchange(ctx context.Context, key, refreshToken string, refresher Refresher) (Token, error) {
	fresh, err := refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		return Token{}, fmt.Errorf("failed to refresh token: %w", err)
	}

	c.Set(key, fresh)
	return fresh, nil
}

// share runs fn once for all concurrent callers of flightKey. fn runs detached from the
// caller that started it, bounded by refreshTimeout; each caller still returns as soon
// as its own ctx is done.
func (c *Cache) share(ctx context.Context, flightKey string, fn func(context.Context) (Token, error)) (Token, error) {
	ch := c.refreshes.DoChan(flightKey, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return fn(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, ctx.Err()
	}
}
