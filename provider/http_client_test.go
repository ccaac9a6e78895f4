package provider_test

import (
	"net/http"
	"net/url"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth-quickstart/provider"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := provider.NewHTTPClient(provider.WithRetryWait(time.Millisecond, 5*time.Millisecond))
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(3), calls.Load())
}

func TestNewHTTPClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client := provider.NewHTTPClient(provider.WithRetryWait(time.Millisecond, 5*time.Millisecond))
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestNewHTTPClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := provider.NewHTTPClient(provider.WithMaxRetries(1), provider.WithRetryWait(time.Millisecond, 5*time.Millisecond))
	_, err := client.Get(srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestNewHTTPClient_DoesNotResendAnsweredPosts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := provider.NewHTTPClient(provider.WithRetryWait(time.Millisecond, 5*time.Millisecond))
	resp, err := client.PostForm(srv.URL, url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"rt-1"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}
