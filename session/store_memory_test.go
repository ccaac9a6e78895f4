package session_test

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-oauth-quickstart/internal/errors"
	"github.com/jrsteele09/go-oauth-quickstart/session"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := session.NewMemoryStore(10, time.Minute, nil)

	_, err := store.Get("s1")
	require.True(t, apperrors.Is(err, apperrors.ErrSessionNotFound))

	require.NoError(t, store.Put("s1", session.Data{State: "state-1", CodeVerifier: "verifier-1"}))
	data, err := store.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "state-1", data.State)
	require.Equal(t, "verifier-1", data.CodeVerifier)
	require.False(t, data.CreatedAt.IsZero())

	require.NoError(t, store.Delete("s1"))
	_, err = store.Get("s1")
	require.True(t, apperrors.Is(err, apperrors.ErrSessionNotFound))

	require.Error(t, store.Put("", session.Data{}))
}

func TestMemoryStore_OnEvict(t *testing.T) {
	var evicted []string
	store := session.NewMemoryStore(1, time.Minute, func(id string) { evicted = append(evicted, id) })

	require.NoError(t, store.Put("s1", session.Data{}))
	require.NoError(t, store.Put("s2", session.Data{}))
	require.Equal(t, []string{"s1"}, evicted)

	require.NoError(t, store.Delete("s2"))
	require.Equal(t, []string{"s1", "s2"}, evicted)
}

func TestMemoryStore_Update(t *testing.T) {
	store := session.NewMemoryStore(10, time.Minute, nil)

	data, err := store.Update("s1", func(d *session.Data) error {
		d.State = "state-1"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "state-1", data.State)

	_, err = store.Update("s1", func(d *session.Data) error {
		d.State = "discarded"
		return errors.New("rejected")
	})
	require.Error(t, err)

	data, err = store.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "state-1", data.State)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := session.NewMemoryStore(10, 20*time.Millisecond, nil)
	require.NoError(t, store.Put("s1", session.Data{State: "state-1"}))

	require.Eventually(t, func() bool {
		_, err := store.Get("s1")
		return apperrors.Is(err, apperrors.ErrSessionNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	store := session.NewMemoryStore(2, time.Minute, nil)
	require.NoError(t, store.Put("s1", session.Data{}))
	require.NoError(t, store.Put("s2", session.Data{}))
	require.NoError(t, store.Put("s3", session.Data{}))

	_, err := store.Get("s1")
	require.Error(t, err)
	_, err = store.Get("s3")
	require.NoError(t, err)
}
