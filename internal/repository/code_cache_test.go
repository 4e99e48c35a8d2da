package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"gamelink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	PendingLink
	finds int
}

func (s *countingStore) FindByCode(ctx context.Context, code string, now time.Time) (*models.PendingLink, error) {
	s.finds++
	return s.PendingLink.FindByCode(ctx, code, now)
}

func TestCodeCacheExpiresEntries(t *testing.T) {
	cache := NewCodeCache()
	cache.Set(models.PendingLink{RequesterID: "D1", Code: "482910", ExpiresAt: baseTime.Add(ttl)})

	_, ok := cache.Get("482910", baseTime)
	assert.True(t, ok)
	_, ok = cache.Get("482910", baseTime.Add(ttl))
	assert.False(t, ok)

	cache.Prune(baseTime.Add(ttl))
	assert.Zero(t, cache.Size())
}

func TestCachedPendingLinkServesReadsFromCache(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{PendingLink: NewPendingLinkMemory()}
	repo := NewCachedPendingLink(store)

	_, err := repo.RequestCode(ctx, "D1", "482910", baseTime, ttl)
	require.NoError(t, err)

	found, err := repo.FindByCode(ctx, "482910", baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "D1", found.RequesterID)
	assert.Zero(t, store.finds)
}

func TestCachedPendingLinkConsumeGoesToStore(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{PendingLink: NewPendingLinkMemory()}
	repo := NewCachedPendingLink(store)

	_, err := repo.RequestCode(ctx, "D1", "482910", baseTime, ttl)
	require.NoError(t, err)

	_, err = repo.Consume(ctx, "482910", "D1", baseTime.Add(time.Second))
	require.NoError(t, err)
	_, err = repo.Consume(ctx, "482910", "D1", baseTime.Add(time.Second))
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	_, err = repo.FindByCode(ctx, "482910", baseTime.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.finds)
}

func TestCodeCacheFillRejectedAfterInvalidate(t *testing.T) {
	cache := NewCodeCache()
	link := models.PendingLink{RequesterID: "D1", Code: "482910", ExpiresAt: baseTime.Add(ttl)}

	generation := cache.Generation()
	cache.Invalidate("482910")

	assert.False(t, cache.Fill(link, generation))
	_, ok := cache.Get("482910", baseTime)
	assert.False(t, ok)

	assert.True(t, cache.Fill(link, cache.Generation()))
}

// pausingStore blocks its first FindByCode after the store read until
// release is closed.
type pausingStore struct {
	PendingLink
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (s *pausingStore) FindByCode(ctx context.Context, code string, now time.Time) (*models.PendingLink, error) {
	link, err := s.PendingLink.FindByCode(ctx, code, now)
	s.once.Do(func() {
		close(s.read)
		<-s.release
	})
	return link, err
}

func TestCachedPendingLinkConsumeDuringStoreReadIsNotRefilled(t *testing.T) {
	ctx := context.Background()
	store := NewPendingLinkMemory()
	_, err := store.RequestCode(ctx, "D1", "482910", baseTime, ttl)
	require.NoError(t, err)

	paused := &pausingStore{PendingLink: store, read: make(chan struct{}), release: make(chan struct{})}
	repo := NewCachedPendingLink(paused)

	done := make(chan struct{})
	go func() {
		defer close(done)
		found, err := repo.FindByCode(ctx, "482910", baseTime.Add(time.Second))
		if assert.NoError(t, err) {
			assert.Equal(t, "D1", found.RequesterID)
		}
	}()

	<-paused.read
	_, err = repo.Consume(ctx, "482910", "D1", baseTime.Add(time.Second))
	require.NoError(t, err)
	close(paused.release)
	<-done

	_, err = repo.FindByCode(ctx, "482910", baseTime.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, repo.cache.Size())
}

func TestCachedPendingLinkConsumeRequiresOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedPendingLink(NewPendingLinkMemory())

	_, err := repo.RequestCode(ctx, "D2", "482910", baseTime, ttl)
	require.NoError(t, err)

	_, err = repo.Consume(ctx, "482910", "D1", baseTime.Add(time.Second))
	assert.ErrorIs(t, err, ErrAlreadyConsumed)

	found, err := repo.FindByCode(ctx, "482910", baseTime.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "D2", found.RequesterID)
}
