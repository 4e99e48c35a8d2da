package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gamelink/internal/models"
	"gamelink/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLinkService(repos *repository.Repository, codes CodeSource, alerter Alerter) *LinkServiceImpl {
	return NewLinkServiceImpl(repos.PendingLink, repos.LinkedIdentity, codes, alerter, testLinkConfig(), nopLogger{})
}

func TestLinkServiceRequestCodeIsIdempotentWithinTTL(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	svc := newTestLinkService(repos, &sequenceCodes{codes: []string{"482910", "111111"}}, &fakeAlerter{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	first, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "482910", first.Code)
	assert.Equal(t, start.Add(10*time.Minute), first.ExpiresAt)

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	second, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
}

func TestLinkServiceRequestCodeAfterExpiryIssuesNewCode(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	svc := newTestLinkService(repos, &sequenceCodes{codes: []string{"482910", "111111"}}, &fakeAlerter{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(11 * time.Minute) }
	renewed, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "111111", renewed.Code)
}

func TestLinkServiceRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	svc := newTestLinkService(repos, &sequenceCodes{codes: []string{"482910", "482910", "555555"}}, &fakeAlerter{})

	_, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)

	link, err := svc.RequestCode(ctx, "D2")
	require.NoError(t, err)
	assert.Equal(t, "555555", link.Code)
	assert.Equal(t, "D2", link.RequesterID)
}

func TestLinkServiceAlertsWhenCodeSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	alerter := &fakeAlerter{}
	codes := &sequenceCodes{codes: []string{"000001", "000001", "000001", "000001", "000001", "000001"}}
	svc := newTestLinkService(repos, codes, alerter)

	_, err := svc.RequestCode(ctx, "D1")
	require.NoError(t, err)

	_, err = svc.RequestCode(ctx, "D2")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Len(t, alerter.alerts, 1)
}

func TestLinkServiceRejectsLinkedRequester(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	require.NoError(t, repos.LinkedIdentity.Create(ctx, &models.LinkedIdentity{
		EntityID: "77", RequesterID: "D1", Username: "Aria", LinkedAt: time.Now(),
	}))
	svc := newTestLinkService(repos, &sequenceCodes{codes: []string{"482910"}}, &fakeAlerter{})

	_, err := svc.RequestCode(ctx, "D1")
	assert.ErrorIs(t, err, repository.ErrAlreadyLinked)

	linked, err := svc.GetLinkedIdentity(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Aria", linked.Username)
}

func TestLinkServicePropagatesGeneratorFailure(t *testing.T) {
	svc := newTestLinkService(repository.NewMemoryRepository(), &sequenceCodes{}, &fakeAlerter{})

	_, err := svc.RequestCode(context.Background(), "D1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCodeSpaceExhausted))
}

func TestLinkServiceConcurrentRequestsKeepOneCodePerRequester(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepository()
	svc := newTestLinkService(repos, NewCodeGenerator(4), &fakeAlerter{})

	const (
		requesters = 20
		repeats    = 8
	)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]map[string]struct{})
	)
	for r := 0; r < requesters; r++ {
		requesterID := fmt.Sprintf("D%d", r)
		codes[requesterID] = make(map[string]struct{})
		for n := 0; n < repeats; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				link, err := svc.RequestCode(ctx, requesterID)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				codes[requesterID][link.Code] = struct{}{}
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	owners := make(map[string]string)
	for requesterID, issued := range codes {
		require.Len(t, issued, 1, "requester %s got several codes", requesterID)
		for code := range issued {
			if other, dup := owners[code]; dup {
				t.Fatalf("code %s issued to both %s and %s", code, other, requesterID)
			}
			owners[code] = requesterID

			pending, err := repos.PendingLink.FindByCode(ctx, code, time.Now())
			require.NoError(t, err)
			assert.Equal(t, requesterID, pending.RequesterID)
		}
	}
}
