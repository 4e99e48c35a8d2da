package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"gamelink/internal/models"
)

// PendingLinkMemory holds pending links in process. All operations run under
// one mutex, which makes them atomic for a single engine instance only.
type PendingLinkMemory struct {
	mu          sync.Mutex
	byRequester map[string]models.PendingLink
	byCode      map[string]string // code -> requester ID
}

func NewPendingLinkMemory() *PendingLinkMemory {
	return &PendingLinkMemory{
		byRequester: make(map[string]models.PendingLink),
		byCode:      make(map[string]string),
	}
}

func (r *PendingLinkMemory) RequestCode(_ context.Context, requesterID, code string, now time.Time, ttl time.Duration) (*models.PendingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byRequester[requesterID]; ok {
		if existing.Active(now) {
			return &existing, nil
		}
		delete(r.byCode, existing.Code)
		delete(r.byRequester, requesterID)
	}
	if holder, taken := r.lookup(code); taken {
		if holder.Active(now) {
			return nil, ErrCodeTaken
		}
		// an expired, unswept holder does not reserve the code
		delete(r.byCode, code)
		delete(r.byRequester, holder.RequesterID)
	}

	link := models.PendingLink{
		RequesterID: requesterID,
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	r.byRequester[requesterID] = link
	r.byCode[code] = requesterID
	return &link, nil
}

func (r *PendingLinkMemory) FindByCode(_ context.Context, code string, now time.Time) (*models.PendingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.lookup(code)
	if !ok || !link.Active(now) {
		return nil, ErrNotFound
	}
	return &link, nil
}

func (r *PendingLinkMemory) Consume(_ context.Context, code, requesterID string, now time.Time) (*models.PendingLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.lookup(code)
	if !ok || !link.Active(now) || link.RequesterID != requesterID {
		return nil, ErrAlreadyConsumed
	}
	delete(r.byCode, code)
	delete(r.byRequester, link.RequesterID)
	return &link, nil
}

func (r *PendingLinkMemory) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var swept int64
	for requesterID, link := range r.byRequester {
		if !link.Active(now) {
			delete(r.byRequester, requesterID)
			delete(r.byCode, link.Code)
			swept++
		}
	}
	return swept, nil
}

func (r *PendingLinkMemory) lookup(code string) (models.PendingLink, bool) {
	requesterID, ok := r.byCode[code]
	if !ok {
		return models.PendingLink{}, false
	}
	link, ok := r.byRequester[requesterID]
	return link, ok
}

type LinkedIdentityMemory struct {
	mu    sync.RWMutex
	links []models.LinkedIdentity
}

func NewLinkedIdentityMemory() *LinkedIdentityMemory {
	return &LinkedIdentityMemory{}
}

func (r *LinkedIdentityMemory) Create(_ context.Context, link *models.LinkedIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.links {
		if existing.EntityID == link.EntityID || existing.RequesterID == link.RequesterID {
			return ErrAlreadyLinked
		}
	}
	r.links = append(r.links, *link)
	return nil
}

func (r *LinkedIdentityMemory) GetByRequester(_ context.Context, requesterID string) (*models.LinkedIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, link := range r.links {
		if link.RequesterID == requesterID {
			found := link
			return &found, nil
		}
	}
	return nil, nil
}

func (r *LinkedIdentityMemory) List(_ context.Context) ([]models.LinkedIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]models.LinkedIdentity, len(r.links))
	copy(links, r.links)
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].LinkedAt.Before(links[j].LinkedAt)
	})
	return links, nil
}
