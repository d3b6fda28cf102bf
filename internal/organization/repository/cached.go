package repository

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"sdr-juridico/backend/internal/organization/domain"
)

// CachedRepository wraps a Repository with a short-lived LRU for GetOrganizationByID.
// Writes go through to the inner repository and evict the cached entry.
// Misses (nil organizations) and errors are never cached.
type CachedRepository struct {
	Repository
	cache *lru.LRU[string, domain.Org]
}

// NewCachedRepository returns a caching decorator holding up to size organizations for ttl.
// size <= 0 defaults to 256.
func NewCachedRepository(inner Repository, size int, ttl time.Duration) *CachedRepository {
	if size <= 0 {
		size = 256
	}
	return &CachedRepository{
		Repository: inner,
		cache:      lru.NewLRU[string, domain.Org](size, nil, ttl),
	}
}

// GetOrganizationByID returns a copy of the cached organization or loads it from the inner repository.
func (r *CachedRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	if o, ok := r.cache.Get(id); ok {
		return &o, nil
	}
	o, err := r.Repository.GetOrganizationByID(ctx, id)
	if err != nil || o == nil {
		return o, err
	}
	r.cache.Add(id, *o)
	return o, nil
}

// UpdateOrganization updates the inner repository and evicts the cached entry.
func (r *CachedRepository) UpdateOrganization(ctx context.Context, o *domain.Org) error {
	err := r.Repository.UpdateOrganization(ctx, o)
	r.cache.Remove(o.ID)
	return err
}

// Invalidate drops the cached entry for id.
func (r *CachedRepository) Invalidate(id string) {
	r.cache.Remove(id)
}
