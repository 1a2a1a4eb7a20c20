package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// SnapshotCache is the subset of the cache service used for tenant lookups.
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// CachePrefix namespaces tenant snapshots; tenant mutations invalidate it.
const CachePrefix = "tenants"

// FindByDomainHandler resolves a request host to a tenant.
type FindByDomainHandler struct {
	repo  domain.TenantRepository
	cache SnapshotCache
	ttl   time.Duration
}

func NewFindByDomainHandler(repo domain.TenantRepository) *FindByDomainHandler {
	return &FindByDomainHandler{repo: repo}
}

// WithCache memoizes successful lookups for ttl.
func (h *FindByDomainHandler) WithCache(c SnapshotCache, ttl time.Duration) *FindByDomainHandler {
	h.cache = c
	h.ttl = ttl
	return h
}

// Resolve is Handle with snapshot caching; misses are not cached.
func (h *FindByDomainHandler) Resolve(ctx context.Context, host string) (*domain.Tenant, error) {
	d := domain.NormalizeDomain(host)
	if h.cache == nil || d == "" {
		return h.Handle(ctx, d)
	}
	key := CachePrefix + ":domain:" + d
	var cached snapshot
	if h.cache.GetJSON(ctx, key, &cached) {
		t := cached.Tenant
		t.DomainsJSON = cached.Domains
		t.SocialLinksJSON = cached.SocialLinks
		return &t, nil
	}
	t, err := h.Handle(ctx, d)
	if err == nil && t != nil {
		h.cache.SetJSON(ctx, key, snapshot{Tenant: *t, Domains: t.DomainsJSON, SocialLinks: t.SocialLinksJSON}, h.ttl)
	}
	return t, err
}

// snapshot keeps the JSON text columns the public encoding hides.
type snapshot struct {
	Tenant      domain.Tenant `json:"tenant"`
	Domains     string        `json:"domains"`
	SocialLinks string        `json:"social_links"`
}

// Handle returns the tenant serving host, or nil when none does.
// The primary domain wins over any additional-domain match.
func (h *FindByDomainHandler) Handle(ctx context.Context, host string) (*domain.Tenant, error) {
	d := domain.NormalizeDomain(host)
	if d == "" {
		return nil, nil
	}

	t, err := h.repo.FindActiveByPrimaryDomain(ctx, d)
	if err == nil {
		return t, nil
	}
	if !apperr.HasCode(err, apperr.NotFound) {
		return nil, fmt.Errorf("failed to find tenant by domain: %w", err)
	}

	active, err := h.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	for i := range active {
		for _, extra := range active[i].AdditionalDomains() {
			if extra == d {
				return &active[i], nil
			}
		}
	}
	return nil, nil
}
