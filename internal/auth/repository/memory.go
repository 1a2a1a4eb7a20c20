package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/tenant-commerce/internal/auth/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// MemoryUserRepository keeps users and groups in process memory.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[uint]domain.User
	groups map[domain.GroupCode]domain.Group
	nextID uint
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[uint]domain.User),
		groups: make(map[domain.GroupCode]domain.Group),
	}
}

// Snapshot captures the repository contents for a rollback. IDs keep
// increasing across a rollback.
func (r *MemoryUserRepository) Snapshot() func() {
	r.mu.RLock()
	users := maps.Clone(r.users)
	groups := maps.Clone(r.groups)
	r.mu.RUnlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.users, r.groups = users, groups
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if strings.EqualFold(other.Login, u.Login) {
			return apperr.Conflictf("user already exists")
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	stored := clone(*u)
	stored.Groups = nil
	r.users[u.ID] = stored
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return apperr.NotFoundf("user")
	}
	for _, other := range r.users {
		if other.ID != u.ID && strings.EqualFold(other.Login, u.Login) {
			return apperr.Conflictf("user already exists")
		}
	}
	next := clone(*u)
	next.Groups = stored.Groups
	next.UpdatedAt = time.Now()
	r.users[u.ID] = next
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user")
	}
	out := clone(u)
	return &out, nil
}

func (r *MemoryUserRepository) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Login, login) {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, apperr.NotFoundf("user")
}

func (r *MemoryUserRepository) List(_ context.Context, tenantID *uint, limit, offset int) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.User
	for _, u := range r.users {
		if tenantID != nil && (u.TenantID == nil || *u.TenantID != *tenantID) {
			continue
		}
		all = append(all, clone(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return database.Page(all, limit, offset), int64(len(all)), nil
}

func (r *MemoryUserRepository) SetGroups(_ context.Context, userID uint, codes []domain.GroupCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user")
	}
	for _, c := range codes {
		if _, ok := r.groups[c]; !ok {
			return apperr.Validationf("groups", "unknown group code %q", c)
		}
	}
	u.Groups = r.resolve(codes)
	r.users[userID] = u
	return nil
}

func (r *MemoryUserRepository) EnsureGroups(_ context.Context, groups []domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range groups {
		if _, ok := r.groups[g.Code]; ok {
			continue
		}
		r.nextID++
		g.ID = r.nextID
		r.groups[g.Code] = g
	}
	return nil
}

func (r *MemoryUserRepository) UpdateTokenVersion(_ context.Context, userID uint, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFoundf("user")
	}
	u.TokenVersion = version
	r.users[userID] = u
	return nil
}

// resolve maps codes onto stored groups, dropping unknown ones.
func (r *MemoryUserRepository) resolve(codes []domain.GroupCode) []domain.Group {
	seen := make(map[domain.GroupCode]bool)
	var out []domain.Group
	for _, c := range codes {
		if g, ok := r.groups[c]; ok && !seen[c] {
			seen[c] = true
			out = append(out, g)
		}
	}
	return out
}

func clone(u domain.User) domain.User {
	u.Groups = append([]domain.Group(nil), u.Groups...)
	return u
}
