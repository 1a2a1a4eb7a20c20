package query

import (
	"context"
	"testing"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/internal/tenant/repository"
)

func seed(t *testing.T, repo *repository.MemoryTenantRepository, tn domain.Tenant, extra ...string) *domain.Tenant {
	t.Helper()
	tn.Active = true
	tn.SetAdditionalDomains(extra)
	if err := repo.Create(context.Background(), &tn); err != nil {
		t.Fatalf("seed tenant %s: %v", tn.Code, err)
	}
	return &tn
}

func TestFindByDomain(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	acme := seed(t, repo, domain.Tenant{Code: "acme", Name: "Acme", Domain: "acme.com"}, "shop.acme.io")
	seed(t, repo, domain.Tenant{Code: "globex", Name: "Globex", Domain: "globex.com"})
	h := NewFindByDomainHandler(repo)
	ctx := context.Background()

	tests := []struct {
		host   string
		wantID uint
	}{
		{"WWW.Shop.Acme.IO", acme.ID},
		{"acme.com", acme.ID},
		{"www.ACME.com", acme.ID},
		{"other.com", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := h.Handle(ctx, tt.host)
		if err != nil {
			t.Fatalf("Handle(%q): %v", tt.host, err)
		}
		if tt.wantID == 0 {
			if got != nil {
				t.Errorf("Handle(%q) = %s, want none", tt.host, got.Code)
			}
			continue
		}
		if got == nil || got.ID != tt.wantID {
			t.Errorf("Handle(%q) = %v, want tenant %d", tt.host, got, tt.wantID)
		}
	}
}

func TestFindByDomainIgnoresInactive(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	tn := seed(t, repo, domain.Tenant{Code: "old", Name: "Old", Domain: "old.com"}, "legacy.old.io")
	tn.Active = false
	if err := repo.Update(context.Background(), tn); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	h := NewFindByDomainHandler(repo)
	for _, host := range []string{"old.com", "legacy.old.io"} {
		got, err := h.Handle(context.Background(), host)
		if err != nil {
			t.Fatalf("Handle(%q): %v", host, err)
		}
		if got != nil {
			t.Errorf("Handle(%q) returned inactive tenant", host)
		}
	}
}
