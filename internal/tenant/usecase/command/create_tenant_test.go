package command

import (
	"context"
	"testing"
	"time"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/internal/tenant/repository"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

type fakeProvisioner struct {
	tenantID uint
	email    string
}

func (f *fakeProvisioner) ProvisionTenantAdmin(_ context.Context, tenantID uint, email, _ string) (string, string, error) {
	f.tenantID = tenantID
	f.email = email
	return email, "temp-secret", nil
}

func TestCreateTenantProvisions(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	admins := &fakeProvisioner{}
	h := NewCreateTenantHandler(repo, database.NoopTransactor{}, admins)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	res, err := h.Handle(context.Background(), CreateTenantCommand{
		Code:              "acme",
		Name:              "Acme",
		Domain:            "WWW.Acme.com",
		AdditionalDomains: []string{"shop.acme.io"},
		AdminEmail:        "owner@acme.com",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Tenant.Domain != "acme.com" {
		t.Errorf("Domain = %q, want acme.com", res.Tenant.Domain)
	}
	if res.Tenant.CompanyID == nil || res.Tenant.SubscriptionID == nil {
		t.Fatal("company and subscription must be linked")
	}
	if res.Subscription.State != domain.SubscriptionTrial || res.Subscription.BillingPeriod != "monthly" {
		t.Errorf("subscription = %+v, want trial/monthly", res.Subscription)
	}
	if want := fixed.AddDate(0, 0, domain.DefaultTrialDays); !res.Subscription.TrialEndsAt.Equal(want) {
		t.Errorf("TrialEndsAt = %v, want %v", res.Subscription.TrialEndsAt, want)
	}
	if admins.tenantID != res.Tenant.ID || res.AdminTempPassword != "temp-secret" {
		t.Errorf("admin not provisioned for tenant %d: %+v", res.Tenant.ID, admins)
	}
}

func TestCreateTenantRejections(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	h := NewCreateTenantHandler(repo, database.NoopTransactor{}, nil)
	ctx := context.Background()

	if _, err := h.Handle(ctx, CreateTenantCommand{Code: "acme", Name: "Acme", Domain: "acme.com", AdditionalDomains: []string{"shop.acme.io"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name string
		cmd  CreateTenantCommand
		want apperr.Code
	}{
		{"bad code", CreateTenantCommand{Code: "ac me", Name: "X", Domain: "x.com"}, apperr.Validation},
		{"missing domain", CreateTenantCommand{Code: "x", Name: "X"}, apperr.Validation},
		{"duplicate code", CreateTenantCommand{Code: "ACME", Name: "X", Domain: "x.com"}, apperr.Conflict},
		{"duplicate primary", CreateTenantCommand{Code: "x", Name: "X", Domain: "www.acme.com"}, apperr.Conflict},
		{"primary collides with additional", CreateTenantCommand{Code: "x", Name: "X", Domain: "shop.acme.io"}, apperr.Conflict},
		{"additional collides", CreateTenantCommand{Code: "x", Name: "X", Domain: "x.com", AdditionalDomains: []string{"acme.com"}}, apperr.Conflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(ctx, tt.cmd)
			if got := apperr.CodeOf(err); got != tt.want {
				t.Errorf("code = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestUpdateTenantDomainCollision(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	create := NewCreateTenantHandler(repo, database.NoopTransactor{}, nil)
	ctx := context.Background()
	a, err := create.Handle(ctx, CreateTenantCommand{Code: "a", Name: "A", Domain: "a.com"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := create.Handle(ctx, CreateTenantCommand{Code: "b", Name: "B", Domain: "b.com"}); err != nil {
		t.Fatalf("create b: %v", err)
	}

	update := NewUpdateTenantHandler(repo)
	extra := []string{"b.com"}
	_, err = update.Handle(ctx, UpdateTenantCommand{ID: a.Tenant.ID, AdditionalDomains: &extra})
	if !apperr.HasCode(err, apperr.Conflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}

	extra = []string{"shop.a.com"}
	links := map[string]string{"facebook": "https://fb.com/a"}
	got, err := update.Handle(ctx, UpdateTenantCommand{ID: a.Tenant.ID, AdditionalDomains: &extra, SocialLinks: &links})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if d := got.AdditionalDomains(); len(d) != 1 || d[0] != "shop.a.com" {
		t.Errorf("AdditionalDomains = %v", d)
	}
	if got.SocialLinks()["facebook"] == "" {
		t.Error("social links not stored")
	}
}
