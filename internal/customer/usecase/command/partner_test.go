package command

import (
	"context"
	"testing"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/internal/customer/repository"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

func TestGuestAdoptedByAccount(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPartnerRepository()
	dir := NewGuestDirectory(repo)

	guest, err := dir.EnsureGuest(ctx, 1, " X@Y.z ", "")
	if err != nil {
		t.Fatalf("EnsureGuest: %v", err)
	}
	if !guest.IsGuest || guest.Email != "x@y.z" {
		t.Fatalf("guest = %+v", guest)
	}
	again, err := dir.EnsureGuest(ctx, 1, "x@y.z", "")
	if err != nil || again.ID != guest.ID {
		t.Fatalf("EnsureGuest twice: id %d vs %d, err %v", again.ID, guest.ID, err)
	}

	id, err := dir.LinkPartner(ctx, 1, "x@y.z", "Xavier")
	if err != nil {
		t.Fatalf("LinkPartner: %v", err)
	}
	if id != guest.ID {
		t.Errorf("linked id = %d, want guest %d", id, guest.ID)
	}
	p, _ := repo.FindByID(ctx, 1, id)
	if p.IsGuest || p.Name != "Xavier" {
		t.Errorf("adopted partner = %+v", p)
	}

	other, err := dir.EnsureGuest(ctx, 2, "x@y.z", "")
	if err != nil {
		t.Fatalf("EnsureGuest other tenant: %v", err)
	}
	if other.ID == guest.ID {
		t.Error("guest partner shared across tenants")
	}
}

func TestGuestNeverResolvesToRegisteredCustomer(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPartnerRepository()
	dir := NewGuestDirectory(repo)

	registered := &domain.Partner{TenantID: 1, Name: "Victim", Email: "victim@shop.z", Active: true}
	if err := repo.Create(ctx, registered); err != nil {
		t.Fatalf("Create: %v", err)
	}

	guest, err := dir.Guest(ctx, 1, "Victim@Shop.z", "")
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if guest.ID == registered.ID || !guest.IsGuest {
		t.Fatalf("guest = %+v, want a new guest partner", guest)
	}
	again, err := dir.Guest(ctx, 1, "victim@shop.z", "")
	if err != nil || again.ID != guest.ID {
		t.Fatalf("Guest twice: id %d vs %d, err %v", again.ID, guest.ID, err)
	}

	owner, err := dir.EnsureGuest(ctx, 1, "victim@shop.z", "")
	if err != nil {
		t.Fatalf("EnsureGuest: %v", err)
	}
	if owner.ID != registered.ID {
		t.Errorf("EnsureGuest id = %d, want registered %d", owner.ID, registered.ID)
	}
}

func TestCreateAndUpdatePartner(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryPartnerRepository()
	create := NewCreatePartnerHandler(repo)

	a, err := create.Handle(ctx, CreatePartnerCommand{TenantID: 1, Name: "Alice", Email: "alice@x.io"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := create.Handle(ctx, CreatePartnerCommand{TenantID: 1, Name: "Alias", Email: "ALICE@x.io"}); !apperr.HasCode(err, apperr.Conflict) {
		t.Errorf("duplicate email err = %v, want CONFLICT", err)
	}
	b, err := create.Handle(ctx, CreatePartnerCommand{TenantID: 1, Name: "Bob", Email: "bob@x.io"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	update := NewUpdatePartnerHandler(repo)
	taken := "alice@x.io"
	if _, err := update.Handle(ctx, b, UpdatePartnerCommand{Email: &taken}); !apperr.HasCode(err, apperr.Conflict) {
		t.Errorf("email steal err = %v, want CONFLICT", err)
	}
	city := " Tunis "
	got, err := update.Handle(ctx, a, UpdatePartnerCommand{City: &city})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.City != "Tunis" {
		t.Errorf("city = %q, want Tunis", got.City)
	}

	list, total, _ := repo.List(ctx, 1, domain.PartnerFilter{Search: "ali"})
	if total != 1 || list[0].ID != a.ID {
		t.Errorf("search result = %v (total %d)", list, total)
	}
}
