package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// GuestDirectory finds or creates partners by email. Guest partners are
// permanent; a later account for the same email adopts them.
type GuestDirectory struct {
	repo domain.PartnerRepository
}

func NewGuestDirectory(repo domain.PartnerRepository) *GuestDirectory {
	return &GuestDirectory{repo: repo}
}

// EnsureGuest returns the partner owning email, creating a guest if none exists.
func (d *GuestDirectory) EnsureGuest(ctx context.Context, tenantID uint, email, name string) (*domain.Partner, error) {
	return d.ensure(ctx, tenantID, email, name, d.repo.FindByEmail)
}

// Guest returns the guest partner for email, creating one if none exists.
// A registered customer with the same email is never returned, so an
// anonymous caller cannot bind itself to somebody's account.
func (d *GuestDirectory) Guest(ctx context.Context, tenantID uint, email, name string) (*domain.Partner, error) {
	return d.ensure(ctx, tenantID, email, name, d.repo.FindGuestByEmail)
}

func (d *GuestDirectory) ensure(ctx context.Context, tenantID uint, email, name string,
	find func(context.Context, uint, string) (*domain.Partner, error)) (*domain.Partner, error) {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, apperr.Validationf("email", "invalid email")
	}
	p, err := find(ctx, tenantID, email)
	if err == nil {
		return p, nil
	}
	if !apperr.HasCode(err, apperr.NotFound) {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	p = &domain.Partner{TenantID: tenantID, Name: name, Email: email, IsGuest: true, Active: true}
	if err := d.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create guest customer: %w", err)
	}
	return p, nil
}

// LinkPartner returns the partner id for a new account, promoting an
// existing guest to a regular customer.
func (d *GuestDirectory) LinkPartner(ctx context.Context, tenantID uint, email, name string) (uint, error) {
	p, err := d.EnsureGuest(ctx, tenantID, email, name)
	if err != nil {
		return 0, err
	}
	if p.IsGuest {
		p.IsGuest = false
		if strings.TrimSpace(name) != "" && p.Name == p.Email {
			p.Name = strings.TrimSpace(name)
		}
		if err := d.repo.Update(ctx, p); err != nil {
			return 0, fmt.Errorf("failed to adopt guest customer: %w", err)
		}
	}
	return p.ID, nil
}

// Get returns a tenant's partner by id.
func (d *GuestDirectory) Get(ctx context.Context, tenantID, id uint) (*domain.Partner, error) {
	return d.repo.FindByID(ctx, tenantID, id)
}
