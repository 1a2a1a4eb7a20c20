package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// UpdatePartnerCommand carries optional field updates; nil means unchanged.
type UpdatePartnerCommand struct {
	TenantID uint
	ID       uint
	Name     *string
	Email    *string
	Phone    *string
	Street   *string
	City     *string
	Zip      *string
	Country  *string
}

type UpdatePartnerHandler struct {
	repo domain.PartnerRepository
}

func NewUpdatePartnerHandler(repo domain.PartnerRepository) *UpdatePartnerHandler {
	return &UpdatePartnerHandler{repo: repo}
}

// Handle applies cmd to a partner already loaded by the caller's ownership check.
func (h *UpdatePartnerHandler) Handle(ctx context.Context, p *domain.Partner, cmd UpdatePartnerCommand) (*domain.Partner, error) {
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, apperr.Validationf("name", "name cannot be empty")
		}
		p.Name = name
	}
	if cmd.Email != nil {
		email := domain.NormalizeEmail(*cmd.Email)
		if !domain.ValidEmail(email) {
			return nil, apperr.Validationf("email", "invalid email")
		}
		if email != domain.NormalizeEmail(p.Email) {
			if other, err := h.repo.FindByEmail(ctx, p.TenantID, email); err == nil && other.ID != p.ID {
				return nil, apperr.Conflictf("a customer with email %s already exists", email)
			}
		}
		p.Email = email
	}
	set(&p.Phone, cmd.Phone)
	set(&p.Street, cmd.Street)
	set(&p.City, cmd.City)
	set(&p.Zip, cmd.Zip)
	if cmd.Country != nil {
		p.Country = strings.ToUpper(strings.TrimSpace(*cmd.Country))
	}

	if err := h.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return p, nil
}

func set(dst, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
