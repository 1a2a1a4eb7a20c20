package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/customer/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// CreatePartnerCommand represents the command to create a customer
type CreatePartnerCommand struct {
	TenantID uint
	Name     string
	Email    string
	Phone    string
	Street   string
	City     string
	Zip      string
	Country  string
}

type CreatePartnerHandler struct {
	repo domain.PartnerRepository
}

func NewCreatePartnerHandler(repo domain.PartnerRepository) *CreatePartnerHandler {
	return &CreatePartnerHandler{repo: repo}
}

func (h *CreatePartnerHandler) Handle(ctx context.Context, cmd CreatePartnerCommand) (*domain.Partner, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	email := domain.NormalizeEmail(cmd.Email)
	if email != "" {
		if !domain.ValidEmail(email) {
			return nil, apperr.Validationf("email", "invalid email")
		}
		if _, err := h.repo.FindByEmail(ctx, cmd.TenantID, email); err == nil {
			return nil, apperr.Conflictf("a customer with email %s already exists", email)
		} else if !apperr.HasCode(err, apperr.NotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	p := &domain.Partner{
		TenantID: cmd.TenantID,
		Name:     name,
		Email:    email,
		Phone:    strings.TrimSpace(cmd.Phone),
		Street:   strings.TrimSpace(cmd.Street),
		City:     strings.TrimSpace(cmd.City),
		Zip:      strings.TrimSpace(cmd.Zip),
		Country:  strings.ToUpper(strings.TrimSpace(cmd.Country)),
		Active:   true,
	}
	if err := h.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return p, nil
}
