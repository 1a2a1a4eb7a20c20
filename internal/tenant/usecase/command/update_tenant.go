package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

// UpdateTenantCommand carries optional field updates; nil means unchanged.
type UpdateTenantCommand struct {
	ID                uint
	Name              *string
	Domain            *string
	AdditionalDomains *[]string
	Active            *bool
	LogoURL           *string
	FaviconURL        *string
	Slogan            *string
	Description       *string
	Theme             *domain.Theme
	Features          *domain.Features
	ContactEmail      *string
	ContactPhone      *string
	WhatsApp          *string
	SocialLinks       *map[string]string
	SEOTitle          *string
	SEODescription    *string
	SEOKeywords       *string
}

// UpdateTenantHandler handles tenant updates
type UpdateTenantHandler struct {
	repo domain.TenantRepository
}

func NewUpdateTenantHandler(repo domain.TenantRepository) *UpdateTenantHandler {
	return &UpdateTenantHandler{repo: repo}
}

func (h *UpdateTenantHandler) Handle(ctx context.Context, cmd UpdateTenantCommand) (*domain.Tenant, error) {
	t, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return nil, apperr.Validationf("name", "name cannot be empty")
		}
		t.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Domain != nil {
		d := domain.NormalizeDomain(*cmd.Domain)
		if d == "" {
			return nil, apperr.Validationf("domain", "domain cannot be empty")
		}
		t.Domain = d
	}
	if cmd.AdditionalDomains != nil {
		t.SetAdditionalDomains(*cmd.AdditionalDomains)
	} else if cmd.Domain != nil {
		t.SetAdditionalDomains(t.AdditionalDomains())
	}
	if cmd.Theme != nil {
		if cmd.Theme.Typography != "" && !domain.ValidTypography(cmd.Theme.Typography) {
			return nil, apperr.Validationf("theme.typography", "unsupported typography %q", cmd.Theme.Typography)
		}
		t.Theme = *cmd.Theme
	}
	if cmd.Features != nil {
		t.Features = *cmd.Features
	}
	if cmd.SocialLinks != nil {
		t.SetSocialLinks(*cmd.SocialLinks)
	}
	if cmd.Active != nil {
		t.Active = *cmd.Active
	}
	assign(&t.LogoURL, cmd.LogoURL)
	assign(&t.FaviconURL, cmd.FaviconURL)
	assign(&t.Slogan, cmd.Slogan)
	assign(&t.Description, cmd.Description)
	assign(&t.ContactEmail, cmd.ContactEmail)
	assign(&t.ContactPhone, cmd.ContactPhone)
	assign(&t.WhatsApp, cmd.WhatsApp)
	assign(&t.SEOTitle, cmd.SEOTitle)
	assign(&t.SEODescription, cmd.SEODescription)
	assign(&t.SEOKeywords, cmd.SEOKeywords)

	if t.Active && (cmd.Domain != nil || cmd.AdditionalDomains != nil || cmd.Active != nil) {
		active, err := h.repo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
		domains := append([]string{t.Domain}, t.AdditionalDomains()...)
		if taken := domain.DomainCollision(active, t.ID, domains...); taken != "" {
			return nil, apperr.Conflictf("domain %q is already used by another tenant", taken)
		}
	}

	if err := h.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	return t, nil
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
