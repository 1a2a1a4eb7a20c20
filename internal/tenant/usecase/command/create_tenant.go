package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/tenant-commerce/internal/tenant/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

// CreateTenantCommand represents the command to create a tenant
type CreateTenantCommand struct {
	Code              string
	Name              string
	Domain            string
	AdditionalDomains []string
	ContactEmail      string
	ContactPhone      string
	Theme             *domain.Theme
	Plan              string
	AdminEmail        string
	AdminName         string
}

// CreateTenantResult carries the provisioned records. AdminTempPassword is
// only ever returned here.
type CreateTenantResult struct {
	Tenant            *domain.Tenant       `json:"tenant"`
	Subscription      *domain.Subscription `json:"subscription"`
	AdminLogin        string               `json:"admin_login,omitempty"`
	AdminTempPassword string               `json:"admin_temp_password,omitempty"`
}

// CreateTenantHandler handles tenant creation and provisioning
type CreateTenantHandler struct {
	repo   domain.TenantRepository
	tx     database.Transactor
	admins domain.AdminProvisioner
	now    func() time.Time
}

// NewCreateTenantHandler creates a new create tenant handler. admins may be nil.
func NewCreateTenantHandler(repo domain.TenantRepository, tx database.Transactor, admins domain.AdminProvisioner) *CreateTenantHandler {
	return &CreateTenantHandler{repo: repo, tx: tx, admins: admins, now: time.Now}
}

// Handle validates the command and provisions company, tenant, subscription
// and the optional admin user in one transaction.
func (h *CreateTenantHandler) Handle(ctx context.Context, cmd CreateTenantCommand) (*CreateTenantResult, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	if !domain.ValidCode(cmd.Code) {
		return nil, apperr.Validationf("code", "code may only contain letters, digits, '-' and '_'")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	primary := domain.NormalizeDomain(cmd.Domain)
	if primary == "" {
		return nil, apperr.Validationf("domain", "domain is required")
	}
	if cmd.Theme != nil && cmd.Theme.Typography != "" && !domain.ValidTypography(cmd.Theme.Typography) {
		return nil, apperr.Validationf("theme.typography", "unsupported typography %q", cmd.Theme.Typography)
	}

	if existing, err := h.repo.FindByCode(ctx, cmd.Code); err == nil && existing.Active {
		return nil, apperr.Conflictf("tenant code %q is already used", cmd.Code)
	} else if err != nil && !apperr.HasCode(err, apperr.NotFound) {
		return nil, fmt.Errorf("failed to check tenant code: %w", err)
	}

	active, err := h.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	domains := append([]string{primary}, cmd.AdditionalDomains...)
	if taken := domain.DomainCollision(active, 0, domains...); taken != "" {
		return nil, apperr.Conflictf("domain %q is already used by another tenant", taken)
	}

	plan := cmd.Plan
	if plan == "" {
		plan = domain.DefaultPlan
	}

	result := &CreateTenantResult{}
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		company := &domain.Company{Name: cmd.Name, Email: cmd.ContactEmail, Phone: cmd.ContactPhone}
		if err := h.repo.CreateCompany(ctx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		t := &domain.Tenant{
			Code:         cmd.Code,
			Name:         strings.TrimSpace(cmd.Name),
			Domain:       primary,
			Active:       true,
			ContactEmail: cmd.ContactEmail,
			ContactPhone: cmd.ContactPhone,
			CompanyID:    &company.ID,
			Features:     domain.Features{Wishlist: true, Comparison: true, Reviews: true, Newsletter: true, GuestCheckout: true},
			Theme:        domain.Theme{Typography: domain.TypographyInter},
		}
		if cmd.Theme != nil {
			t.Theme = *cmd.Theme
			if t.Theme.Typography == "" {
				t.Theme.Typography = domain.TypographyInter
			}
		}
		t.SetAdditionalDomains(cmd.AdditionalDomains)
		if err := h.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		trialEnd := h.now().AddDate(0, 0, domain.DefaultTrialDays)
		sub := &domain.Subscription{
			TenantID:        t.ID,
			Plan:            plan,
			State:           domain.SubscriptionTrial,
			BillingPeriod:   domain.DefaultBillingPeriod,
			TrialEndsAt:     &trialEnd,
			NextBillingDate: &trialEnd,
		}
		if err := h.repo.CreateSubscription(ctx, sub); err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		t.SubscriptionID = &sub.ID
		if err := h.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("failed to link subscription: %w", err)
		}

		if cmd.AdminEmail != "" && h.admins != nil {
			name := cmd.AdminName
			if name == "" {
				name = cmd.Name + " Admin"
			}
			login, password, err := h.admins.ProvisionTenantAdmin(ctx, t.ID, cmd.AdminEmail, name)
			if err != nil {
				return fmt.Errorf("failed to provision admin: %w", err)
			}
			result.AdminLogin = login
			result.AdminTempPassword = password
		}

		result.Tenant = t
		result.Subscription = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
