package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

type CreateAttributeCommand struct {
	TenantID      uint
	Name          string
	DisplayType   domain.DisplayType
	CreateVariant domain.CreateVariantPolicy
	Sequence      int
	Values        []CreateValueCommand
}

type CreateValueCommand struct {
	TenantID    uint
	AttributeID uint
	Name        string
	HTMLColor   string
	Sequence    int
}

type RibbonFields struct {
	Name      *string
	BgColor   *string
	TextColor *string
	Position  *domain.RibbonPosition
	Style     *domain.RibbonStyle
	Active    *bool
}

// ReferenceHandler writes the catalog vocabularies: attributes, ribbons,
// tags and taxes.
type ReferenceHandler struct {
	repo domain.Repository
}

func NewReferenceHandler(repo domain.Repository) *ReferenceHandler {
	return &ReferenceHandler{repo: repo}
}

func (h *ReferenceHandler) CreateAttribute(ctx context.Context, cmd CreateAttributeCommand) (*domain.Attribute, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	if cmd.DisplayType == "" {
		cmd.DisplayType = domain.DisplayRadio
	}
	if cmd.CreateVariant == "" {
		cmd.CreateVariant = domain.CreateAlways
	}
	if !domain.ValidDisplayType(cmd.DisplayType) {
		return nil, apperr.Validationf("display_type", "unknown display type %q", cmd.DisplayType)
	}
	if !domain.ValidCreateVariant(cmd.CreateVariant) {
		return nil, apperr.Validationf("create_variant", "unknown create_variant policy %q", cmd.CreateVariant)
	}
	a := &domain.Attribute{
		TenantID:      cmd.TenantID,
		Name:          strings.TrimSpace(cmd.Name),
		DisplayType:   cmd.DisplayType,
		CreateVariant: cmd.CreateVariant,
		Sequence:      cmd.Sequence,
	}
	for i, v := range cmd.Values {
		if strings.TrimSpace(v.Name) == "" {
			return nil, apperr.Validationf(fmt.Sprintf("values[%d].name", i), "value name is required")
		}
		a.Values = append(a.Values, domain.AttributeValue{
			Name: strings.TrimSpace(v.Name), HTMLColor: v.HTMLColor, Sequence: v.Sequence,
		})
	}
	if err := h.repo.CreateAttribute(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create attribute: %w", err)
	}
	return a, nil
}

func (h *ReferenceHandler) CreateValue(ctx context.Context, cmd CreateValueCommand) (*domain.AttributeValue, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	if _, err := h.repo.FindAttribute(ctx, cmd.TenantID, cmd.AttributeID); err != nil {
		return nil, err
	}
	v := &domain.AttributeValue{
		AttributeID: cmd.AttributeID,
		Name:        strings.TrimSpace(cmd.Name),
		HTMLColor:   cmd.HTMLColor,
		Sequence:    cmd.Sequence,
	}
	if err := h.repo.CreateValue(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create attribute value: %w", err)
	}
	return v, nil
}

func (h *ReferenceHandler) CreateRibbon(ctx context.Context, tenantID uint, f RibbonFields) (*domain.Ribbon, error) {
	if f.Name == nil || strings.TrimSpace(*f.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	rb := &domain.Ribbon{
		TenantID:  tenantID,
		BgColor:   "#e74c3c",
		TextColor: "#ffffff",
		Position:  domain.RibbonLeft,
		Style:     domain.StyleBadge,
		Active:    true,
	}
	if err := applyRibbon(rb, f); err != nil {
		return nil, err
	}
	if err := h.repo.CreateRibbon(ctx, rb); err != nil {
		return nil, fmt.Errorf("failed to create ribbon: %w", err)
	}
	return rb, nil
}

func (h *ReferenceHandler) UpdateRibbon(ctx context.Context, tenantID, id uint, f RibbonFields) (*domain.Ribbon, error) {
	rb, err := h.repo.FindRibbon(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := applyRibbon(rb, f); err != nil {
		return nil, err
	}
	if err := h.repo.UpdateRibbon(ctx, rb); err != nil {
		return nil, fmt.Errorf("failed to update ribbon: %w", err)
	}
	return rb, nil
}

func applyRibbon(rb *domain.Ribbon, f RibbonFields) error {
	if f.Position != nil {
		if *f.Position != domain.RibbonLeft && *f.Position != domain.RibbonRight {
			return apperr.Validationf("position", "position must be left or right")
		}
		rb.Position = *f.Position
	}
	if f.Style != nil {
		switch *f.Style {
		case domain.StyleBadge, domain.StyleRibbon, domain.StyleTag:
			rb.Style = *f.Style
		default:
			return apperr.Validationf("style", "unknown ribbon style %q", *f.Style)
		}
	}
	if f.Name != nil {
		if strings.TrimSpace(*f.Name) == "" {
			return apperr.Validationf("name", "name must not be empty")
		}
		rb.Name = strings.TrimSpace(*f.Name)
	}
	setString(&rb.BgColor, f.BgColor)
	setString(&rb.TextColor, f.TextColor)
	setBool(&rb.Active, f.Active)
	return nil
}

func (h *ReferenceHandler) CreateTag(ctx context.Context, tenantID uint, name string) (*domain.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	t := &domain.Tag{TenantID: tenantID, Name: strings.TrimSpace(name)}
	if err := h.repo.CreateTag(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return t, nil
}

func (h *ReferenceHandler) CreateTax(ctx context.Context, tenantID uint, name string, amount float64, priceInclude bool) (*domain.Tax, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	if amount < 0 || amount > 100 {
		return nil, apperr.Validationf("amount", "amount must be a percentage between 0 and 100")
	}
	t := &domain.Tax{TenantID: tenantID, Name: strings.TrimSpace(name), Amount: amount, PriceInclude: priceInclude, Active: true}
	if err := h.repo.CreateTax(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tax: %w", err)
	}
	return t, nil
}

// SeedCurrencies installs the default currencies; it is idempotent.
func (h *ReferenceHandler) SeedCurrencies(ctx context.Context) error {
	return h.repo.EnsureCurrencies(ctx, domain.DefaultCurrencies)
}
