package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/tenant-commerce/internal/order/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

type CreateCouponCommand struct {
	TenantID      uint
	Code          string
	Name          string
	Active        *bool
	DateFrom      *time.Time
	DateTo        *time.Time
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	MinimumAmount decimal.Decimal
}

type CouponHandler struct {
	repo domain.ProgramRepository
}

func NewCouponHandler(repo domain.ProgramRepository) *CouponHandler {
	return &CouponHandler{repo: repo}
}

func (h *CouponHandler) Create(ctx context.Context, cmd CreateCouponCommand) (*domain.Program, error) {
	p := &domain.Program{
		TenantID:      cmd.TenantID,
		Code:          domain.NormalizeCode(cmd.Code),
		Name:          strings.TrimSpace(cmd.Name),
		Active:        cmd.Active == nil || *cmd.Active,
		DateFrom:      cmd.DateFrom,
		DateTo:        cmd.DateTo,
		DiscountType:  cmd.DiscountType,
		DiscountValue: cmd.DiscountValue,
		MinimumAmount: cmd.MinimumAmount,
	}
	if p.Name == "" {
		p.Name = p.Code
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := h.repo.FindProgramByCode(ctx, p.TenantID, p.Code); err == nil {
		return nil, apperr.Conflictf("coupon %s already exists", p.Code)
	} else if !apperr.HasCode(err, apperr.NotFound) {
		return nil, err
	}
	if err := h.repo.CreateProgram(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return p, nil
}
