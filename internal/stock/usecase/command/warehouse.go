package command

import (
	"context"
	"regexp"
	"strings"

	"github.com/tair/tenant-commerce/internal/stock/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
	"github.com/tair/tenant-commerce/pkg/database"
)

var warehouseCode = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

type CreateWarehouseCommand struct {
	TenantID uint
	Name     string
	Code     string
}

type WarehouseHandler struct {
	tx      database.Transactor
	locator *Locator
}

func NewWarehouseHandler(tx database.Transactor, locator *Locator) *WarehouseHandler {
	return &WarehouseHandler{tx: tx, locator: locator}
}

func (h *WarehouseHandler) Create(ctx context.Context, cmd CreateWarehouseCommand) (*domain.Warehouse, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validationf("name", "name is required")
	}
	if !warehouseCode.MatchString(cmd.Code) {
		return nil, apperr.Validationf("code", "code must be 1 to 8 letters or digits")
	}
	var w *domain.Warehouse
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		w, err = h.locator.CreateWarehouse(ctx, cmd.TenantID, strings.TrimSpace(cmd.Name), cmd.Code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}
