package command

import (
	"context"

	"github.com/tair/tenant-commerce/internal/auth/domain"
)

// TenantAdminProvisioner creates the first administrator of a new tenant.
type TenantAdminProvisioner struct {
	create *CreateUserHandler
}

func NewTenantAdminProvisioner(create *CreateUserHandler) *TenantAdminProvisioner {
	return &TenantAdminProvisioner{create: create}
}

// ProvisionTenantAdmin creates a tenant-scoped admin with a temporary
// password that must be changed at first login.
func (p *TenantAdminProvisioner) ProvisionTenantAdmin(ctx context.Context, tenantID uint, email, name string) (string, string, error) {
	res, err := p.create.Handle(ctx, CreateUserCommand{
		TenantID: &tenantID,
		Login:    email,
		Email:    email,
		Name:     name,
		Groups: []domain.GroupCode{
			domain.GroupSystem,
			domain.GroupStoreManager,
			domain.GroupMarketingManager,
			domain.GroupStockManager,
		},
	})
	if err != nil {
		return "", "", err
	}
	return res.User.Login, res.TempPassword, nil
}
