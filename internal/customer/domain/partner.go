package domain

import (
	"context"
	"strings"
	"time"
)

// Partner is a customer of one tenant. Guests are created by checkout or
// cart saving without an account.
type Partner struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;index:idx_partner_tenant_email"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"size:255;index:idx_partner_tenant_email"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country" gorm:"size:2"`
	// IsGuest is cleared once a user account adopts the partner.
	IsGuest   bool      `json:"is_guest" gorm:"default:false"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }

// NormalizeEmail is the comparison form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is a shape check, not a deliverability check.
func ValidEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// PartnerFilter narrows List.
type PartnerFilter struct {
	Search       string
	IncludeGuest bool
	Limit        int
	Offset       int
}

// PartnerRepository defines the contract for partner data access. Every
// lookup is scoped to a tenant.
type PartnerRepository interface {
	Create(ctx context.Context, p *Partner) error
	Update(ctx context.Context, p *Partner) error
	FindByID(ctx context.Context, tenantID, id uint) (*Partner, error)
	// FindByEmail returns the oldest active partner with that email.
	FindByEmail(ctx context.Context, tenantID uint, email string) (*Partner, error)
	// FindGuestByEmail is FindByEmail restricted to guest partners.
	FindGuestByEmail(ctx context.Context, tenantID uint, email string) (*Partner, error)
	List(ctx context.Context, tenantID uint, f PartnerFilter) ([]Partner, int64, error)
}
