package domain

import (
	"context"
	"time"
)

// GroupCode identifies an access group.
type GroupCode string

const (
	// GroupSystem is the platform administrator group checked by the admin gate.
	GroupSystem           GroupCode = "system"
	GroupStoreUser        GroupCode = "store_user"
	GroupStoreManager     GroupCode = "store_manager"
	GroupMarketingUser    GroupCode = "marketing_user"
	GroupMarketingManager GroupCode = "marketing_manager"
	GroupStockUser        GroupCode = "stock_user"
	GroupStockManager     GroupCode = "stock_manager"
)

// DefaultGroups is seeded at startup.
var DefaultGroups = []Group{
	{Code: GroupSystem, Name: "Administrator"},
	{Code: GroupStoreUser, Name: "Store / User"},
	{Code: GroupStoreManager, Name: "Store / Manager"},
	{Code: GroupMarketingUser, Name: "Marketing / User"},
	{Code: GroupMarketingManager, Name: "Marketing / Manager"},
	{Code: GroupStockUser, Name: "Inventory / User"},
	{Code: GroupStockManager, Name: "Inventory / Manager"},
}

// ValidGroup reports whether code is a known group.
func ValidGroup(code GroupCode) bool {
	for _, g := range DefaultGroups {
		if g.Code == code {
			return true
		}
	}
	return false
}

type Group struct {
	ID   uint      `json:"id" gorm:"primaryKey"`
	Code GroupCode `json:"code" gorm:"size:64;uniqueIndex;not null"`
	Name string    `json:"name"`
}

func (Group) TableName() string { return "groups" }

// User is a back-office or storefront account.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID *uint  `json:"tenant_id" gorm:"index"`
	Login    string `json:"login" gorm:"size:255;uniqueIndex;not null"`
	Email    string `json:"email" gorm:"size:255;index"`
	Name     string `json:"name"`
	// PasswordHash is a bcrypt hash.
	PasswordHash string `json:"-" gorm:"not null"`
	PartnerID    *uint  `json:"partner_id"`
	Active       bool   `json:"active" gorm:"default:true"`
	Groups       []Group `json:"groups" gorm:"many2many:user_groups"`
	// TokenVersion is embedded in session tokens; rotating it ends every session.
	TokenVersion       string     `json:"-" gorm:"size:64"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports membership of the system group.
func (u *User) IsAdmin() bool {
	return u != nil && u.HasAnyGroup(GroupSystem)
}

// HasAnyGroup reports whether u belongs to at least one of codes.
func (u *User) HasAnyGroup(codes ...GroupCode) bool {
	if u == nil {
		return false
	}
	for _, g := range u.Groups {
		for _, c := range codes {
			if g.Code == c {
				return true
			}
		}
	}
	return false
}

// GroupCodes lists the user's group codes.
func (u *User) GroupCodes() []GroupCode {
	out := make([]GroupCode, 0, len(u.Groups))
	for _, g := range u.Groups {
		out = append(out, g.Code)
	}
	return out
}

// CanAccessTenant reports whether u may act within tenantID. Users without
// a tenant are platform-wide.
func (u *User) CanAccessTenant(tenantID uint) bool {
	return u.TenantID == nil || *u.TenantID == tenantID
}

// UserRepository defines the contract for user data access.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByLogin(ctx context.Context, login string) (*User, error)
	List(ctx context.Context, tenantID *uint, limit, offset int) ([]User, int64, error)
	// SetGroups replaces the user's group memberships.
	SetGroups(ctx context.Context, userID uint, codes []GroupCode) error
	EnsureGroups(ctx context.Context, groups []Group) error
	// UpdateTokenVersion swaps the session version; used by logout.
	UpdateTokenVersion(ctx context.Context, userID uint, version string) error
}

// PartnerLinker finds or creates the customer record for a new account.
type PartnerLinker interface {
	LinkPartner(ctx context.Context, tenantID uint, email, name string) (uint, error)
}
