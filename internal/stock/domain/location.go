package domain

import (
	"strings"
	"time"
)

type Usage string

const (
	UsageView      Usage = "view"
	UsageInternal  Usage = "internal"
	UsageSupplier  Usage = "supplier"
	UsageCustomer  Usage = "customer"
	UsageInventory Usage = "inventory"
	UsageTransit   Usage = "transit"
)

func ValidUsage(u Usage) bool {
	switch u {
	case UsageView, UsageInternal, UsageSupplier, UsageCustomer, UsageInventory, UsageTransit:
		return true
	}
	return false
}

// Location is a node of the stock location tree. Only internal locations
// count toward on-hand.
type Location struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	TenantID     uint       `json:"tenant_id" gorm:"not null;index"`
	Name         string     `json:"name" gorm:"not null"`
	CompleteName string     `json:"complete_name"`
	ParentID     *uint      `json:"parent_id" gorm:"index"`
	Usage        Usage      `json:"usage" gorm:"size:16;not null"`
	WarehouseID  *uint      `json:"warehouse_id" gorm:"index"`
	Barcode      string     `json:"barcode"`
	Active       bool       `json:"active"`
	IsLocked     bool       `json:"is_locked"`
	LockReason   string     `json:"lock_reason"`
	LockedBy     string     `json:"locked_by"`
	LockedDate   *time.Time `json:"locked_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Location) TableName() string { return "stock_locations" }

func (l *Location) IsInternal() bool { return l.Usage == UsageInternal }

// LocationTree indexes a tenant's locations by id.
type LocationTree map[uint]Location

func NewLocationTree(locations []Location) LocationTree {
	t := make(LocationTree, len(locations))
	for _, l := range locations {
		t[l.ID] = l
	}
	return t
}

// IsDescendant reports whether id sits at or below ancestor.
func (t LocationTree) IsDescendant(id, ancestor uint) bool {
	seen := make(map[uint]bool)
	for cur := id; cur != 0 && !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		l, ok := t[cur]
		if !ok || l.ParentID == nil {
			return false
		}
		cur = *l.ParentID
	}
	return false
}

// Subtree returns id and every location below it.
func (t LocationTree) Subtree(id uint) []uint {
	var out []uint
	for lid := range t {
		if t.IsDescendant(lid, id) {
			out = append(out, lid)
		}
	}
	return out
}

func (t LocationTree) CompleteName(l Location) string {
	names := []string{l.Name}
	seen := map[uint]bool{l.ID: true}
	for p := l.ParentID; p != nil && !seen[*p]; {
		parent, ok := t[*p]
		if !ok {
			break
		}
		seen[parent.ID] = true
		names = append([]string{parent.Name}, names...)
		p = parent.ParentID
	}
	return strings.Join(names, "/")
}
