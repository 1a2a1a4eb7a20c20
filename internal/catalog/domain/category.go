package domain

import (
	"strings"
	"time"
)

// Category is a node of a tenant's product category tree.
type Category struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null"`
	ParentID *uint  `json:"parent_id" gorm:"index"`
	// CompleteName is "Parent / Child", materialized on write.
	CompleteName string    `json:"complete_name"`
	Sequence     int       `json:"sequence"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "product_categories" }

// CategoryTree indexes a tenant's categories by id.
type CategoryTree map[uint]Category

func NewCategoryTree(categories []Category) CategoryTree {
	t := make(CategoryTree, len(categories))
	for _, c := range categories {
		t[c.ID] = c
	}
	return t
}

// IsDescendant reports whether id sits at or below ancestor. A cycle
// already present in the data stops the walk.
func (t CategoryTree) IsDescendant(id, ancestor uint) bool {
	seen := make(map[uint]bool)
	for cur := id; cur != 0 && !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		c, ok := t[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
	return false
}

// Descendants returns id and every category below it.
func (t CategoryTree) Descendants(id uint) []uint {
	var out []uint
	for cid := range t {
		if t.IsDescendant(cid, id) {
			out = append(out, cid)
		}
	}
	return out
}

// CompleteName joins the ancestor names of c down to c.
func (t CategoryTree) CompleteName(c Category) string {
	names := []string{c.Name}
	seen := map[uint]bool{c.ID: true}
	for p := c.ParentID; p != nil && !seen[*p]; {
		parent, ok := t[*p]
		if !ok {
			break
		}
		seen[parent.ID] = true
		names = append([]string{parent.Name}, names...)
		p = parent.ParentID
	}
	return strings.Join(names, " / ")
}
