package domain

import (
	"sort"
	"strconv"
	"strings"
)

type DisplayType string

const (
	DisplaySwatch DisplayType = "swatch"
	DisplayPill   DisplayType = "pill"
	DisplayRadio  DisplayType = "radio"
	DisplaySelect DisplayType = "select"
	DisplayColor  DisplayType = "color"
)

func ValidDisplayType(d DisplayType) bool {
	switch d {
	case DisplaySwatch, DisplayPill, DisplayRadio, DisplaySelect, DisplayColor:
		return true
	}
	return false
}

// CreateVariantPolicy decides whether an attribute materializes variants.
type CreateVariantPolicy string

const (
	CreateAlways    CreateVariantPolicy = "always"
	CreateDynamic   CreateVariantPolicy = "dynamic"
	CreateNoVariant CreateVariantPolicy = "no_variant"
)

func ValidCreateVariant(p CreateVariantPolicy) bool {
	switch p {
	case CreateAlways, CreateDynamic, CreateNoVariant:
		return true
	}
	return false
}

// Attribute is a tenant's shared vocabulary entry (color, size, ...).
type Attribute struct {
	ID            uint                `json:"id" gorm:"primaryKey"`
	TenantID      uint                `json:"tenant_id" gorm:"not null;index"`
	Name          string              `json:"name" gorm:"not null"`
	DisplayType   DisplayType         `json:"display_type" gorm:"size:16;not null"`
	CreateVariant CreateVariantPolicy `json:"create_variant" gorm:"size:16;not null"`
	Sequence      int                 `json:"sequence"`
	Values        []AttributeValue    `json:"values" gorm:"foreignKey:AttributeID"`
}

func (Attribute) TableName() string { return "product_attributes" }

type AttributeValue struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	AttributeID uint   `json:"attribute_id" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null"`
	HTMLColor   string `json:"html_color,omitempty" gorm:"size:16"`
	Sequence    int    `json:"sequence"`
}

func (AttributeValue) TableName() string { return "product_attribute_values" }

// AttributeLine assigns an attribute to a product. Its allowed values are
// the line's active PTAVs.
type AttributeLine struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	ProductID   uint `json:"product_id" gorm:"not null;uniqueIndex:idx_line_product_attribute"`
	AttributeID uint `json:"attribute_id" gorm:"not null;uniqueIndex:idx_line_product_attribute"`
	Sequence    int  `json:"sequence"`
}

func (AttributeLine) TableName() string { return "product_attribute_lines" }

// PTAV is a materialized (product, attribute, value) tuple. PTAVs are
// archived rather than deleted so images keyed by them survive.
type PTAV struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	ProductID   uint `json:"product_id" gorm:"not null;uniqueIndex:idx_ptav_product_value"`
	LineID      uint `json:"line_id" gorm:"not null;index"`
	AttributeID uint `json:"attribute_id" gorm:"not null"`
	ValueID     uint `json:"value_id" gorm:"not null;uniqueIndex:idx_ptav_product_value"`
	Active      bool `json:"active"`
}

func (PTAV) TableName() string { return "product_template_attribute_values" }

// CombinationKey is the canonical form of a PTAV id set: sorted,
// comma-separated. The empty key is the default variant.
func CombinationKey(ids []uint) string {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, 0, len(sorted))
	var last uint
	for i, id := range sorted {
		if i > 0 && id == last {
			continue
		}
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
		last = id
	}
	return strings.Join(parts, ",")
}

// ParseCombination is the inverse of CombinationKey. Malformed parts are skipped.
func ParseCombination(key string) []uint {
	if key == "" {
		return nil
	}
	var out []uint
	for _, part := range strings.Split(key, ",") {
		id, err := strconv.ParseUint(part, 10, 64)
		if err == nil && id > 0 {
			out = append(out, uint(id))
		}
	}
	return out
}
