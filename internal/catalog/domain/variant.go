package domain

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Variant is a concrete sellable instance of a product. Nil overrides
// fall back to the product's values.
type Variant struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	TenantID  uint `json:"tenant_id" gorm:"not null;index"`
	ProductID uint `json:"product_id" gorm:"not null;uniqueIndex:idx_variant_combination"`
	// Combination is the CombinationKey of the variant's PTAVs.
	Combination   string    `json:"combination" gorm:"not null;uniqueIndex:idx_variant_combination"`
	ListPrice     *float64  `json:"list_price_override"`
	StandardPrice *float64  `json:"standard_price_override"`
	DefaultCode   *string   `json:"default_code_override" gorm:"size:128"`
	Barcode       *string   `json:"barcode_override" gorm:"size:128"`
	Active        bool      `json:"active" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Variant) TableName() string { return "product_variants" }

func (v *Variant) PTAVIDs() []uint { return ParseCombination(v.Combination) }

func (v *Variant) EffectiveListPrice(p *Product) float64 {
	if v.ListPrice != nil {
		return *v.ListPrice
	}
	return p.ListPrice
}

func (v *Variant) EffectiveStandardPrice(p *Product) float64 {
	if v.StandardPrice != nil {
		return *v.StandardPrice
	}
	return p.StandardPrice
}

func (v *Variant) EffectiveDefaultCode(p *Product) string {
	if v.DefaultCode != nil {
		return *v.DefaultCode
	}
	return p.DefaultCode
}

func (v *Variant) EffectiveBarcode(p *Product) string {
	if v.Barcode != nil {
		return *v.Barcode
	}
	return p.Barcode
}

// LineSet is a product's attribute lines with their attributes and
// active PTAVs, the input to variant materialization.
type LineSet struct {
	Lines      []AttributeLine
	Attributes map[uint]Attribute
	// PTAVs holds active PTAVs keyed by line id.
	PTAVs map[uint][]PTAV
}

func (s LineSet) policy(l AttributeLine) CreateVariantPolicy {
	return s.Attributes[l.AttributeID].CreateVariant
}

// HasDynamic reports whether any line creates variants on demand.
func (s LineSet) HasDynamic() bool {
	for _, l := range s.Lines {
		if s.policy(l) == CreateDynamic {
			return true
		}
	}
	return false
}

// Combinations is the cross product of the always lines' PTAVs. With
// no always line the result is the single empty (default) combination.
func (s LineSet) Combinations() [][]uint {
	out := [][]uint{{}}
	for _, l := range s.Lines {
		if s.policy(l) != CreateAlways {
			continue
		}
		var next [][]uint
		for _, prefix := range out {
			for _, ptav := range s.PTAVs[l.ID] {
				combo := append(append([]uint(nil), prefix...), ptav.ID)
				next = append(next, combo)
			}
		}
		out = next
	}
	return out
}

// Valid reports whether combination picks exactly one active PTAV from
// every variant-creating line and nothing else.
func (s LineSet) Valid(combination []uint) bool {
	lineOf := make(map[uint]uint)
	for lineID, ptavs := range s.PTAVs {
		for _, p := range ptavs {
			lineOf[p.ID] = lineID
		}
	}
	seen := make(map[uint]bool)
	for _, id := range combination {
		lineID, ok := lineOf[id]
		if !ok || seen[lineID] {
			return false
		}
		seen[lineID] = true
	}
	for _, l := range s.Lines {
		p := s.policy(l)
		creates := p == CreateAlways || p == CreateDynamic
		if creates != seen[l.ID] {
			return false
		}
	}
	return true
}

// LoadLineSet reads a product's lines, their attributes and active PTAVs.
// PTAVs follow the attribute's value order.
func LoadLineSet(ctx context.Context, repo AttributeRepository, p *Product) (LineSet, error) {
	set := LineSet{Attributes: make(map[uint]Attribute), PTAVs: make(map[uint][]PTAV)}
	lines, err := repo.ListLines(ctx, p.ID)
	if err != nil {
		return set, fmt.Errorf("failed to load attribute lines: %w", err)
	}
	// Lines and values are walked by sequence so combinations come out in
	// the same order on every run.
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Sequence != lines[j].Sequence {
			return lines[i].Sequence < lines[j].Sequence
		}
		return lines[i].ID < lines[j].ID
	})
	set.Lines = lines
	ptavs, err := repo.ListPTAVs(ctx, p.ID)
	if err != nil {
		return set, fmt.Errorf("failed to load attribute values: %w", err)
	}
	byValue := make(map[uint]PTAV)
	for _, ptav := range ptavs {
		if ptav.Active {
			byValue[ptav.ValueID] = ptav
		}
	}
	for _, l := range lines {
		attr, err := repo.FindAttribute(ctx, p.TenantID, l.AttributeID)
		if err != nil {
			return set, err
		}
		set.Attributes[attr.ID] = *attr
		values := append([]AttributeValue(nil), attr.Values...)
		sort.SliceStable(values, func(i, j int) bool {
			if values[i].Sequence != values[j].Sequence {
				return values[i].Sequence < values[j].Sequence
			}
			return values[i].ID < values[j].ID
		})
		for _, v := range values {
			if ptav, ok := byValue[v.ID]; ok && ptav.LineID == l.ID {
				set.PTAVs[l.ID] = append(set.PTAVs[l.ID], ptav)
			}
		}
	}
	return set, nil
}
