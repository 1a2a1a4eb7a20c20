package domain

import (
	"fmt"
	"sort"
	"time"
)

// Image is a product picture. With PTAVID set it is shared by every
// variant carrying that value; with VariantID set it belongs to one
// variant; otherwise it is a template image.
type Image struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"not null;index"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	PTAVID    *uint     `json:"ptav_id" gorm:"index"`
	VariantID *uint     `json:"variant_id" gorm:"index"`
	Name      string    `json:"name"`
	Sequence  int       `json:"sequence"`
	MimeType  string    `json:"mime_type" gorm:"size:64"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Image) TableName() string { return "product_images" }

// ImageScope is the declared owner of an image for delete and reorder.
type ImageScope struct {
	ProductID uint
	PTAVID    *uint
	VariantID *uint
}

// Contains reports whether img belongs to exactly this scope.
func (s ImageScope) Contains(img Image) bool {
	if img.ProductID != s.ProductID {
		return false
	}
	switch {
	case s.VariantID != nil:
		return img.VariantID != nil && *img.VariantID == *s.VariantID
	case s.PTAVID != nil:
		return img.PTAVID != nil && *img.PTAVID == *s.PTAVID && img.VariantID == nil
	default:
		return img.PTAVID == nil && img.VariantID == nil
	}
}

// SortImages orders by sequence, then id.
func SortImages(images []Image) {
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Sequence != images[j].Sequence {
			return images[i].Sequence < images[j].Sequence
		}
		return images[i].ID < images[j].ID
	})
}

// TemplateImages returns the product-level images in display order.
func TemplateImages(images []Image) []Image {
	var out []Image
	for _, img := range images {
		if img.PTAVID == nil && img.VariantID == nil {
			out = append(out, img)
		}
	}
	SortImages(out)
	return out
}

// ResolveVariantImages builds a variant's gallery: its own images, then
// images of any of its PTAVs, and only when both are empty the template
// default image.
func ResolveVariantImages(v Variant, images []Image) []Image {
	var own, shared []Image
	ptavs := make(map[uint]bool)
	for _, id := range v.PTAVIDs() {
		ptavs[id] = true
	}
	for _, img := range images {
		switch {
		case img.VariantID != nil:
			if *img.VariantID == v.ID {
				own = append(own, img)
			}
		case img.PTAVID != nil:
			if ptavs[*img.PTAVID] {
				shared = append(shared, img)
			}
		}
	}
	SortImages(own)
	SortImages(shared)
	out := append(own, shared...)
	if len(out) == 0 {
		if tpl := TemplateImages(images); len(tpl) > 0 {
			out = tpl[:1]
		}
	}
	return out
}

// ImageURL is where the image bytes are served.
func ImageURL(id uint) string {
	return fmt.Sprintf("/api/ecommerce/images/%d/raw", id)
}
