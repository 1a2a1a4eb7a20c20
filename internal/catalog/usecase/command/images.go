package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tair/tenant-commerce/internal/catalog/domain"
	"github.com/tair/tenant-commerce/pkg/apperr"
)

const (
	defaultPTAVImageCap = 10
	maxImageBytes       = 8 << 20
	sequenceStep        = 10
)

type UploadImageCommand struct {
	TenantID  uint
	ProductID uint
	PTAVID    *uint
	VariantID *uint
	Name      string
	Sequence  *int
	// Data is base64, optionally as a data URL.
	Data string
}

type ReorderImagesCommand struct {
	TenantID uint
	Scope    domain.ImageScope
	ImageIDs []uint
}

type ImageHandler struct {
	repo    domain.Repository
	ptavCap int
}

func NewImageHandler(repo domain.Repository, ptavCap int) *ImageHandler {
	if ptavCap <= 0 {
		ptavCap = defaultPTAVImageCap
	}
	return &ImageHandler{repo: repo, ptavCap: ptavCap}
}

func (h *ImageHandler) Upload(ctx context.Context, cmd UploadImageCommand) (*domain.Image, error) {
	if cmd.PTAVID != nil && cmd.VariantID != nil {
		return nil, apperr.Validationf("ptav_id", "an image is scoped to a value or to a variant, not both")
	}
	data, err := decodeImage(cmd.Data)
	if err != nil {
		return nil, err
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperr.Validationf("data", "unsupported image type %s", mime.String())
	}

	if _, err := h.repo.FindProduct(ctx, cmd.TenantID, cmd.ProductID); err != nil {
		return nil, err
	}
	scope := domain.ImageScope{ProductID: cmd.ProductID, PTAVID: cmd.PTAVID, VariantID: cmd.VariantID}
	if err := h.checkScope(ctx, cmd.TenantID, scope); err != nil {
		return nil, err
	}
	if cmd.PTAVID != nil {
		n, err := h.repo.CountPTAVImages(ctx, *cmd.PTAVID)
		if err != nil {
			return nil, err
		}
		if int(n) >= h.ptavCap {
			return nil, apperr.Newf(apperr.LimitExceeded, "an attribute value holds at most %d images", h.ptavCap)
		}
	}

	img := &domain.Image{
		TenantID:  cmd.TenantID,
		ProductID: cmd.ProductID,
		PTAVID:    cmd.PTAVID,
		VariantID: cmd.VariantID,
		Name:      cmd.Name,
		MimeType:  mime.String(),
		Data:      data,
	}
	if cmd.Sequence != nil {
		img.Sequence = *cmd.Sequence
	} else {
		images, err := h.inScope(ctx, scope)
		if err != nil {
			return nil, err
		}
		img.Sequence = sequenceStep
		if len(images) > 0 {
			img.Sequence = images[len(images)-1].Sequence + sequenceStep
		}
	}
	if err := h.repo.CreateImage(ctx, img); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	img.Data = nil
	return img, nil
}

// Delete removes an image only when it belongs to the declared scope.
func (h *ImageHandler) Delete(ctx context.Context, tenantID, imageID uint, scope domain.ImageScope) error {
	img, err := h.repo.FindImage(ctx, tenantID, imageID)
	if err != nil {
		return err
	}
	if !scope.Contains(*img) {
		return apperr.NotFoundf("image in the given scope")
	}
	return h.repo.DeleteImage(ctx, img.ID)
}

// Reorder renumbers the listed images in order; ids outside the scope
// are ignored. It returns the scope's images in their new order.
func (h *ImageHandler) Reorder(ctx context.Context, cmd ReorderImagesCommand) ([]domain.Image, error) {
	if _, err := h.repo.FindProduct(ctx, cmd.TenantID, cmd.Scope.ProductID); err != nil {
		return nil, err
	}
	images, err := h.inScope(ctx, cmd.Scope)
	if err != nil {
		return nil, err
	}
	in := make(map[uint]bool, len(images))
	for _, img := range images {
		in[img.ID] = true
	}
	seq := 0
	for _, id := range cmd.ImageIDs {
		if !in[id] {
			continue
		}
		in[id] = false
		seq += sequenceStep
		if err := h.repo.UpdateImageSequence(ctx, id, seq); err != nil {
			return nil, fmt.Errorf("failed to reorder images: %w", err)
		}
	}
	return h.inScope(ctx, cmd.Scope)
}

func (h *ImageHandler) checkScope(ctx context.Context, tenantID uint, scope domain.ImageScope) error {
	if scope.VariantID != nil {
		v, err := h.repo.FindVariant(ctx, tenantID, *scope.VariantID)
		if err != nil {
			return err
		}
		if v.ProductID != scope.ProductID {
			return apperr.Validationf("variant_id", "variant does not belong to the product")
		}
	}
	if scope.PTAVID != nil {
		ptavs, err := h.repo.ListPTAVs(ctx, scope.ProductID)
		if err != nil {
			return err
		}
		for _, p := range ptavs {
			if p.ID == *scope.PTAVID {
				return nil
			}
		}
		return apperr.Validationf("ptav_id", "attribute value does not belong to the product")
	}
	return nil
}

func (h *ImageHandler) inScope(ctx context.Context, scope domain.ImageScope) ([]domain.Image, error) {
	all, err := h.repo.ListImages(ctx, []uint{scope.ProductID})
	if err != nil {
		return nil, err
	}
	out := []domain.Image{}
	for _, img := range all {
		if scope.Contains(img) {
			out = append(out, img)
		}
	}
	domain.SortImages(out)
	return out, nil
}

func decodeImage(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:]
		}
	}
	if raw == "" {
		return nil, apperr.Validationf("data", "image data is required")
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(raw); err != nil {
			return nil, apperr.Validationf("data", "image data must be base64")
		}
	}
	if len(data) > maxImageBytes {
		return nil, apperr.Validationf("data", "image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
