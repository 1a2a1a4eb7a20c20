package domain

import (
	"time"

	"github.com/tair/tenant-commerce/pkg/apperr"
)

type CountState string

const (
	CountDraft      CountState = "draft"
	CountScheduled  CountState = "scheduled"
	CountInProgress CountState = "in_progress"
	CountDone       CountState = "done"
	CountCancel     CountState = "cancel"
)

// CycleCount is a scheduled physical count of some locations.
type CycleCount struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	TenantID       uint             `json:"tenant_id" gorm:"not null;index"`
	Name           string           `json:"name" gorm:"not null"`
	State          CountState       `json:"state" gorm:"size:16;not null"`
	ScheduledDate  *time.Time       `json:"scheduled_date"`
	CompletionDate *time.Time       `json:"completion_date"`
	Locations      []Location       `json:"locations" gorm:"many2many:cycle_count_locations"`
	CategoryID     *uint            `json:"category_id"`
	Lines          []CycleCountLine `json:"lines" gorm:"foreignKey:CycleCountID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (CycleCount) TableName() string { return "cycle_counts" }

func (c *CycleCount) LocationIDs() []uint {
	ids := make([]uint, 0, len(c.Locations))
	for _, l := range c.Locations {
		ids = append(ids, l.ID)
	}
	return ids
}

// CycleCountLine counts one quant: a variant at a location, per lot.
type CycleCountLine struct {
	ID             uint     `json:"id" gorm:"primaryKey"`
	CycleCountID   uint     `json:"cycle_count_id" gorm:"not null;index"`
	VariantID      uint     `json:"variant_id" gorm:"not null"`
	LocationID     uint     `json:"location_id" gorm:"not null"`
	LotID          *uint    `json:"lot_id"`
	TheoreticalQty float64  `json:"theoretical_qty"`
	CountedQty     *float64 `json:"counted_qty"`
	Difference     float64  `json:"difference"`
	StandardPrice  float64  `json:"standard_price"`
	ValueDiff      float64  `json:"value_difference"`
}

func (CycleCountLine) TableName() string { return "cycle_count_lines" }

// SetCounted records a count and recomputes the differences.
func (l *CycleCountLine) SetCounted(qty float64) {
	l.CountedQty = &qty
	l.Difference = qty - l.TheoreticalQty
	l.ValueDiff = l.Difference * l.StandardPrice
}

func (c *CycleCount) transition(to CountState, from ...CountState) error {
	for _, s := range from {
		if c.State == s {
			c.State = to
			return nil
		}
	}
	return apperr.Newf(apperr.InvalidState, "cycle count is %s; cannot move to %s", c.State, to)
}

func (c *CycleCount) Schedule() error { return c.transition(CountScheduled, CountDraft) }

func (c *CycleCount) Start() error {
	return c.transition(CountInProgress, CountDraft, CountScheduled)
}

// CanGenerate reports whether lines may be (re)generated.
func (c *CycleCount) CanGenerate() bool {
	return c.State == CountDraft || c.State == CountScheduled || c.State == CountInProgress
}

// LinesEditable reports whether counted quantities may change.
func (c *CycleCount) LinesEditable() bool {
	return c.State == CountScheduled || c.State == CountInProgress
}

func (c *CycleCount) Finish(at time.Time) error {
	if err := c.transition(CountDone, CountInProgress); err != nil {
		return err
	}
	c.CompletionDate = &at
	return nil
}

func (c *CycleCount) Cancel() error {
	return c.transition(CountCancel, CountDraft, CountScheduled, CountInProgress)
}
