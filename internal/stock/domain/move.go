package domain

import "time"

type MoveState string

const (
	MoveDraft    MoveState = "draft"
	MoveWaiting  MoveState = "waiting"
	MoveAssigned MoveState = "assigned"
	MoveDone     MoveState = "done"
	MoveCancel   MoveState = "cancel"
)

// Pending reports whether the move still affects virtual availability.
func (s MoveState) Pending() bool {
	return s == MoveWaiting || s == MoveAssigned
}

// Move transfers a quantity of a variant between two locations.
type Move struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TenantID       uint      `json:"tenant_id" gorm:"not null;index"`
	VariantID      uint      `json:"variant_id" gorm:"not null;index"`
	LocationID     uint      `json:"location_id" gorm:"not null;index"`
	LocationDestID uint      `json:"location_dest_id" gorm:"not null;index"`
	LotID          *uint     `json:"lot_id"`
	PickingID      *uint     `json:"picking_id" gorm:"index"`
	Quantity       float64   `json:"quantity"`
	State          MoveState `json:"state" gorm:"size:16;not null;index"`
	Reference      string    `json:"reference"`
	Date           time.Time `json:"date"`
}

func (Move) TableName() string { return "stock_moves" }

// MoveType is the history tag derived from the location usages.
type MoveType string

const (
	MoveIn         MoveType = "in"
	MoveOut        MoveType = "out"
	MoveInternal   MoveType = "internal"
	MoveAdjustment MoveType = "adjustment"
	MoveOther      MoveType = "other"
)

func ValidMoveType(t MoveType) bool {
	switch t {
	case MoveIn, MoveOut, MoveInternal, MoveAdjustment, MoveOther:
		return true
	}
	return false
}

// TypeOf tags a move by (source usage, destination usage). Anything
// touching an inventory location is an adjustment.
func TypeOf(src, dst Usage) MoveType {
	switch {
	case src == UsageInventory || dst == UsageInventory:
		return MoveAdjustment
	case src == UsageSupplier && dst == UsageInternal:
		return MoveIn
	case src == UsageInternal && dst == UsageCustomer:
		return MoveOut
	case src == UsageInternal && dst == UsageInternal:
		return MoveInternal
	}
	return MoveOther
}

// MoveFilter selects done moves for history and demand series.
type MoveFilter struct {
	TenantID   uint
	VariantIDs []uint
	From       *time.Time
	To         *time.Time
	States     []MoveState
	PickingID  *uint
	// LocationIDs matches moves whose source or destination is listed.
	LocationIDs []uint
}

type PickingState string

const (
	PickingDraft    PickingState = "draft"
	PickingWaiting  PickingState = "waiting"
	PickingAssigned PickingState = "assigned"
	PickingDone     PickingState = "done"
	PickingCancel   PickingState = "cancel"
)

func (s PickingState) Active() bool {
	return s != PickingDone && s != PickingCancel
}

// Picking is a transfer document grouping moves, such as a delivery order.
type Picking struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	TenantID       uint         `json:"tenant_id" gorm:"not null;index"`
	Name           string       `json:"name" gorm:"not null"`
	PickingTypeID  uint         `json:"picking_type_id" gorm:"not null"`
	LocationID     uint         `json:"location_id"`
	LocationDestID uint         `json:"location_dest_id"`
	State          PickingState `json:"state" gorm:"size:16;not null;index"`
	Origin         string       `json:"origin"`
	OrderID        *uint        `json:"order_id" gorm:"index"`
	PartnerID      *uint        `json:"partner_id"`
	ScheduledDate  time.Time    `json:"scheduled_date"`
	DateDone       *time.Time   `json:"date_done"`
	Moves          []Move       `json:"moves" gorm:"foreignKey:PickingID"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (Picking) TableName() string { return "stock_pickings" }
