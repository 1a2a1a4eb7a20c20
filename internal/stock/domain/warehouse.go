package domain

import "time"

// Warehouse groups the locations and operation types of one site.
type Warehouse struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TenantID       uint      `json:"tenant_id" gorm:"not null;uniqueIndex:ux_warehouse_code"`
	Name           string    `json:"name" gorm:"not null"`
	Code           string    `json:"code" gorm:"size:8;not null;uniqueIndex:ux_warehouse_code"`
	ViewLocationID uint      `json:"view_location_id"`
	LotStockID     uint      `json:"lot_stock_id"`
	InputID        uint      `json:"input_location_id"`
	OutputID       uint      `json:"output_location_id"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Warehouse) TableName() string { return "stock_warehouses" }

type PickingCode string

const (
	PickingIncoming PickingCode = "incoming"
	PickingOutgoing PickingCode = "outgoing"
	PickingInternal PickingCode = "internal"
)

type PickingType struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	TenantID      uint        `json:"tenant_id" gorm:"not null;index"`
	WarehouseID   uint        `json:"warehouse_id" gorm:"not null;index"`
	Name          string      `json:"name"`
	Code          PickingCode `json:"code" gorm:"size:16;not null"`
	Prefix        string      `json:"sequence_prefix"`
	DefaultSrcID  uint        `json:"default_location_src_id"`
	DefaultDestID uint        `json:"default_location_dest_id"`
	NextNumber    int         `json:"-"`
}

func (PickingType) TableName() string { return "stock_picking_types" }
