package domain

import "time"

type Lot struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	TenantID       uint       `json:"tenant_id" gorm:"not null;uniqueIndex:ux_lot_name"`
	VariantID      uint       `json:"variant_id" gorm:"not null;uniqueIndex:ux_lot_name"`
	Name           string     `json:"name" gorm:"not null;uniqueIndex:ux_lot_name"`
	ExpirationDate *time.Time `json:"expiration_date"`
	UseDate        *time.Time `json:"use_date"`
	RemovalDate    *time.Time `json:"removal_date"`
	AlertDate      *time.Time `json:"alert_date"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Lot) TableName() string { return "stock_lots" }

type LotStatus string

const (
	LotExpired   LotStatus = "expired"
	LotRemoval   LotStatus = "removal"
	LotAlert     LotStatus = "alert"
	LotOK        LotStatus = "ok"
	LotOKButSoon LotStatus = "ok_but_soon"
)

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func reached(date *time.Time, today time.Time) bool {
	return date != nil && !day(date.In(today.Location())).After(today)
}

// Status is the lot's state on the day of now: expired over removal over
// alert over ok. An alert also fires once the best-before date passes.
func (l *Lot) Status(now time.Time) LotStatus {
	today := day(now)
	switch {
	case reached(l.ExpirationDate, today):
		return LotExpired
	case reached(l.RemovalDate, today):
		return LotRemoval
	case reached(l.AlertDate, today), reached(l.UseDate, today):
		return LotAlert
	}
	return LotOK
}

// AlertStatus refines ok into ok_but_soon when any date falls within
// the next withinDays days.
func (l *Lot) AlertStatus(now time.Time, withinDays int) LotStatus {
	s := l.Status(now)
	if s != LotOK {
		return s
	}
	horizon := day(now).AddDate(0, 0, withinDays)
	for _, d := range []*time.Time{l.ExpirationDate, l.RemovalDate, l.AlertDate, l.UseDate} {
		if reached(d, horizon) {
			return LotOKButSoon
		}
	}
	return LotOK
}
