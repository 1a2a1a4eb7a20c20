package domain

type RibbonPosition string

const (
	RibbonLeft  RibbonPosition = "left"
	RibbonRight RibbonPosition = "right"
)

type RibbonStyle string

const (
	StyleBadge  RibbonStyle = "badge"
	StyleRibbon RibbonStyle = "ribbon"
	StyleTag    RibbonStyle = "tag"
)

// Ribbon is the badge shown on a product card.
type Ribbon struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	BgColor   string         `json:"bg_color" gorm:"size:16"`
	TextColor string         `json:"text_color" gorm:"size:16"`
	Position  RibbonPosition `json:"position" gorm:"size:8"`
	Style     RibbonStyle    `json:"style" gorm:"size:8"`
	Active    bool           `json:"active"`
}

func (Ribbon) TableName() string { return "product_ribbons" }

type Tag struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;index"`
	Name     string `json:"name" gorm:"not null"`
}

func (Tag) TableName() string { return "product_tags" }

// Tax is a sales tax; Amount is a percentage.
type Tax struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	TenantID     uint    `json:"tenant_id" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"not null"`
	Amount       float64 `json:"amount"`
	PriceInclude bool    `json:"price_include"`
	Active       bool    `json:"active"`
}

func (Tax) TableName() string { return "account_taxes" }

// Currency is shared by every tenant.
type Currency struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Code     string  `json:"code" gorm:"size:3;uniqueIndex;not null"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol" gorm:"size:8"`
	Position string  `json:"position" gorm:"size:8"`
	Rate     float64 `json:"rate"`
	Active   bool    `json:"active"`
}

func (Currency) TableName() string { return "currencies" }

// DefaultCurrencies are seeded at startup.
var DefaultCurrencies = []Currency{
	{Code: "TND", Name: "Tunisian Dinar", Symbol: "DT", Position: "after", Rate: 1, Active: true},
	{Code: "EUR", Name: "Euro", Symbol: "€", Position: "after", Rate: 0.3, Active: true},
	{Code: "USD", Name: "US Dollar", Symbol: "$", Position: "before", Rate: 0.32, Active: true},
}
