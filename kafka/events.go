package kafka

import "time"

// Event types
const (
	EventTypeOrderConfirmed   = "order.confirmed"
	EventTypeCacheInvalidated = "cache.invalidated"
	EventTypeStockChanged     = "stock.changed"
)

// Kafka topics
const (
	TopicOrderConfirmed   = "ecommerce.order-confirmed"
	TopicCacheInvalidated = "ecommerce.cache-invalidated"
	TopicStockChanged     = "ecommerce.stock-changed"
)

// OrderConfirmedEvent is published when a cart or quotation becomes a sale.
type OrderConfirmedEvent struct {
	EventID     string             `json:"event_id"`
	EventType   string             `json:"event_type"`
	TenantID    uint               `json:"tenant_id"`
	OrderID     uint               `json:"order_id"`
	OrderName   string             `json:"order_name"`
	PartnerID   uint               `json:"partner_id"`
	PickingID   uint               `json:"picking_id,omitempty"`
	AmountTotal string             `json:"amount_total"`
	Lines       []OrderLineSummary `json:"lines"`
	Timestamp   time.Time          `json:"timestamp"`
}

type OrderLineSummary struct {
	VariantID uint    `json:"variant_id"`
	Quantity  float64 `json:"quantity"`
}

// CacheInvalidatedEvent announces a prefix invalidation to peer workers.
type CacheInvalidatedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Origin    string    `json:"origin"`
	Prefixes  []string  `json:"prefixes"`
	Timestamp time.Time `json:"timestamp"`
}

// StockChangedEvent is published after every quant write.
type StockChangedEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	TenantID   uint      `json:"tenant_id"`
	VariantID  uint      `json:"variant_id"`
	LocationID uint      `json:"location_id"`
	Quantity   float64   `json:"quantity"`
	OnHand     float64   `json:"on_hand"`
	Timestamp  time.Time `json:"timestamp"`
}
