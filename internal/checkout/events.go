package checkout

import (
	"encoding/json"
	"time"
)

const (
	TopicOrderPlaced = "store.order.placed"
	EventOrderPlaced = "OrderPlaced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID     int64        `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	AccountID   int64        `json:"account_id"`
	Total       string       `json:"total"`
	Items       []PlacedItem `json:"items"`
}

// PartitionKey keeps all events of one order on one partition.
func PartitionKey(orderNumber string) []byte { return []byte(orderNumber) }
