package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
}

type Item struct {
	ID       int64 `json:"id"`
	OrderID  int64 `json:"order_id"`
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}
