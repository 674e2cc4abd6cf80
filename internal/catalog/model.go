package catalog

import "github.com/shopspring/decimal"

type Item struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	ImgPath     string          `json:"img_path,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// ListResponse represents the paginated catalog listing.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// sort key applied
	Sort string `json:"sort"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	Items  []Item `json:"items"`
}
