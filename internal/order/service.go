package order

import (
	"context"
	"sort"

	"github.com/MikeMC777/webstore-ecom/internal/catalog"
)

// ItemResolver resolves catalog items referenced by order lines.
type ItemResolver interface {
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

// ItemInOrder is one order line joined with its catalog item.
// swagger:model
type ItemInOrder struct {
	Item     catalog.Item `json:"item"`
	Quantity int          `json:"quantity"`
}

// OrderWithItems is an order joined with its lines for display.
// swagger:model
type OrderWithItems struct {
	Order Order         `json:"order"`
	Items []ItemInOrder `json:"items"`
}

// Service assembles orders with their line items for the read paths.
type Service struct {
	repo  Repository
	items ItemResolver
}

func NewService(repo Repository, items ItemResolver) *Service {
	return &Service{repo: repo, items: items}
}

// OrdersWithItems loads every order line, batch-resolves the distinct order
// and item ids it references, and groups lines by order. Lines whose order
// or item no longer resolves are skipped.
func (s *Service) OrdersWithItems(ctx context.Context) ([]OrderWithItems, error) {
	lines, err := s.repo.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []OrderWithItems{}, nil
	}

	orderIDs := distinct(lines, func(it Item) int64 { return it.OrderID })
	itemIDs := distinct(lines, func(it Item) int64 { return it.ItemID })

	orders, err := s.repo.GetByIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	catalogItems, err := s.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	ordersByID := make(map[int64]Order, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}
	itemsByID := make(map[int64]catalog.Item, len(catalogItems))
	for _, it := range catalogItems {
		itemsByID[it.ID] = it
	}

	grouped := make(map[int64][]ItemInOrder)
	for _, line := range lines {
		it, ok := itemsByID[line.ItemID]
		if !ok {
			continue
		}
		grouped[line.OrderID] = append(grouped[line.OrderID], ItemInOrder{Item: it, Quantity: line.Quantity})
	}

	out := make([]OrderWithItems, 0, len(grouped))
	for orderID, items := range grouped {
		o, ok := ordersByID[orderID]
		if !ok {
			continue
		}
		out = append(out, OrderWithItems{Order: o, Items: items})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order.ID < out[j].Order.ID })
	return out, nil
}

// OrderWithItems assembles one order for display. An order with no line
// items reads as ErrNotFound, same as a missing order; whether an empty
// order should instead render as valid-but-empty is an open product
// question.
func (s *Service) OrderWithItems(ctx context.Context, orderID int64) (*OrderWithItems, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	itemIDs := distinct(lines, func(it Item) int64 { return it.ItemID })
	catalogItems, err := s.items.GetByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	itemsByID := make(map[int64]catalog.Item, len(catalogItems))
	for _, it := range catalogItems {
		itemsByID[it.ID] = it
	}

	items := make([]ItemInOrder, 0, len(lines))
	for _, line := range lines {
		it, ok := itemsByID[line.ItemID]
		if !ok {
			continue
		}
		items = append(items, ItemInOrder{Item: it, Quantity: line.Quantity})
	}
	return &OrderWithItems{Order: *o, Items: items}, nil
}

func distinct(lines []Item, pick func(Item) int64) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	out := make([]int64, 0, len(lines))
	for _, line := range lines {
		id := pick(line)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
