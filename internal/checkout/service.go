// Package checkout orchestrates the conversion of a session cart into a
// durable order: price resolution, balance validation, atomic order
// persistence, then best-effort debit and cart cleanup.
package checkout

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/webstore-ecom/internal/catalog"
	"github.com/MikeMC777/webstore-ecom/internal/kafkax"
	"github.com/MikeMC777/webstore-ecom/internal/metrics"
	"github.com/MikeMC777/webstore-ecom/internal/order"
)

type CartStore interface {
	Items(ctx context.Context, session string) (map[int64]int, error)
	Remove(ctx context.Context, session string, itemID int64) error
	Clear(ctx context.Context, session string) error
}

type Catalog interface {
	PriceByID(ctx context.Context, id int64) (decimal.Decimal, error)
	GetByIDs(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

type OrderStore interface {
	CreateWithItems(ctx context.Context, total decimal.Decimal, orderDate time.Time, lines map[int64]int) (*order.Order, error)
}

type BalanceClient interface {
	GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	SetBalance(ctx context.Context, accountID int64, balance decimal.Decimal) (decimal.Decimal, error)
}

type EventPublisher interface {
	Publish(key, value []byte)
}

// CartLine is one cart entry joined with its catalog item.
type CartLine struct {
	Item     catalog.Item
	Quantity int
}

type Service struct {
	carts   CartStore
	catalog Catalog
	orders  OrderStore
	balance BalanceClient
	events  EventPublisher    // optional
	metrics *metrics.Checkout // optional
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewService(carts CartStore, cat Catalog, orders OrderStore, bal BalanceClient,
	events EventPublisher, m *metrics.Checkout, log *zap.SugaredLogger) *Service {
	return &Service{
		carts:   carts,
		catalog: cat,
		orders:  orders,
		balance: bal,
		events:  events,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// CheckoutCart converts the whole session cart into an order for accountID.
// On success the cart is cleared and the balance debited, both best-effort.
func (s *Service) CheckoutCart(ctx context.Context, session string, accountID int64) (*order.Order, error) {
	start := s.now()

	lines, err := s.carts.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		s.metrics.Observe("cart", metrics.ResultEmptyCart, s.now().Sub(start))
		return nil, ErrEmptyCart
	}

	o, err := s.place(ctx, lines, accountID, "cart", start)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, session); err != nil {
		s.log.Warnw("cart clear failed after checkout",
			"session", session, "order", o.OrderNumber, "err", err)
	}
	return o, nil
}

// CheckoutItem orders the cart's current quantity of one item, leaving the
// rest of the cart untouched.
func (s *Service) CheckoutItem(ctx context.Context, session string, itemID, accountID int64) (*order.Order, error) {
	start := s.now()

	lines, err := s.carts.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	qty, ok := lines[itemID]
	if !ok || qty <= 0 {
		s.metrics.Observe("item", metrics.ResultItemNotInCart, s.now().Sub(start))
		return nil, ErrItemNotInCart
	}

	o, err := s.place(ctx, map[int64]int{itemID: qty}, accountID, "item", start)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Remove(ctx, session, itemID); err != nil {
		s.log.Warnw("cart line removal failed after checkout",
			"session", session, "item", itemID, "order", o.OrderNumber, "err", err)
	}
	return o, nil
}

// place runs the shared pipeline: price the lines, validate funds, persist
// the order, then debit and announce. Everything after the order commit is
// best-effort and never fails the checkout.
func (s *Service) place(ctx context.Context, lines map[int64]int, accountID int64, scope string, start time.Time) (*order.Order, error) {
	total, err := s.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	bal, err := s.balance.GetBalance(ctx, accountID)
	if err != nil {
		s.metrics.Observe(scope, metrics.ResultBalanceFailure, s.now().Sub(start))
		return nil, &BalanceServiceError{Op: "get", Err: err}
	}
	if bal.Cmp(total) < 0 {
		s.metrics.Observe(scope, metrics.ResultInsufficientFunds, s.now().Sub(start))
		return nil, &InsufficientFundsError{Balance: bal, Required: total}
	}

	o, err := s.orders.CreateWithItems(ctx, total, s.now(), lines)
	if err != nil {
		s.metrics.Observe(scope, metrics.ResultOrderFailure, s.now().Sub(start))
		return nil, &OrderCreationError{Err: err}
	}

	// The order is durable from here on; a failed debit is logged for
	// reconciliation, never surfaced to the buyer.
	s.debit(ctx, accountID, bal, total, o.OrderNumber)
	s.announce(o, accountID, lines)
	s.metrics.Observe(scope, metrics.ResultCompleted, s.now().Sub(start))
	return o, nil
}

func (s *Service) debit(ctx context.Context, accountID int64, bal, total decimal.Decimal, orderNumber string) {
	remaining := bal.Sub(total)
	if remaining.IsNegative() {
		// Should be unreachable after the funds check; refuse to write a
		// negative balance and leave a trail instead.
		s.log.Errorw("debit would overdraw, skipping",
			"account", accountID, "order", orderNumber,
			"balance", bal.StringFixed(2), "total", total.StringFixed(2))
		return
	}
	if _, err := s.balance.SetBalance(ctx, accountID, remaining); err != nil {
		s.log.Errorw("balance debit failed, order kept",
			"account", accountID, "order", orderNumber,
			"amount", total.StringFixed(2), "err", err)
	}
}

func (s *Service) announce(o *order.Order, accountID int64, lines map[int64]int) {
	if s.events == nil {
		return
	}
	payload := OrderPlacedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		AccountID:   accountID,
		Total:       o.TotalAmount.StringFixed(2),
	}
	for id, qty := range lines {
		payload.Items = append(payload.Items, PlacedItem{ItemID: id, Quantity: qty})
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    o.OrderDate,
		Producer:      "store-service",
		CorrelationID: o.OrderNumber,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.events.Publish(PartitionKey(o.OrderNumber), kafkax.MustMarshal(env))
}

// priceLines resolves every line's unit price concurrently and sums
// quantity*price. One unresolvable item fails the whole pricing pass.
func (s *Service) priceLines(ctx context.Context, lines map[int64]int) (decimal.Decimal, error) {
	var (
		mu    sync.Mutex
		total = decimal.Zero
	)
	g, ctx := errgroup.WithContext(ctx)
	for id, qty := range lines {
		g.Go(func() error {
			price, err := s.catalog.PriceByID(ctx, id)
			if err != nil {
				return err
			}
			sub := price.Mul(decimal.NewFromInt(int64(qty)))
			mu.Lock()
			total = total.Add(sub)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ItemsInCart joins the session cart with the catalog, sorted by item id.
func (s *Service) ItemsInCart(ctx context.Context, session string) ([]CartLine, error) {
	lines, err := s.carts.Items(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	items, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CartLine, 0, len(items))
	for _, it := range items {
		out = append(out, CartLine{Item: it, Quantity: lines[it.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	return out, nil
}

// CartTotal prices the current cart without side effects. An empty cart
// totals zero.
func (s *Service) CartTotal(ctx context.Context, session string) (decimal.Decimal, error) {
	lines, err := s.carts.Items(ctx, session)
	if err != nil {
		return decimal.Zero, err
	}
	if len(lines) == 0 {
		return decimal.Zero, nil
	}
	return s.priceLines(ctx, lines)
}
