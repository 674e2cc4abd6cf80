package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/webstore-ecom/internal/catalog"
	"github.com/MikeMC777/webstore-ecom/internal/order"
)

type fakeCarts struct {
	lines   map[int64]int
	cleared bool
	removed []int64
}

func (f *fakeCarts) Items(_ context.Context, _ string) (map[int64]int, error) {
	out := make(map[int64]int, len(f.lines))
	for id, qty := range f.lines {
		out[id] = qty
	}
	return out, nil
}

func (f *fakeCarts) Remove(_ context.Context, _ string, itemID int64) error {
	f.removed = append(f.removed, itemID)
	delete(f.lines, itemID)
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, _ string) error {
	f.cleared = true
	f.lines = map[int64]int{}
	return nil
}

type fakeCatalog struct {
	prices map[int64]string
}

func (f *fakeCatalog) PriceByID(_ context.Context, id int64) (decimal.Decimal, error) {
	raw, ok := f.prices[id]
	if !ok {
		return decimal.Zero, catalog.ErrNotFound
	}
	return decimal.NewFromString(raw)
}

func (f *fakeCatalog) GetByIDs(_ context.Context, ids []int64) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, id := range ids {
		raw, ok := f.prices[id]
		if !ok {
			continue
		}
		price, _ := decimal.NewFromString(raw)
		out = append(out, catalog.Item{ID: id, Title: "item", Price: price})
	}
	return out, nil
}

type fakeOrders struct {
	err     error
	created *order.Order
	total   decimal.Decimal
	lines   map[int64]int
}

func (f *fakeOrders) CreateWithItems(_ context.Context, total decimal.Decimal, orderDate time.Time, lines map[int64]int) (*order.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.total = total
	f.lines = lines
	f.created = &order.Order{
		ID:          7,
		OrderNumber: "ORD-2026-001",
		TotalAmount: total,
		OrderDate:   orderDate,
	}
	return f.created, nil
}

type fakeBalance struct {
	balance  string
	getErr   error
	setErr   error
	setCalls []decimal.Decimal
}

func (f *fakeBalance) GetBalance(_ context.Context, _ int64) (decimal.Decimal, error) {
	if f.getErr != nil {
		return decimal.Zero, f.getErr
	}
	return decimal.NewFromString(f.balance)
}

func (f *fakeBalance) SetBalance(_ context.Context, _ int64, balance decimal.Decimal) (decimal.Decimal, error) {
	if f.setErr != nil {
		return decimal.Zero, f.setErr
	}
	f.setCalls = append(f.setCalls, balance)
	return balance, nil
}

type fakeEvents struct {
	published [][]byte
}

func (f *fakeEvents) Publish(_, value []byte) {
	f.published = append(f.published, value)
}

func newTestService(carts *fakeCarts, cat *fakeCatalog, orders *fakeOrders, bal *fakeBalance, ev EventPublisher) *Service {
	return NewService(carts, cat, orders, bal, ev, nil, zap.NewNop().Sugar())
}

func TestCheckoutCartHappyPath(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 2, 2: 1}}
	cat := &fakeCatalog{prices: map[int64]string{1: "10.00", 2: "5.00"}}
	orders := &fakeOrders{}
	bal := &fakeBalance{balance: "100.00"}
	ev := &fakeEvents{}
	svc := newTestService(carts, cat, orders, bal, ev)

	o, err := svc.CheckoutCart(context.Background(), "sess", 1)
	if err != nil {
		t.Fatalf("CheckoutCart: %v", err)
	}
	if got := o.TotalAmount.StringFixed(2); got != "25.00" {
		t.Errorf("total = %s, want 25.00", got)
	}
	if len(orders.lines) != 2 || orders.lines[1] != 2 || orders.lines[2] != 1 {
		t.Errorf("persisted lines = %v", orders.lines)
	}
	if len(bal.setCalls) != 1 || bal.setCalls[0].StringFixed(2) != "75.00" {
		t.Errorf("debit calls = %v, want one call with 75.00", bal.setCalls)
	}
	if !carts.cleared {
		t.Error("cart was not cleared")
	}
	if len(ev.published) != 1 {
		t.Fatalf("published %d events, want 1", len(ev.published))
	}
}

func TestCheckoutCartEventRoundTrip(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{3: 4}}
	cat := &fakeCatalog{prices: map[int64]string{3: "2.50"}}
	ev := &fakeEvents{}
	svc := newTestService(carts, cat, &fakeOrders{}, &fakeBalance{balance: "50.00"}, ev)

	if _, err := svc.CheckoutCart(context.Background(), "sess", 1); err != nil {
		t.Fatalf("CheckoutCart: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(ev.published[0], &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.EventType != EventOrderPlaced || env.EventVersion != 1 {
		t.Errorf("envelope = %+v", env)
	}
	var payload OrderPlacedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderNumber != "ORD-2026-001" || payload.Total != "10.00" {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.Items) != 1 || payload.Items[0].ItemID != 3 || payload.Items[0].Quantity != 4 {
		t.Errorf("payload items = %+v", payload.Items)
	}
}

func TestCheckoutCartInsufficientFunds(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 2}}
	cat := &fakeCatalog{prices: map[int64]string{1: "60.00"}}
	orders := &fakeOrders{}
	bal := &fakeBalance{balance: "100.00"}
	svc := newTestService(carts, cat, orders, bal, nil)

	for attempt := 0; attempt < 2; attempt++ {
		_, err := svc.CheckoutCart(context.Background(), "sess", 1)
		var ife *InsufficientFundsError
		if !errors.As(err, &ife) {
			t.Fatalf("attempt %d: err = %v, want InsufficientFundsError", attempt, err)
		}
		if ife.Balance.StringFixed(2) != "100.00" || ife.Required.StringFixed(2) != "120.00" {
			t.Errorf("error figures = %s/%s", ife.Balance, ife.Required)
		}
		if ife.Missing().StringFixed(2) != "20.00" {
			t.Errorf("missing = %s, want 20.00", ife.Missing())
		}
	}
	if orders.created != nil {
		t.Error("order persisted despite insufficient funds")
	}
	if carts.cleared || len(bal.setCalls) != 0 {
		t.Error("cart or balance mutated despite insufficient funds")
	}
}

func TestCheckoutCartEmpty(t *testing.T) {
	t.Parallel()

	orders := &fakeOrders{}
	bal := &fakeBalance{balance: "100.00"}
	svc := newTestService(&fakeCarts{lines: map[int64]int{}}, &fakeCatalog{}, orders, bal, nil)

	_, err := svc.CheckoutCart(context.Background(), "sess", 1)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if orders.created != nil || len(bal.setCalls) != 0 {
		t.Error("side effects on empty cart checkout")
	}
}

func TestCheckoutItemNotInCart(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 1}}
	svc := newTestService(carts, &fakeCatalog{prices: map[int64]string{1: "1.00"}},
		&fakeOrders{}, &fakeBalance{balance: "100.00"}, nil)

	_, err := svc.CheckoutItem(context.Background(), "sess", 99, 1)
	if !errors.Is(err, ErrItemNotInCart) {
		t.Fatalf("err = %v, want ErrItemNotInCart", err)
	}
	if carts.lines[1] != 1 {
		t.Error("cart changed by failed single-item checkout")
	}
}

func TestCheckoutItemRemovesOnlyThatLine(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 2, 2: 5}}
	cat := &fakeCatalog{prices: map[int64]string{1: "10.00", 2: "1.00"}}
	orders := &fakeOrders{}
	svc := newTestService(carts, cat, orders, &fakeBalance{balance: "100.00"}, nil)

	o, err := svc.CheckoutItem(context.Background(), "sess", 1, 1)
	if err != nil {
		t.Fatalf("CheckoutItem: %v", err)
	}
	if got := o.TotalAmount.StringFixed(2); got != "20.00" {
		t.Errorf("total = %s, want 20.00", got)
	}
	if len(orders.lines) != 1 || orders.lines[1] != 2 {
		t.Errorf("persisted lines = %v, want only item 1 x2", orders.lines)
	}
	if carts.cleared {
		t.Error("whole cart cleared by single-item checkout")
	}
	if _, still := carts.lines[2]; !still {
		t.Error("unrelated cart line removed")
	}
	if _, gone := carts.lines[1]; gone {
		t.Error("ordered line still in cart")
	}
}

func TestCheckoutBalanceReadFailureAborts(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 1}}
	orders := &fakeOrders{}
	bal := &fakeBalance{getErr: errors.New("connection refused")}
	svc := newTestService(carts, &fakeCatalog{prices: map[int64]string{1: "5.00"}}, orders, bal, nil)

	_, err := svc.CheckoutCart(context.Background(), "sess", 1)
	var bse *BalanceServiceError
	if !errors.As(err, &bse) || bse.Op != "get" {
		t.Fatalf("err = %v, want BalanceServiceError{Op: get}", err)
	}
	if orders.created != nil || carts.cleared {
		t.Error("writes happened despite balance read failure")
	}
}

func TestCheckoutBalanceWriteFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 1}}
	bal := &fakeBalance{balance: "100.00", setErr: errors.New("timeout")}
	svc := newTestService(carts, &fakeCatalog{prices: map[int64]string{1: "5.00"}},
		&fakeOrders{}, bal, nil)

	o, err := svc.CheckoutCart(context.Background(), "sess", 1)
	if err != nil {
		t.Fatalf("CheckoutCart: %v, want success despite failed debit", err)
	}
	if o == nil || o.OrderNumber == "" {
		t.Fatal("no order returned")
	}
	if !carts.cleared {
		t.Error("cart not cleared after successful order with failed debit")
	}
}

func TestCheckoutOrderStoreFailure(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 1}}
	orders := &fakeOrders{err: errors.New("deadlock detected")}
	bal := &fakeBalance{balance: "100.00"}
	ev := &fakeEvents{}
	svc := newTestService(carts, &fakeCatalog{prices: map[int64]string{1: "5.00"}}, orders, bal, ev)

	_, err := svc.CheckoutCart(context.Background(), "sess", 1)
	var oce *OrderCreationError
	if !errors.As(err, &oce) {
		t.Fatalf("err = %v, want OrderCreationError", err)
	}
	if carts.cleared || len(bal.setCalls) != 0 {
		t.Error("cart or balance mutated despite order failure")
	}
	if len(ev.published) != 0 {
		t.Error("event published despite order failure")
	}
}

func TestCheckoutUnresolvableItemFails(t *testing.T) {
	t.Parallel()

	carts := &fakeCarts{lines: map[int64]int{1: 1, 99: 1}}
	orders := &fakeOrders{}
	svc := newTestService(carts, &fakeCatalog{prices: map[int64]string{1: "5.00"}},
		orders, &fakeBalance{balance: "100.00"}, nil)

	_, err := svc.CheckoutCart(context.Background(), "sess", 1)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want catalog.ErrNotFound", err)
	}
	if orders.created != nil {
		t.Error("order created with unresolvable item")
	}
}

func TestCartTotal(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{prices: map[int64]string{1: "10.00", 2: "0.99"}}
	svc := newTestService(&fakeCarts{lines: map[int64]int{1: 3, 2: 2}}, cat,
		&fakeOrders{}, &fakeBalance{}, nil)

	total, err := svc.CartTotal(context.Background(), "sess")
	if err != nil {
		t.Fatalf("CartTotal: %v", err)
	}
	if got := total.StringFixed(2); got != "31.98" {
		t.Errorf("total = %s, want 31.98", got)
	}
}

func TestCartTotalEmpty(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeCarts{lines: map[int64]int{}}, &fakeCatalog{},
		&fakeOrders{}, &fakeBalance{}, nil)

	total, err := svc.CartTotal(context.Background(), "sess")
	if err != nil {
		t.Fatalf("CartTotal: %v", err)
	}
	if !total.IsZero() {
		t.Errorf("total = %s, want 0", total)
	}
}

func TestItemsInCartSorted(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{prices: map[int64]string{5: "1.00", 2: "2.00", 9: "3.00"}}
	svc := newTestService(&fakeCarts{lines: map[int64]int{9: 1, 2: 4, 5: 2}}, cat,
		&fakeOrders{}, &fakeBalance{}, nil)

	lines, err := svc.ItemsInCart(context.Background(), "sess")
	if err != nil {
		t.Fatalf("ItemsInCart: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len = %d, want 3", len(lines))
	}
	for i, want := range []int64{2, 5, 9} {
		if lines[i].Item.ID != want {
			t.Errorf("lines[%d].ID = %d, want %d", i, lines[i].Item.ID, want)
		}
	}
	if lines[0].Quantity != 4 {
		t.Errorf("lines[0].Quantity = %d, want 4", lines[0].Quantity)
	}
}
