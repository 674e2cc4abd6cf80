package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart: nothing with a positive quantity to check out.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrItemNotInCart: single-item checkout targeted an id that is absent
	// or at zero quantity.
	ErrItemNotInCart = errors.New("item is not in the cart")
)

// InsufficientFundsError carries both figures so the boundary can show the
// shortfall.
type InsufficientFundsError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s",
		e.Balance.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientFundsError) Missing() decimal.Decimal {
	return e.Required.Sub(e.Balance)
}

// OrderCreationError wraps any unexpected failure while persisting the
// order and its lines; the persistence layer has already rolled back.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string { return "order creation failed: " + e.Err.Error() }
func (e *OrderCreationError) Unwrap() error { return e.Err }

// BalanceServiceError marks the external balance call as the failing party.
type BalanceServiceError struct {
	Op  string // "get" or "set"
	Err error
}

func (e *BalanceServiceError) Error() string {
	return fmt.Sprintf("balance service %s: %v", e.Op, e.Err)
}
func (e *BalanceServiceError) Unwrap() error { return e.Err }
