package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/webstore-ecom/internal/cart"
	"github.com/MikeMC777/webstore-ecom/internal/catalog"
	"github.com/MikeMC777/webstore-ecom/internal/checkout"
	"github.com/MikeMC777/webstore-ecom/internal/httpx"
	"github.com/MikeMC777/webstore-ecom/internal/order"
)

type catalogReader interface {
	List(ctx context.Context, q catalog.Query) ([]catalog.Item, error)
	GetByID(ctx context.Context, id int64) (*catalog.Item, error)
}

type cartAPI interface {
	UpdateCount(ctx context.Context, session string, itemID int64, action string) error
	Count(ctx context.Context, session string) (int, error)
}

type checkoutAPI interface {
	CheckoutCart(ctx context.Context, session string, accountID int64) (*order.Order, error)
	CheckoutItem(ctx context.Context, session string, itemID, accountID int64) (*order.Order, error)
	ItemsInCart(ctx context.Context, session string) ([]checkout.CartLine, error)
	CartTotal(ctx context.Context, session string) (decimal.Decimal, error)
}

type orderReader interface {
	OrdersWithItems(ctx context.Context) ([]order.OrderWithItems, error)
	OrderWithItems(ctx context.Context, orderID int64) (*order.OrderWithItems, error)
}

// listItemsHandler godoc
// @Summary  List catalog items
// @Param    q      query  string  false  "search in title and description"
// @Param    sort   query  string  false  "NO | PRICE_ASC | PRICE_DESC | ALPHA_ASC | ALPHA_DESC"
// @Param    limit  query  int     false  "page size"
// @Param    offset query  int     false  "page start"
// @Success  200  {object}  catalog.ListResponse
// @Router   /items [get]
func listItemsHandler(cat catalogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := catalog.Query{
			Q:      c.Query("q"),
			Sort:   c.DefaultQuery("sort", catalog.SortNone),
			Limit:  atoiDefault(c.Query("limit"), 20),
			Offset: atoiDefault(c.Query("offset"), 0),
		}
		items, err := cat.List(c.Request.Context(), q)
		if err != nil {
			writeError(c, err)
			return
		}
		if items == nil {
			items = []catalog.Item{}
		}
		c.JSON(http.StatusOK, catalog.ListResponse{
			Q: q.Q, Sort: q.Sort, Limit: q.Limit, Offset: q.Offset, Items: items,
		})
	}
}

// getItemHandler godoc
// @Summary  Get one catalog item
// @Param    id  path  int  true  "item id"
// @Success  200  {object}  catalog.Item
// @Failure  404  {object}  errorBody
// @Router   /items/{id} [get]
func getItemHandler(cat catalogReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		item, err := cat.GetByID(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

type cartActionRequest struct {
	Action string `json:"action" binding:"required" example:"PLUS"`
}

// updateCartHandler godoc
// @Summary  Apply PLUS/MINUS/DELETE to one cart line
// @Param    id      path  int                true  "item id"
// @Param    action  body  cartActionRequest  true  "cart action"
// @Success  200  {object}  cartCountResponse
// @Router   /cart/items/{id} [post]
func updateCartHandler(carts cartAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req cartActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody{Error: "action is required"})
			return
		}
		session := httpx.SessionID(c)
		if err := carts.UpdateCount(c.Request.Context(), session, id, req.Action); err != nil {
			writeError(c, err)
			return
		}
		count, err := carts.Count(c.Request.Context(), session)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartCountResponse{Count: count})
	}
}

type cartViewResponse struct {
	Items []checkout.CartLine `json:"items"`
	Total string              `json:"total" example:"25.00"`
	Count int                 `json:"count"`
}

type cartCountResponse struct {
	Count int `json:"count"`
}

// viewCartHandler godoc
// @Summary  Current cart with items and total
// @Success  200  {object}  cartViewResponse
// @Router   /cart [get]
func viewCartHandler(svc checkoutAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := httpx.SessionID(c)
		lines, err := svc.ItemsInCart(c.Request.Context(), session)
		if err != nil {
			writeError(c, err)
			return
		}
		total, err := svc.CartTotal(c.Request.Context(), session)
		if err != nil {
			writeError(c, err)
			return
		}
		count := 0
		for _, l := range lines {
			count += l.Quantity
		}
		if lines == nil {
			lines = []checkout.CartLine{}
		}
		c.JSON(http.StatusOK, cartViewResponse{
			Items: lines,
			Total: total.StringFixed(2),
			Count: count,
		})
	}
}

// cartCountHandler godoc
// @Summary  Number of units in the cart
// @Success  200  {object}  cartCountResponse
// @Router   /cart/count [get]
func cartCountHandler(carts cartAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := carts.Count(c.Request.Context(), httpx.SessionID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartCountResponse{Count: count})
	}
}

// checkoutCartHandler godoc
// @Summary  Convert the whole cart into an order
// @Success  201  {object}  order.Order
// @Failure  400  {object}  errorBody  "empty cart or insufficient funds"
// @Failure  502  {object}  errorBody  "balance service unavailable"
// @Router   /cart/checkout [post]
func checkoutCartHandler(svc checkoutAPI, accountID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.CheckoutCart(c.Request.Context(), httpx.SessionID(c), accountID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// checkoutItemHandler godoc
// @Summary  Order the cart's quantity of one item
// @Param    id  path  int  true  "item id"
// @Success  201  {object}  order.Order
// @Failure  400  {object}  errorBody  "item not in cart or insufficient funds"
// @Router   /items/{id}/checkout [post]
func checkoutItemHandler(svc checkoutAPI, accountID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		o, err := svc.CheckoutItem(c.Request.Context(), httpx.SessionID(c), id, accountID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// listOrdersHandler godoc
// @Summary  All orders with their items
// @Success  200  {array}  order.OrderWithItems
// @Router   /orders [get]
func listOrdersHandler(orders orderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orders.OrdersWithItems(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getOrderHandler godoc
// @Summary  One order with its items
// @Param    id  path  int  true  "order id"
// @Success  200  {object}  order.OrderWithItems
// @Failure  404  {object}  errorBody
// @Router   /orders/{id} [get]
func getOrderHandler(orders orderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		out, err := orders.OrderWithItems(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// errorBody is the generic error payload.
// swagger:model
type errorBody struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty" example:"warning"`
}

type insufficientFundsBody struct {
	Error          string `json:"error" example:"insufficient funds"`
	CurrentBalance string `json:"currentBalance" example:"100.00"`
	RequiredAmount string `json:"requiredAmount" example:"120.00"`
	MissingAmount  string `json:"missingAmount" example:"20.00"`
}

// writeError maps domain errors onto HTTP responses. Buyer mistakes are 400,
// missing resources 404, the balance collaborator 502, everything else 500.
func writeError(c *gin.Context, err error) {
	var (
		ife *checkout.InsufficientFundsError
		bse *checkout.BalanceServiceError
		oce *checkout.OrderCreationError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, errorBody{Error: "cart is empty", Category: "warning"})
	case errors.Is(err, checkout.ErrItemNotInCart):
		c.JSON(http.StatusBadRequest, errorBody{Error: "item is not in the cart", Category: "error"})
	case errors.As(err, &ife):
		c.JSON(http.StatusBadRequest, insufficientFundsBody{
			Error:          "insufficient funds",
			CurrentBalance: ife.Balance.StringFixed(2),
			RequiredAmount: ife.Required.StringFixed(2),
			MissingAmount:  ife.Missing().StringFixed(2),
		})
	case errors.As(err, &bse):
		c.JSON(http.StatusBadGateway, errorBody{Error: "balance service unavailable"})
	case errors.As(err, &oce):
		c.JSON(http.StatusInternalServerError, errorBody{Error: "order could not be created"})
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "order not found"})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "item not found"})
	case errors.Is(err, catalog.ErrBadSort):
		c.JSON(http.StatusBadRequest, errorBody{Error: "unknown sort key"})
	case errors.Is(err, cart.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, errorBody{Error: "unknown cart action"})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
