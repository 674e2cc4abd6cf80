package main

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/webstore-ecom/internal/balance"
)

// accountStore holds account balances in memory. The demo account is seeded
// at startup; there is no account creation endpoint.
type accountStore struct {
	mu       sync.RWMutex
	balances map[int64]decimal.Decimal
}

func newAccountStore(seed map[int64]decimal.Decimal) *accountStore {
	balances := make(map[int64]decimal.Decimal, len(seed))
	for id, bal := range seed {
		balances[id] = bal
	}
	return &accountStore{balances: balances}
}

func (s *accountStore) get(id int64) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.balances[id]
	return bal, ok
}

func (s *accountStore) set(id int64, bal decimal.Decimal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[id]; !ok {
		return false
	}
	s.balances[id] = bal
	return true
}

// getBalanceHandler godoc
// @Summary  Current balance of one account
// @Param    userId  path  int  true  "account id"
// @Success  200  {object}  balance.BalanceResponse
// @Failure  404  {object}  map[string]string
// @Router   /balance/{userId} [get]
func getBalanceHandler(store *accountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		bal, ok := store.get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusOK, balance.BalanceResponse{UserID: id, Balance: bal})
	}
}

// setBalanceHandler godoc
// @Summary  Overwrite the balance of one account
// @Param    userId  path  int                     true  "account id"
// @Param    body    body  balance.UpdateRequest  true  "new absolute balance"
// @Success  200  {object}  balance.BalanceResponse
// @Failure  404  {object}  map[string]string
// @Router   /balance/{userId} [put]
func setBalanceHandler(store *accountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		var req balance.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "balance is required"})
			return
		}
		if req.Balance.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "balance must not be negative"})
			return
		}
		if !store.set(id, req.Balance) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		bal, _ := store.get(id)
		c.JSON(http.StatusOK, balance.BalanceResponse{UserID: id, Balance: bal})
	}
}
