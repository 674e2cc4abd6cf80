// Balance service: owns account balances for the storefront. Stands in for
// the real payments backend during development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/webstore-ecom/internal/config"
	"github.com/MikeMC777/webstore-ecom/internal/httpx"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	seed := decimal.NewFromInt(1000)
	if raw := os.Getenv("DEMO_ACCOUNT_BALANCE"); raw != "" {
		if parsed, err := decimal.NewFromString(raw); err == nil {
			seed = parsed
		}
	}
	store := newAccountStore(map[int64]decimal.Decimal{cfg.DemoAccountID: seed})

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/balance/:userId", getBalanceHandler(store))
	r.PUT("/balance/:userId", setBalanceHandler(store))

	srv := &http.Server{Addr: cfg.BalanceSvcAddr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("balance-service listening", "addr", cfg.BalanceSvcAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("listen failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("server shutdown", "err", err)
	}
}
