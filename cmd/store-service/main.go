// Store service: catalog browsing, session carts and checkout.
//
// @title        Webstore API
// @version      1.0
// @description  Storefront backend: catalog, session cart and checkout.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MikeMC777/webstore-ecom/docs"
	"github.com/MikeMC777/webstore-ecom/internal/balance"
	"github.com/MikeMC777/webstore-ecom/internal/cart"
	"github.com/MikeMC777/webstore-ecom/internal/catalog"
	"github.com/MikeMC777/webstore-ecom/internal/checkout"
	"github.com/MikeMC777/webstore-ecom/internal/config"
	"github.com/MikeMC777/webstore-ecom/internal/httpx"
	"github.com/MikeMC777/webstore-ecom/internal/kafkax"
	"github.com/MikeMC777/webstore-ecom/internal/metrics"
	"github.com/MikeMC777/webstore-ecom/internal/order"
	"github.com/MikeMC777/webstore-ecom/internal/postgres"
	"github.com/MikeMC777/webstore-ecom/internal/redisx"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	sugar.Infow("starting",
		"addr", cfg.StoreAddr,
		"balance_service", cfg.BalanceSvcBaseURL,
		"redis", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"demo_account", cfg.DemoAccountID,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.PostgresDSN, cfg.MigrationsPath); err != nil {
		sugar.Fatalw("migrations failed", "err", err)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		sugar.Fatalw("postgres connect failed", "err", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	var producer *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafkax.NewProducer(cfg.KafkaBrokers, checkout.TopicOrderPlaced, 256, sugar)
		producer.Start(ctx)
	}

	catalogRepo := catalog.NewCachedRepo(catalog.NewPGRepo(db), rdb, sugar)
	carts := cart.NewStore(rdb)
	orderRepo := order.NewPGRepo(db)
	orderSvc := order.NewService(orderRepo, catalogRepo)
	balanceClient := balance.NewClient(cfg.BalanceSvcBaseURL)
	checkoutMetrics := metrics.NewCheckout("store")

	var events checkout.EventPublisher
	if producer != nil {
		events = producer
	}
	checkoutSvc := checkout.NewService(carts, catalogRepo, orderRepo, balanceClient,
		events, checkoutMetrics, sugar)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger), httpx.Session())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/items", listItemsHandler(catalogRepo))
	r.GET("/items/:id", getItemHandler(catalogRepo))
	r.POST("/items/:id/checkout", checkoutItemHandler(checkoutSvc, cfg.DemoAccountID))
	r.GET("/cart", viewCartHandler(checkoutSvc))
	r.GET("/cart/count", cartCountHandler(carts))
	r.POST("/cart/items/:id", updateCartHandler(carts))
	r.POST("/cart/checkout", checkoutCartHandler(checkoutSvc, cfg.DemoAccountID))
	r.GET("/orders", listOrdersHandler(orderSvc))
	r.GET("/orders/:id", getOrderHandler(orderSvc))

	srv := &http.Server{Addr: cfg.StoreAddr, Handler: r}

	go func() {
		sugar.Infow("store-service listening", "addr", cfg.StoreAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("listen failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("server shutdown", "err", err)
	}
	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}
