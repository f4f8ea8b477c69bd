package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/config"
	"github.com/yashrajoria/order-saga-service/controllers"
	"github.com/yashrajoria/order-saga-service/database"
	"github.com/yashrajoria/order-saga-service/kafka"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
	"github.com/yashrajoria/order-saga-service/repository"
	"github.com/yashrajoria/order-saga-service/routes"
	"github.com/yashrajoria/order-saga-service/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	dsn, err := cfg.PostgresDSN()
	if err != nil {
		logger.Log.Fatal("invalid database config", zap.Error(err))
	}
	db, err := database.Connect(dsn)
	if err != nil {
		logger.Log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		logger.Log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.ServiceName)
	defer producer.Close()

	orderRepo := repository.NewGormOrderRepository(db)
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)

	customers := services.NewCustomerClient(cfg.CustomerServiceURL, cfg.InternalToken)
	products := services.NewProductClient(cfg.ProductServiceURL, cfg.InternalToken)
	inventory := services.NewInventoryClient(cfg.InventoryServiceURL, cfg.InternalToken)

	cartService := services.NewCartService(cartRepo, products, inventory)
	orderService := services.NewOrderService(orderRepo, cartRepo, customers, inventory, producer, cfg.ReservationTTLMinutes)

	router := routes.Setup(
		controllers.NewCartController(cartService),
		controllers.NewOrderController(orderService),
		cfg.InternalToken,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("order service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
}
