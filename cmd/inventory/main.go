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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yashrajoria/order-saga-service/config"
	"github.com/yashrajoria/order-saga-service/inventory"
	"github.com/yashrajoria/order-saga-service/kafka"
	"github.com/yashrajoria/order-saga-service/middleware"
	"github.com/yashrajoria/order-saga-service/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	producer := kafka.NewProducer(cfg.KafkaBrokers, "inventory-service")
	defer producer.Close()

	ledger := inventory.NewLedger(
		inventory.WithTTL(time.Duration(cfg.ReservationTTLMinutes)*time.Minute),
		inventory.WithLogger(logger.Log),
		inventory.WithPublisher(producer),
	)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	ledger.StartSweeper(sweepCtx, cfg.SweepInterval)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/inventory", middleware.InternalAuth(cfg.InternalToken))
	inventory.NewHandler(ledger).RegisterRoutes(group)

	srv := &http.Server{
		Addr:    ":" + cfg.InventoryPort,
		Handler: router,
	}

	go func() {
		logger.Log.Info("inventory service listening", zap.String("port", cfg.InventoryPort))
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
