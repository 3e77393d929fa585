package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zapshift/parcel-delivery/internal/api/handlers"
	"github.com/zapshift/parcel-delivery/internal/api/middleware"
	"github.com/zapshift/parcel-delivery/internal/api/routes"
	"github.com/zapshift/parcel-delivery/internal/config"
	"github.com/zapshift/parcel-delivery/internal/gateway"
	"github.com/zapshift/parcel-delivery/internal/repository/postgres"
	"github.com/zapshift/parcel-delivery/internal/service/lifecycle"
	"github.com/zapshift/parcel-delivery/internal/service/reconcile"
	"github.com/zapshift/parcel-delivery/internal/service/tracking"
	"github.com/zapshift/parcel-delivery/pkg/cache"
	"github.com/zapshift/parcel-delivery/pkg/database"
	"github.com/zapshift/parcel-delivery/pkg/logger"
	"github.com/zapshift/parcel-delivery/pkg/monitoring"
	"github.com/zapshift/parcel-delivery/pkg/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting parcel delivery service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	monitor, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		log.Fatal("Failed to initialize monitoring", logger.Err(err))
	}

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.MaxConns,
		MaxIdle:  cfg.Database.MaxIdle,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", logger.Err(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		MinIdleConn: cfg.Redis.MinIdleConn,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)

	hub := websocket.NewHub(log)
	go hub.Run()

	parcelRepo := postgres.NewParcelRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	riderRepo := postgres.NewRiderRepository(db)
	userRepo := postgres.NewUserRepository(db)

	stripeGateway := gateway.NewStripeGateway(gateway.StripeConfig{
		SecretKey:  cfg.Stripe.SecretKey,
		SiteDomain: cfg.Stripe.SiteDomain,
		Currency:   cfg.Stripe.Currency,
	})

	reconciler := reconcile.NewService(stripeGateway, parcelRepo, paymentRepo, tracking.New(), log)
	lifecycleSvc := lifecycle.NewService(parcelRepo, riderRepo, log)

	guard := middleware.NewGuard(cfg.JWT.Secret, userRepo, redisClient, cfg.Cache.TTLRoles, log)

	h := handlers.New(handlers.Dependencies{
		Lifecycle:    lifecycleSvc,
		Reconciler:   reconciler,
		Gateway:      stripeGateway,
		Parcels:      parcelRepo,
		Payments:     paymentRepo,
		Riders:       riderRepo,
		Users:        userRepo,
		Redis:        redisClient,
		Logger:       log,
		Monitor:      monitor,
		Hub:          hub,
		ReconcileTTL: cfg.Cache.TTLReconcileResult,
		Currency:     cfg.Stripe.Currency,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, h, guard, monitor)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", logger.Err(err))
	}
	monitor.Shutdown(5 * time.Second)

	log.Info("Server stopped")
}
