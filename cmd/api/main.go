package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/checkout"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/handler"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("storefront api exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DB.Migrate {
		if err := repository.Migrate(cfg.DB.DSN()); err != nil {
			return err
		}
		log.Info("database schema up to date")
	}

	dbPool, err := openPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	log.Info("connected to PostgreSQL")

	redisClient, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer amqpConn.Close()

	// One channel for publishing, one for the worker's consumer.
	pubCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}
	defer pubCh.Close()
	consumeCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(pubCh); err != nil {
		return err
	}
	log.Info("connected to RabbitMQ")

	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	var gateway service.Gateway
	if cfg.Gateway.KeyID != "" && cfg.Gateway.KeySecret != "" {
		gateway = service.NewRazorpayGateway(cfg.Gateway.KeyID, cfg.Gateway.KeySecret)
	} else {
		log.Warn("razorpay credentials not set, online payments disabled")
	}

	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileSvc := service.NewProfileService(userRepo)
	productSvc := service.NewProductService(productRepo, redisClient)
	cartSvc := service.NewCartService(cartRepo, productSvc)
	paymentSvc := service.NewPaymentService(gateway, cfg.Gateway)
	orderSvc := service.NewOrderService(service.OrderServiceDeps{
		Orders:   orderRepo,
		Carts:    cartRepo,
		Payments: paymentSvc,
		Pricing: checkout.Pricing{
			Shipping: cfg.Checkout.ShippingFee,
			TaxRate:  cfg.Checkout.TaxRate,
		},
		Redis:          redisClient,
		IdempotencyTTL: cfg.Checkout.IdempotencyTTL,
		Publisher:      worker.NewPublisher(pubCh),
		Log:            log,
	})

	orderWorker := worker.NewOrderWorker(consumeCh, orderRepo, productRepo, redisClient, log)
	if err := orderWorker.Start(ctx); err != nil {
		return err
	}

	health := handler.NewHealthHandler().
		Register("postgres", dbPool.Ping).
		Register("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }).
		Register("rabbitmq", func(context.Context) error {
			if amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		})

	router := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, log),
		Profile:  handler.NewProfileHandler(profileSvc, log),
		Products: handler.NewProductHandler(productSvc, log),
		Cart:     handler.NewCartHandler(cartSvc, log),
		Payments: handler.NewPaymentHandler(paymentSvc, log),
		Orders:   handler.NewOrderHandler(orderSvc, log),
		Health:   health,
	}, cfg.JWT.Secret, gin.Logger(), gin.Recovery())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	// let in-flight deliveries settle before the channel closes
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
	return nil
}

func openPostgres(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	return client, nil
}
