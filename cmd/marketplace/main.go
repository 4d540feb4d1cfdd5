package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/govind-sing/farmBridge-backend/internal/admin"
	cartcache "github.com/govind-sing/farmBridge-backend/internal/cart/cache"
	cartrepo "github.com/govind-sing/farmBridge-backend/internal/cart/repository"
	cartsvc "github.com/govind-sing/farmBridge-backend/internal/cart/service"
	catalogrepo "github.com/govind-sing/farmBridge-backend/internal/catalog/repository"
	catalogsvc "github.com/govind-sing/farmBridge-backend/internal/catalog/service"
	"github.com/govind-sing/farmBridge-backend/internal/checkout"
	"github.com/govind-sing/farmBridge-backend/internal/config"
	"github.com/govind-sing/farmBridge-backend/internal/events"
	apihttp "github.com/govind-sing/farmBridge-backend/internal/http"
	"github.com/govind-sing/farmBridge-backend/internal/keylock"
	"github.com/govind-sing/farmBridge-backend/internal/logger"
	"github.com/govind-sing/farmBridge-backend/internal/metrics"
	ordersrepo "github.com/govind-sing/farmBridge-backend/internal/orders/repository"
	orderssvc "github.com/govind-sing/farmBridge-backend/internal/orders/service"
	"github.com/govind-sing/farmBridge-backend/internal/storage"
	"github.com/govind-sing/farmBridge-backend/internal/telemetry"
	usersrepo "github.com/govind-sing/farmBridge-backend/internal/users/repository"
	"github.com/prometheus/client_golang/prometheus"
)

const probeInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service:   cfg.ServiceName,
		Env:       cfg.Env,
		Level:     cfg.LogLevel,
		AddSource: cfg.LogSource,
	})
	slog.SetDefault(log)
	telemetry.InitPropagation()

	if err := run(cfg, log); err != nil {
		log.Error("marketplace stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB: carts and user profiles
	mongoDB, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	log.Info("connected to mongodb", "db", cfg.MongoDBName)

	carts := cartrepo.NewMongoRepository(mongoDB)
	if err := carts.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}
	users := usersrepo.NewMongoRepository(mongoDB)

	// Redis: cart cache and checkout idempotency
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	// SQLite: product catalog and stock
	products, err := catalogrepo.NewRepository(ctx, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer products.Close()
	if err := products.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}

	// Postgres: orders
	pgCreds := &storage.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsDir,
	}
	orders, err := ordersrepo.NewRepository(ctx, pgCreds)
	if err != nil {
		return fmt.Errorf("open orders db: %w", err)
	}
	defer orders.Close()
	if err := orders.RunMigrations(pgCreds); err != nil {
		return fmt.Errorf("orders migrations: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaOrdersTopic, log, cfg.KafkaBrokers...)
		log.Info("publishing order events", "topic", cfg.KafkaOrdersTopic, "brokers", cfg.KafkaBrokers)
	} else {
		log.Warn("KAFKA_BROKERS not set, order events are not published")
	}
	defer publisher.Close()

	m := metrics.NewServerMetrics("marketplace", prometheus.NewRegistry())
	locks := keylock.New()
	cache := cartcache.NewRedisCache(redisClient)

	productService := catalogsvc.NewProductService(products, log)
	cartService := cartsvc.NewCartService(carts, cache, products, locks, log)
	checkoutService := checkout.NewService(checkout.Dependencies{
		Carts:     carts,
		CartCache: cache,
		Users:     users,
		Products:  products,
		Orders:    orders,
		Results:   checkout.NewRedisResultStore(redisClient, cfg.IdempotencyTTL),
		Publisher: publisher,
		Recorder:  m,
		Locks:     locks,
		Logger:    log,
	}, cfg.MissingProductPolicy)
	// Runs before publisher.Close so in-flight order events are flushed.
	defer checkoutService.Wait()
	lifecycle := orderssvc.NewLifecycleService(orders, users, publisher, m, log)

	router := apihttp.NewRouter(apihttp.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		JWTSecret:          []byte(cfg.JWTSecret),
	}, apihttp.Handlers{
		Products:          apihttp.NewProductHandler(productService, cfg.RequestTimeout, log),
		Cart:              apihttp.NewCartHandler(cartService, cfg.RequestTimeout, log),
		Checkout:          apihttp.NewCheckoutHandler(checkoutService, cfg.RequestTimeout, log),
		Orders:            apihttp.NewOrdersHandler(lifecycle, cfg.RequestTimeout, log),
		Profile:           apihttp.NewProfileHandler(users, cfg.RequestTimeout, log),
		Metrics:           m.Handler(),
		MetricsMiddleware: m.Middleware,
	}, log)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	adminServer := admin.NewServer(probeInterval, log,
		admin.Probe{Name: "mongodb", Check: func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }},
		admin.Probe{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		admin.Probe{Name: "catalog", Check: products.Ping},
		admin.Probe{Name: "orders", Check: orders.Ping},
	)
	adminLis, err := net.Listen("tcp", ":"+cfg.AdminGRPCPort)
	if err != nil {
		return fmt.Errorf("admin listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("marketplace listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("admin grpc listening", "port", cfg.AdminGRPCPort)
		return adminServer.Serve(adminLis)
	})
	g.Go(func() error {
		adminServer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down marketplace")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		adminServer.GracefulStop()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("marketplace stopped")
	return nil
}
