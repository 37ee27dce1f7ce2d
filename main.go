package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/inventory"
	"storefront/internal/locks"
	"storefront/internal/notify"
	"storefront/internal/observability"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/repositories/memory"
	"storefront/internal/repositories/mongostore"
)

// backend is the set of repositories chosen by STORE_DRIVER.
type backend struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepository
	users      handlers.Accounts
	counters   repositories.CounterRepository
	failures   repositories.NotificationFailureRepository
	transactor repositories.Transactor
	pinger     repositories.Pinger
	close      func(context.Context) error
}

func openBackend(cfg config.Config, logger *zap.Logger) (backend, error) {
	if strings.EqualFold(cfg.StoreDriver, "memory") {
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return backend{
			orders:     store.Orders,
			products:   store.Products,
			users:      store.Users,
			counters:   store.Counters,
			failures:   store.NotificationFailures,
			transactor: repositories.NoTransaction,
			pinger:     store,
			close:      func(context.Context) error { return nil },
		}, nil
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return backend{}, err
	}
	db := client.Database(cfg.DBName)
	logger.Info("mongodb connected", zap.String("database", db.Name()))

	if err := database.EnsureIndexes(db, logger); err != nil {
		logger.Warn("index setup incomplete", zap.Error(err))
	}

	store := mongostore.NewStore(db)
	return backend{
		orders:     store.Orders,
		products:   store.Products,
		users:      store.Users,
		counters:   store.Counters,
		failures:   store.NotificationFailures,
		transactor: store.Transactor(cfg.MongoTransactions),
		pinger:     store,
		close:      client.Disconnect,
	}, nil
}

func openLocker(ctx context.Context, cfg config.Config, logger *zap.Logger) locks.Locker {
	if cfg.RedisURL == "" {
		return locks.NewMemory()
	}
	client, err := locks.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-process locks", zap.Error(err))
		return locks.NewMemory()
	}
	logger.Info("using redis payment locks")
	return locks.NewRedis(client, logger)
}

func newMailer(cfg config.Config, logger *zap.Logger) notify.Mailer {
	if !cfg.SMTP.Enabled() {
		logger.Warn("SMTP not configured, emails will be logged only")
		return notify.LogMailer{Logger: logger}
	}
	return notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.EmailFrom)
}

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}
	if cfg.PaystackSecretKey == "" {
		logger.Warn("PAYSTACK_SECRET_KEY is not set; payment endpoints will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}

	renderer, err := notify.NewRenderer(cfg.AppBaseURL)
	if err != nil {
		logger.Fatal("email templates", zap.Error(err))
	}
	deliverer := notify.NewDeliverer(renderer, newMailer(cfg, logger), store.failures, logger,
		notify.WithMaxAttempts(cfg.NotifyMaxAttempts))

	var (
		dispatcher      notify.Dispatcher
		closeDispatcher func(context.Context) error
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer := notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, logger)
		consumer := notify.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, "storefront-notify", deliverer, logger)
		go consumer.Run(ctx)
		dispatcher = producer
		closeDispatcher = func(context.Context) error { return producer.Close() }
		logger.Info("notifications via kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		async := notify.NewAsyncDispatcher(deliverer, cfg.NotifyWorkers, cfg.NotifyQueueSize, logger)
		dispatcher = async
		closeDispatcher = async.Close
	}

	service, err := orders.NewService(orders.ServiceDeps{
		Orders:            store.orders,
		Users:             store.users,
		Counters:          store.counters,
		Ledger:            inventory.NewLedger(store.products, logger),
		Transactor:        store.transactor,
		Locker:            openLocker(ctx, cfg, logger),
		Dispatcher:        dispatcher,
		StateMachine:      orders.NewStateMachine(cfg.StrictOrderTransitions),
		Logger:            logger,
		OrderNumberPrefix: cfg.OrderNumberPrefix,
		Currency:          cfg.Currency,
		AdminEmail:        cfg.AdminEmail,
	})
	if err != nil {
		logger.Fatal("order service init failed", zap.Error(err))
	}

	checkout, err := orders.NewCheckout(orders.CheckoutDeps{
		Gateway:       payments.NewClient(cfg.PaystackSecretKey, payments.WithBaseURL(cfg.PaystackBaseURL)),
		Reconciler:    service,
		WebhookSecret: cfg.PaystackSecretKey,
		Currency:      cfg.Currency,
		CallbackURL:   strings.TrimRight(cfg.AppBaseURL, "/") + "/payment/callback",
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("checkout init failed", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery(), observability.RequestLogger(logger))
	handlers.RegisterRoutes(r, handlers.Deps{
		Session: handlers.SessionConfig{
			Secret: cfg.JWTSecret,
			TTL:    cfg.AccessTokenTTL,
			Secure: cfg.CookieSecure,
		},
		Accounts: store.users,
		Catalog:  store.products,
		Orders:   service,
		Payments: checkout,
		Failures: store.failures,
		Store:    store.pinger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := closeDispatcher(shutdownCtx); err != nil {
		logger.Error("notification queue shutdown", zap.Error(err))
	}
	if err := store.close(shutdownCtx); err != nil {
		logger.Error("store shutdown", zap.Error(err))
	}
}
