package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/notification"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("storefront stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				slog.Warn("close failed", "error", err)
			}
		}
	}()

	// Catalog (sqlite)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	closers = append(closers, catalogRepo)
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	slog.Info("catalog ready", "path", cfg.CatalogDBPath)

	// Orders and accounts (postgres)
	cred := &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	closers = append(closers, repo)
	if err := repo.RunMigrations(cred); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	slog.Info("postgres ready", "host", cfg.DB.Host, "db", cfg.DB.Name)

	store, storeHealth, storeCloser, err := openCartStore(ctx, cfg)
	if err != nil {
		return err
	}
	closers = append(closers, storeCloser)

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	if c, ok := notifier.(io.Closer); ok {
		closers = append(closers, c)
	}

	gateway := payment.NewStripeClient(payment.StripeConfig{
		APIURL:    cfg.Payment.APIURL,
		SecretKey: cfg.Payment.SecretKey,
		Currency:  cfg.Payment.Currency,
		Timeout:   cfg.Payment.Timeout,
		Breaker:   circuitbreaker.DefaultSettings(),
	})

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	cartService := cart.NewService(store, catalogRepo)
	orderService := service.NewOrderService(service.OrderDeps{
		Orders:        repo,
		Users:         repo,
		Addresses:     repo,
		Carriers:      catalogRepo,
		Cart:          cartService,
		Gateway:       gateway,
		Notifier:      notifier,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	accountService := service.NewAccountService(repo, repo, tokens)
	contactService := service.NewContactService(notifier, cfg.Notify.ContactEmail, cfg.Notify.ContactName)

	health := func(ctx context.Context) error {
		return errors.Join(repo.Ping(ctx), catalogRepo.Ping(ctx), storeHealth(ctx))
	}

	secureCookies := isHTTPS(cfg.PublicBaseURL)
	router := h.NewRouter(h.Handlers{
		Catalog:  h.NewCatalogHandler(catalogRepo, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(cartService, cfg.RequestTimeout),
		Accounts: h.NewAccountHandler(accountService, cfg.RequestTimeout, secureCookies),
		Orders:   h.NewOrdersHandler(orderService, cfg.RequestTimeout),
		Contact:  h.NewContactHandler(contactService, cfg.RequestTimeout),
	}, h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		CartTTL:        cfg.CartTTL,
		SecureCookies:  secureCookies,
		Tokens:         tokens,
		Health:         health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	ops := newOpsServer(health)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("storefront http listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		slog.Info("ops grpc listening", "port", cfg.GRPCPort)
		if err := ops.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	ops.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("storefront exited")
	return runErr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openCartStore(ctx context.Context, cfg *config.Config) (cart.Store, func(context.Context) error, io.Closer, error) {
	switch cfg.CartBackend {
	case "mongo":
		db, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		store := cart.NewMongoStore(db, cfg.CartTTL)
		if err := store.CreateIndexes(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("cart indexes: %w", err)
		}
		slog.Info("cart store ready", "backend", "mongo", "db", cfg.MongoDBName)
		health := func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
		return store, health, closerFunc(func() error {
			return db.Client().Disconnect(context.Background())
		}), nil
	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		slog.Info("cart store ready", "backend", "redis", "addr", cfg.RedisAddr)
		health := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return cart.NewRedisStore(client, cfg.CartTTL), health, client, nil
	}
}

func newNotifier(cfg *config.Config) (notification.Sender, error) {
	n := cfg.Notify
	switch n.Transport {
	case "mailjet":
		return notification.NewMailjetSender(notification.MailjetConfig{
			APIURL:      n.MailjetAPIURL,
			APIKey:      n.MailjetAPIKey,
			APISecret:   n.MailjetAPISecret,
			SenderEmail: n.MailjetSenderEmail,
			SenderName:  n.MailjetSenderName,
			TemplateID:  n.MailjetTemplateID,
			Breaker:     circuitbreaker.DefaultSettings(),
		}), nil
	case "kafka":
		slog.Info("notifications via kafka", "topic", n.KafkaTopic, "brokers", n.KafkaBrokers)
		return notification.NewKafkaSender(n.KafkaTopic, n.KafkaBrokers...), nil
	case "amqp":
		sender, err := notification.NewAMQPSender(n.RabbitMQURL, n.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		slog.Info("notifications via rabbitmq", "exchange", n.RabbitMQExchange)
		return sender, nil
	default:
		slog.Warn("notifications disabled")
		return notification.NopSender{}, nil
	}
}

func isHTTPS(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://")
}
