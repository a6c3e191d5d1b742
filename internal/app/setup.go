// Package app wires the storefront: storage backends, the event publisher, services and the
// HTTP and gRPC servers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/stitchnstyle/internal/config"
	"github.com/abgdnv/stitchnstyle/internal/customorder"
	"github.com/abgdnv/stitchnstyle/internal/payment"
	"github.com/abgdnv/stitchnstyle/internal/service"
	"github.com/abgdnv/stitchnstyle/internal/store"
	grpcImpl "github.com/abgdnv/stitchnstyle/internal/transport/grpc"
	"github.com/abgdnv/stitchnstyle/internal/transport/rest"
	"github.com/abgdnv/stitchnstyle/internal/validation"
	"github.com/abgdnv/stitchnstyle/pkg/amqp"
	"github.com/abgdnv/stitchnstyle/pkg/auth"
	"github.com/abgdnv/stitchnstyle/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/stitchnstyle/pkg/config"
	"github.com/abgdnv/stitchnstyle/pkg/messaging"
	"github.com/abgdnv/stitchnstyle/pkg/nats"
	"github.com/abgdnv/stitchnstyle/pkg/server"
	"github.com/abgdnv/stitchnstyle/pkg/web"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

const ServiceName = "storefront"

// Stores groups the persistence ports. Close releases the connections behind them.
type Stores struct {
	Carts    store.CartStore
	Products store.ProductStore
	Orders   store.CustomOrderStore
	Close    func()
}

// SetupStores opens the configured backends. Products and orders share one backend; carts may
// live in Redis instead.
func SetupStores(ctx context.Context, cfg *config.Storefront, logger *slog.Logger) (*Stores, error) {
	var closers []func()
	s := &Stores{Close: func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}}

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		if cfg.Database.Migrate {
			if err := bootstrap.RunMigrations(cfg.Database.URL, store.Migrations, store.MigrationsDir, logger); err != nil {
				return nil, err
			}
		}
		pool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		closers = append(closers, pool.Close)
		logger.Info("Successfully connected to the database!")
		s.Products = store.NewPgProductStore(pool)
		s.Orders = store.NewPgCustomOrderStore(pool)
		if cfg.Storage.CartBackend == config.BackendPostgres {
			s.Carts = store.NewPgCartStore(pool)
		}
	default:
		logger.Warn("using in-memory storage, data is lost on restart")
		s.Products = store.NewMemoryProductStore()
		s.Orders = store.NewMemoryCustomOrderStore()
	}

	switch cfg.Storage.CartBackend {
	case config.BackendRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		logger.Info("Successfully connected to redis", slog.String("addr", cfg.Redis.Addr))
		s.Carts = store.NewRedisCartStore(client, cfg.Redis.KeyPrefix, cfg.Redis.MaxRetries)
	case config.BackendMemory:
		s.Carts = store.NewMemoryCartStore()
	}
	return s, nil
}

// SetupPublisher connects to the configured broker. The returned close func is never nil.
func SetupPublisher(ctx context.Context, cfg pkgconfig.MessagingConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	switch cfg.Broker {
	case pkgconfig.BrokerNATS:
		nc, err := nats.NewClient(cfg.Nats)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create NATS connection: %w", err)
		}
		js, err := nats.NewJetStreamContext(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}
		if err := nats.EnsureStream(ctx, js, cfg.Stream, cfg.Subjects); err != nil {
			nc.Close()
			return nil, nil, err
		}
		logger.Info("Publishing events to NATS", slog.String("stream", cfg.Stream))
		return nats.NewNatsPublisher(js), func() { _ = nc.Drain() }, nil
	case pkgconfig.BrokerAMQP:
		conn, p, err := amqp.Dial(cfg.AMQP)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Publishing events to AMQP", slog.String("exchange", cfg.AMQP.Exchange))
		return p, func() {
			_ = p.Close()
			_ = conn.Close()
		}, nil
	default:
		logger.Warn("no message broker configured, status events are dropped")
		return messaging.NopPublisher{}, func() {}, nil
	}
}

type Dependencies struct {
	CartService        service.CartService
	ProductService     service.ProductService
	CustomOrderService service.CustomOrderService
	Validate           *validator.Validate
	Verifier           auth.Verifier
	Staff              *auth.StaffDirectory
	Logger             *slog.Logger
}

// SetupDependencies builds the services. httpClient is used for gateway calls and may be nil.
func SetupDependencies(cfg *config.Storefront, stores *Stores, publisher messaging.Publisher, verifier auth.Verifier,
	httpClient *http.Client, logger *slog.Logger) *Dependencies {
	validate := validation.New()
	gateway := payment.NewRazorpayClient(cfg.Payment, httpClient)

	return &Dependencies{
		CartService: service.NewCarts(stores.Carts, stores.Products, service.ShopSettings{
			DeliveryFee: cfg.Shop.Fee(),
			Currency:    cfg.Shop.Currency,
		}, logger),
		ProductService: service.NewProducts(stores.Products),
		CustomOrderService: service.NewCustomOrders(
			stores.Orders,
			customorder.NewWorkflow(validate),
			gateway,
			payment.NewSignatureVerifier(cfg.Payment.Razorpay.KeySecret),
			publisher,
			service.PaymentSettings{KeyID: gateway.KeyID(), Currency: cfg.Shop.Currency},
			logger,
		),
		Validate: validate,
		Verifier: verifier,
		Staff:    auth.NewStaffDirectory(cfg.Auth.Staff),
		Logger:   logger,
	}
}

// SetupHttpHandler builds the router. metrics may be nil.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, metrics http.Handler) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	handler := rest.NewHandler(deps.CartService, deps.ProductService, deps.CustomOrderService, deps.Validate, deps.Logger)
	handler.RegisterRoutes(mux, web.AuthMiddleware(deps.Verifier, deps.Staff, deps.Logger))
	return mux
}

// SetupHttpServer creates and configures the storefront HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Storefront, metrics http.Handler) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, ServiceName, SetupHttpHandler(deps, metrics))
}

// SetupGrpcServer creates the gRPC server exposing the cart query service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) (*grpc.Server, *health.Server) {
	cartRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterCartQueryServer(s, grpcImpl.NewServer(deps.CartService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, cartRegisterFunc)
}
