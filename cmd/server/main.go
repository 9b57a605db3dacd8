package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/config"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/events"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/handlers"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/metrics"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/zoneload"
	"github.com/Lixing-Zhang/food-delivery/backend/pkg/logger"
)

var version = "dev"

// stores bundles the repositories behind the selected storage driver
type stores struct {
	products repository.ProductRepository
	zones    repository.ZoneRepository
	orders   repository.OrderRepository
	db       *sql.DB
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting food delivery api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	if err := loadZones(ctx, cfg.Zones, st.zones, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher, closeBroker, err := newPublisher(cfg.Broker, log)
	if err != nil {
		return err
	}
	defer closeBroker()

	numbers := service.NewOrderNumberGenerator(st.orders, cfg.Orders.ExpectedOrderCount)
	existing, err := st.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return fmt.Errorf("load issued order numbers: %w", err)
	}
	for _, o := range existing {
		numbers.Seed(o.OrderNumber)
	}

	policy := service.TransitionPolicy(service.PermissiveTransitions{})
	if cfg.Orders.StrictTransitions {
		policy = service.StrictTransitions{}
	}

	productService := service.NewProductService(st.products)
	zoneService := service.NewZoneService(st.zones, m)
	orderService := service.NewOrderService(productService, zoneService, st.orders, numbers,
		service.WithPublisher(publisher),
		service.WithMetrics(m),
		service.WithLogger(log),
		service.WithTransitionPolicy(policy),
		service.WithNumberAttempts(cfg.Orders.NumberRetries),
	)

	checks := map[string]handlers.HealthCheck{}
	if st.db != nil {
		checks["database"] = st.db.PingContext
	}

	tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Sessions:       tokens,
		Health:         handlers.NewHealthHandler(log, version, checks),
		Products:       handlers.NewProductHandler(productService, log),
		Zones:          handlers.NewZoneHandler(zoneService, log),
		Orders:         handlers.NewOrderHandler(orderService, log),
		Admin:          handlers.NewAdminHandler(orderService, log),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*stores, error) {
	if cfg.Driver == "memory" {
		return &stores{
			products: repository.NewInMemoryProductRepository(),
			zones:    repository.NewInMemoryZoneRepository(),
			orders:   repository.NewInMemoryOrderRepository(),
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("database schema up to date")
	}

	products := repository.NewPostgresProductRepository(db)
	existing, err := products.GetAll(ctx, models.ProductFilter{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(existing) == 0 {
		for _, p := range repository.SeedProducts() {
			if err := products.Save(ctx, p); err != nil {
				db.Close()
				return nil, fmt.Errorf("seed products: %w", err)
			}
		}
		log.Info("product catalog seeded", "products", len(repository.SeedProducts()))
	}

	return &stores{
		products: products,
		zones:    repository.NewPostgresZoneRepository(db),
		orders:   repository.NewPostgresOrderRepository(db),
		db:       db,
	}, nil
}

// loadZones fills the zone repository from the configured sources, or from the built-in table
// when none are configured.
func loadZones(ctx context.Context, cfg config.ZonesConfig, repo repository.ZoneRepository, log *slog.Logger) error {
	if len(cfg.Sources) == 0 {
		for _, z := range repository.SeedZones() {
			if err := repo.Upsert(ctx, z); err != nil {
				return fmt.Errorf("seed zones: %w", err)
			}
		}
		log.Info("no zone sources configured, using built-in zone table")
		return nil
	}

	log.Info("loading delivery zones...", "sources", len(cfg.Sources))
	summary, err := zoneload.NewLoader(nil, log).Load(ctx, repo, cfg.Sources)
	if err != nil {
		return fmt.Errorf("load delivery zones: %w", err)
	}
	log.Info("delivery zones loaded",
		"sources", summary.Sources,
		"zones", summary.Zones,
		"neighborhoods", summary.Neighborhoods,
		"overlaps", len(summary.Overlaps),
	)
	return nil
}

func newPublisher(cfg config.BrokerConfig, log *slog.Logger) (service.EventPublisher, func(), error) {
	if cfg.URL == "" {
		log.Info("no broker configured, order events are logged only")
		return events.NewLogPublisher(log), func() {}, nil
	}

	conn, ch, err := events.Connect(cfg.URL, cfg.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing order events", "exchange", cfg.Exchange)
	return events.NewRabbitPublisher(ch, cfg.Exchange), func() {
		ch.Close()
		conn.Close()
	}, nil
}
