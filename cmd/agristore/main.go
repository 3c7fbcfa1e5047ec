package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"agristore/internal/app/commands"
	availabilityapp "agristore/internal/app/handlers/availability"
	bookingapp "agristore/internal/app/handlers/booking"
	"agristore/internal/app/middleware"
	appoutbox "agristore/internal/app/outbox"
	"agristore/internal/app/policies"
	"agristore/internal/app/queries"
	"agristore/internal/app/uow"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	domainwarehouse "agristore/internal/domain/warehouse"
	"agristore/internal/infra/broker/kafka"
	"agristore/internal/infra/config"
	mongostore "agristore/internal/infra/db/mongo"
	ginserver "agristore/internal/infra/http/gin"
	"agristore/internal/infra/notify"
	"agristore/internal/infra/obs"
	infraoutbox "agristore/internal/infra/outbox"
	"agristore/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultWarehouseFixturesPath()
	}
	if err := app.loadWarehouseFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("warehouse fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	warehouses domainwarehouse.Repository
	worker     *infraoutbox.Worker
	producer   *kafka.Producer
	ready      func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.UoWFactory
		warehouses  domainwarehouse.Repository
		outboxStore appoutbox.Outbox
		worker      *infraoutbox.Worker
		producer    *kafka.Producer
		ready       = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		warehouseRepo := mongostore.NewWarehouseRepository(client.DB)
		bookingRepo := mongostore.NewBookingRepository(client.DB)
		store := infraoutbox.NewStore(client.DB)
		uowFactory = mongostore.Factory{
			DB:            client.DB,
			WarehouseRepo: warehouseRepo,
			BookingRepo:   bookingRepo,
		}
		warehouses = warehouseRepo
		outboxStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, fmt.Errorf("kafka producer: %w", err)
		}
		worker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	default:
		warehouseRepo := memory.NewWarehouseRepository()
		bookingRepo := memory.NewBookingRepository()
		uowFactory = memory.Factory{WarehouseRepo: warehouseRepo, BookingRepo: bookingRepo}
		warehouses = warehouseRepo
		outboxStore = memory.NewOutbox()
	}

	var payments policies.PaymentGateway = memory.NewPaymentGateway()
	notifier := notify.LogNotifier{Logger: logger}
	idStore := memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory, Payments: payments, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmPaymentCommand{}.Key(), &bookingapp.ConfirmPaymentHandler{
		UoWFactory: uowFactory, Payments: payments, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ApproveBookingCommand{}.Key(), &bookingapp.ApproveBookingHandler{
		UoWFactory: uowFactory, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(), &bookingapp.RejectBookingHandler{
		UoWFactory: uowFactory, Payments: payments, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory, Payments: payments, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
		Grace: cfg.CancelGracePeriod,
	})
	commands.RegisterHandler(commandBus, bookingapp.ReconcileBookingCommand{}.Key(), &bookingapp.ReconcileBookingHandler{
		UoWFactory: uowFactory, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	})
	lifecycle := &bookingapp.LifecycleHandler{
		UoWFactory: uowFactory, Notifier: notifier, Outbox: outboxStore, Encoder: encoder, Logger: logger,
	}
	commands.RegisterHandler(commandBus, bookingapp.ActivateBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.ActivateBookingCommand, *bookingapp.LifecycleResult](lifecycle.HandleActivate))
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(),
		commands.HandlerFunc[bookingapp.CompleteBookingCommand, *bookingapp.LifecycleResult](lifecycle.HandleComplete))

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Availability: ginserver.AvailabilityHandler{
				Queries: queryBusWithMiddleware,
			},
		},
		warehouses: warehouses,
		worker:     worker,
		producer:   producer,
		ready:      ready,
	}, nil
}

func (a application) close(logger *slog.Logger) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}
}

func (a application) loadWarehouseFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("warehouse fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("warehouse fixtures file empty", "path", path)
		return nil
	}

	var fixtures []warehouseFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	for _, fx := range fixtures {
		w, err := domainwarehouse.New(domainwarehouse.CreateParams{
			ID:       domainwarehouse.WarehouseID(fx.ID),
			Owner:    domainwarehouse.OwnerID(fx.Owner),
			Name:     fx.Name,
			Location: fx.Location,
			Rates: domainwarehouse.RateCard{
				BaseRate:   moneyFromFixture(fx.BaseRateMinor, fx.Currency),
				RateUnit:   unitKindFromFixture(fx.RateUnit),
				FeeRateBps: fx.FeeRateBps,
			},
			Capacity: domainwarehouse.Capacity{
				Total:     fx.CapacityTotal,
				Available: fx.CapacityTotal,
				Unit:      fx.CapacityUnit,
			},
			MinDuration: fx.MinDuration,
			MaxDuration: fx.MaxDuration,
			Now:         now,
		})
		if err != nil {
			logger.Error("fixture invalid", "warehouse_id", fx.ID, "error", err)
			continue
		}
		if err := w.Activate(now); err != nil {
			logger.Error("fixture activation failed", "warehouse_id", fx.ID, "error", err)
			continue
		}
		if err := w.MarkVerified(now); err != nil {
			logger.Error("fixture verification failed", "warehouse_id", fx.ID, "error", err)
			continue
		}
		w.ClearEvents()
		if err := a.warehouses.Save(ctx, w); err != nil {
			logger.Error("cannot store fixture warehouse", "warehouse_id", fx.ID, "error", err)
			continue
		}
		logger.Info("warehouse fixture imported", "warehouse_id", w.ID)
	}
	return nil
}

type warehouseFixture struct {
	ID            string  `json:"id"`
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	BaseRateMinor int64   `json:"base_rate_minor"`
	Currency      string  `json:"currency"`
	RateUnit      string  `json:"rate_unit"`
	FeeRateBps    int64   `json:"fee_rate_bps"`
	CapacityTotal float64 `json:"capacity_total"`
	CapacityUnit  string  `json:"capacity_unit"`
	MinDuration   int     `json:"min_duration"`
	MaxDuration   int     `json:"max_duration"`
}

func moneyFromFixture(amount int64, currency string) money.Money {
	if currency == "" {
		currency = "INR"
	}
	return money.Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

func unitKindFromFixture(raw string) daterange.UnitKind {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WEEK":
		return daterange.UnitWeek
	case "MONTH":
		return daterange.UnitMonth
	default:
		return daterange.UnitDay
	}
}

func defaultWarehouseFixturesPath() string {
	return filepath.Join("data", "warehouses.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
