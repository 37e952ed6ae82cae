package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bicho/api"
	"bicho/application"
	"bicho/config"
	"bicho/database"
	"bicho/domain/services"
	"bicho/infrastructure"
	"bicho/infrastructure/observability"
	"bicho/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the settlement service
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting bicho settlement service...")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()
	log.Info("Metrics initialized successfully")

	log.Info("Connecting to database...")
	db, err := database.NewConnectionWithOptions(ctx, cfg.GetDatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.DatabaseMaxConns,
		MaxConnLifetime: cfg.DatabaseConnTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	log.Info("Initializing event publisher...")
	bus, err := connectEventBus(ctx, cfg, metrics, false)
	if err != nil {
		return err
	}
	defer bus.Close()
	eventPublisher := bus.publisher
	log.Info("Event publisher initialized successfully")

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	balanceCache, closeCache, err := connectBalanceCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	application.RegisterApplicationSubscriptions(uowFactory, balanceCache)

	catalog, err := repository.LoadCatalogSnapshot(ctx, db)
	if err != nil {
		return err
	}

	worker := application.NewSettlementWorker(uowFactory, eventPublisher, metrics, cfg.SettlementWorkers)

	var dispatcher application.SettlementDispatcher
	switch cfg.SettlementDispatch {
	case config.DispatchKafka:
		log.WithField("topic", cfg.KafkaSettlementTopic).Info("Initializing Kafka settlement queue...")
		kafkaDispatcher := infrastructure.NewKafkaSettlementDispatcher(
			infrastructure.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaSettlementTopic),
		)
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher

		consumer := infrastructure.NewKafkaSettlementConsumer(
			infrastructure.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaSettlementTopic, cfg.KafkaGroupID),
			worker,
		)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Settlement consumer stopped")
			}
		}()
	default:
		dispatcher = application.NewDirectDispatcher(worker)
	}

	policy := services.CancellationPolicy{Buffer: cfg.CancelBuffer, Location: loc}
	canceller := application.NewCancellationHandler(uowFactory, policy, metrics)
	balances := services.NewBalanceService(repository.NewLedgerRepository(db), balanceCache)

	health := func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if bus.client != nil && !bus.Connected() {
			return fmt.Errorf("nats: not connected")
		}
		return nil
	}

	apiServer := api.NewServer(canceller, worker, balances, health).Start(cfg.HTTPPort)
	metricsServer := observability.StartMetricsServer(cfg.MetricsPort, health)

	var scheduler *application.SettlementScheduler
	if cfg.SchedulerEnabled {
		scheduler = application.NewSettlementScheduler(dispatcher, catalog.Schedules(), loc, cfg.SettlementDelay, cfg.SettlementSweepInterval)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		// Catch up on slots missed while the service was down
		go scheduler.Sweep(ctx)
	}

	log.Info("Settlement service is running")
	<-ctx.Done()

	log.Info("Shutting down settlement service...")
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownServer(shutdownCtx, "API", apiServer)
	shutdownServer(shutdownCtx, "metrics", metricsServer)

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shut down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func shutdownServer(ctx context.Context, name string, srv *http.Server) {
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).WithField("server", name).Error("Failed to shut down server")
	}
}
