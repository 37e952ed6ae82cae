package cmd

import (
	"context"
	"errors"

	"bicho/config"
	"bicho/domain/interfaces"
	"bicho/infrastructure"

	log "github.com/sirupsen/logrus"
)

// errNATSRequired is returned when a command must publish events but has nowhere to send them
var errNATSRequired = errors.New("NATS_SERVERS must be set to publish settlement events")

// eventBus is the event publisher together with the NATS connection behind it
type eventBus struct {
	publisher *infrastructure.NATSEventPublisher
	client    *infrastructure.NATSClient
}

// Close drains the NATS connection, if any
func (b *eventBus) Close() {
	if b.client == nil {
		return
	}
	if err := b.client.Close(); err != nil {
		log.WithError(err).Error("Failed to close NATS connection")
	}
}

// Connected reports whether events leave the process
func (b *eventBus) Connected() bool {
	return b.client != nil && b.client.IsConnected()
}

// connectEventBus connects to NATS and ensures the domain event stream. Without
// NATS_SERVERS events stay in-process, unless requireNATS is set.
func connectEventBus(ctx context.Context, cfg *config.Config, metrics infrastructure.PublishMetrics, requireNATS bool) (*eventBus, error) {
	subjectMapper := infrastructure.NewEventSubjectMapper()

	if cfg.NATSServers == "" {
		if requireNATS {
			return nil, errNATSRequired
		}
		log.Warn("NATS_SERVERS not set, events stay in-process")
		return &eventBus{publisher: infrastructure.NewNATSEventPublisher(nil, subjectMapper, metrics)}, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if err := client.EnsureStream(infrastructure.DomainEventStream, subjectMapper.GetAllSubjects()); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &eventBus{
		publisher: infrastructure.NewNATSEventPublisher(client, subjectMapper, metrics),
		client:    client,
	}, nil
}

// connectBalanceCache returns a nil cache when REDIS_ADDR is unset
func connectBalanceCache(ctx context.Context, cfg *config.Config) (interfaces.BalanceCache, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	log.Info("Connecting to Redis...")
	client, err := infrastructure.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Redis connection established successfully")

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis connection")
		}
	}
	return infrastructure.NewRedisBalanceCache(client, cfg.BalanceTTL), closeFn, nil
}
