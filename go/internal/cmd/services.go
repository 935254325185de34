package main

import (
	"context"
	"database/sql"

	"github.com/mcdev12/jokenpo/go/internal/gateway"
	"github.com/mcdev12/jokenpo/go/internal/room"
	"github.com/mcdev12/jokenpo/go/internal/room/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Manager    *room.Manager
	Gateway    *gateway.Service
	Dispatcher *events.Dispatcher
	Publisher  events.Publisher
}

// setupPublisher falls back to logging events when NATS is not configured
// or unreachable.
func setupPublisher(ctx context.Context, config *Config) events.Publisher {
	if config.NATS.URL == "" {
		log.Info().Msg("NATS_URL not set, room events are logged only")
		return events.LogPublisher{}
	}
	jsCfg := events.DefaultJetStreamConfig()
	jsCfg.URL = config.NATS.URL
	jsCfg.StreamName = config.NATS.StreamName

	pub, err := events.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		log.Error().Err(err).Str("nats_url", config.NATS.URL).Msg("JetStream unavailable, room events are logged only")
		return events.LogPublisher{}
	}
	return pub
}

func setupServices(ctx context.Context, config *Config, database *sql.DB, cache *redis.Client) *Services {
	// Database layer → Repository layer → Manager → Gateway
	var store room.Store = room.NewRepository(database)
	if cache != nil {
		store = room.NewCachedStore(store, room.NewRedisRowCache(cache), config.Redis.CacheTTL)
	}

	publisher := setupPublisher(ctx, config)
	dispatcher := events.NewDispatcher(publisher, events.DefaultDispatcherConfig())

	manager := room.NewManager(store, config.roomConfig(),
		room.WithEvents(dispatcher),
		room.WithMetrics(room.NewPrometheusMetrics(prometheus.DefaultRegisterer)),
	)

	gwCfg := gateway.DefaultConfig()
	gwCfg.ConnectionConfig.CheckOrigin = originChecker(config.Server.AllowedOrigins)
	gw := gateway.NewService(gwCfg, manager, gateway.NewJWTAuthenticator(config.Auth.JWTSecret), manager)

	return &Services{
		Manager:    manager,
		Gateway:    gw,
		Dispatcher: dispatcher,
		Publisher:  publisher,
	}
}
