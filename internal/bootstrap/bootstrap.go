// Package bootstrap wires the dispatch pipeline from configuration. Both the HTTP
// API and the Zeebe worker manager start from here.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"delivery-notifier/internal/common/config"
	"delivery-notifier/internal/common/database"
	commonhttp "delivery-notifier/internal/common/http"
	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/common/observability"
	"delivery-notifier/internal/repository"
	sendpush "delivery-notifier/internal/workers/notification/send-push"
)

type Components struct {
	PushConfig    *sendpush.Config
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	Subscriptions *repository.SubscriptionRepository
	Service       *sendpush.Service
	Observability *observability.Observability
}

// Build connects the stores and assembles the send-push service. Postgres is
// required; Redis and Elasticsearch are optional and degrade to no cache and no
// audit trail.
func Build(ctx context.Context, cfg *config.Config, serviceName string, log logger.Logger) (*Components, error) {
	pushCfg := sendpush.ConfigFromApp(cfg)
	if err := pushCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid push configuration: %w", err)
	}

	c := &Components{PushConfig: pushCfg}

	err := RetryWithBackoff(ctx, func() error {
		pg, err := database.ConnectPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return err
		}
		c.Postgres = pg
		return nil
	}, 10, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", nil)

	if cfg.Database.Redis.Enabled() {
		rc, err := database.ConnectRedis(ctx, cfg.Database.Redis)
		if err != nil {
			log.Warn("redis unavailable, profile cache disabled", map[string]interface{}{"error": err})
		} else {
			c.Redis = rc
		}
	}

	var auditor sendpush.AuditRecorder = sendpush.NoopAuditor{}
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.Warn("elasticsearch client init failed, dispatch audit disabled", map[string]interface{}{"error": err})
		} else {
			if err := es.Ping(ctx); err != nil {
				log.Warn("elasticsearch ping failed, audit writes may fail", map[string]interface{}{"error": err})
			} else if err := es.EnsureIndex(ctx, pushCfg.AuditIndex, sendpush.AuditIndexMapping()); err != nil {
				log.Warn("audit index setup failed", map[string]interface{}{"index": pushCfg.AuditIndex, "error": err})
			}
			c.Elasticsearch = es
			auditor = sendpush.NewElasticsearchAuditor(es, pushCfg.AuditIndex, log)
		}
	}

	c.Observability = observability.New(serviceName)
	c.Subscriptions = repository.NewSubscriptionRepository(c.Postgres.DB)

	c.Service = sendpush.NewService(sendpush.ServiceDependencies{
		Orders:        repository.NewOrderRepository(c.Postgres.DB),
		Profiles:      repository.NewProfileRepository(c.Postgres.DB, c.Redis.Cache(), config.GetDuration(cfg.Database.Redis.ProfileCacheTTL), log),
		Subscriptions: c.Subscriptions,
		Sender:        sendpush.NewWebPushSender(pushCfg.VAPID, commonhttp.NewClient(pushCfg.VAPID.DeliveryTimeout, pushCfg.Concurrency)),
		Auditor:       auditor,
		Observability: c.Observability,
		Logger:        log,
	}, pushCfg)

	return c, nil
}

func (c *Components) Close() {
	if c.Observability != nil {
		c.Observability.Shutdown()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay between
// attempts.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
