package sendpush

import (
	"context"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/common/metrics"
	"delivery-notifier/internal/common/observability"
	"delivery-notifier/internal/models"

	"github.com/google/uuid"
)

type SubscriptionFinder interface {
	FindByUserIDs(ctx context.Context, userIDs []string) ([]models.PushSubscription, error)
}

type SubscriptionStore interface {
	SubscriptionFinder
	Pruner
}

type ServiceDependencies struct {
	Orders        OrderReader
	Profiles      ProfileReader
	Subscriptions SubscriptionStore
	Sender        Sender
	Auditor       AuditRecorder
	Observability *observability.Observability
	Logger        logger.Logger
}

type Service struct {
	config        *Config
	resolver      *Resolver
	subscriptions SubscriptionFinder
	dispatcher    *Dispatcher
	auditor       AuditRecorder
	obs           *observability.Observability
	logger        logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	auditor := deps.Auditor
	if auditor == nil {
		auditor = NoopAuditor{}
	}

	return &Service{
		config:        config,
		resolver:      NewResolver(deps.Orders, deps.Profiles, config.LegacyTitleMatch, log),
		subscriptions: deps.Subscriptions,
		dispatcher:    NewDispatcher(deps.Sender, deps.Subscriptions, config.Concurrency, log),
		auditor:       auditor,
		obs:           deps.Observability,
		logger:        log,
	}
}

// Execute runs resolve, lookup, dispatch and prune for one request. Only a
// validation failure or a failed subscription lookup returns an error; every
// "nothing to send" outcome is an Output with a Message.
func (s *Service) Execute(ctx context.Context, source string, input *Input) (*Output, error) {
	start := time.Now()

	if err := ValidateInput(input); err != nil {
		s.observe(ctx, source, "invalid", start)
		return nil, err
	}

	dispatchID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"dispatchId": dispatchID,
		"source":     source,
	})

	rec := AuditRecord{
		DispatchID:       dispatchID,
		Source:           source,
		NotificationType: input.Type(),
	}

	// Once accepted, a dispatch runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	resolution := s.resolver.Resolve(ctx, input)
	rec.Recipients = len(resolution.Recipients)
	if resolution.OrderAvailable && rec.NotificationType == "" {
		rec.NotificationType = models.NotificationTypeOrderAvailable
	}

	if len(resolution.Recipients) == 0 {
		log.Info("no eligible recipients", map[string]interface{}{
			"reason":  resolution.Reason,
			"orderId": input.OrderID(),
		})
		return s.finish(ctx, &rec, &Output{Message: resolution.Reason}, "skipped", start), nil
	}

	subs, err := s.subscriptions.FindByUserIDs(ctx, resolution.Recipients)
	if err != nil {
		log.Error("subscription lookup failed", map[string]interface{}{
			"recipients": len(resolution.Recipients),
			"error":      err,
		})
		s.observe(ctx, source, "failed", start)
		return nil, errors.AsStandardError(err)
	}

	rec.Subscriptions = len(subs)
	if len(subs) == 0 {
		return s.finish(ctx, &rec, &Output{Message: MsgNoSubscriptions}, "skipped", start), nil
	}

	if limit := s.config.MaxSafeFanOut(); source == SourceZeebe && limit > 0 && len(subs) > limit {
		log.Warn("fan-out may outlive the job timeout", map[string]interface{}{
			"subscriptions": len(subs),
			"maxSafeFanOut": limit,
			"jobTimeout":    s.config.Timeout.String(),
		})
	}

	payload, err := BuildPayload(input, s.config.AppName)
	if err != nil {
		s.observe(ctx, source, "failed", start)
		return nil, errors.NewInternalError(err)
	}

	result := s.dispatcher.Dispatch(ctx, subs, payload)
	rec.Pruned = result.Pruned
	if s.obs != nil {
		s.obs.RecordDeliveries(ctx, result.Sent, result.Failed)
	}

	log.Info("dispatch completed", map[string]interface{}{
		"recipients":    len(resolution.Recipients),
		"subscriptions": len(subs),
		"sent":          result.Sent,
		"failed":        result.Failed,
		"pruned":        result.Pruned,
	})

	return s.finish(ctx, &rec, &Output{Sent: result.Sent, Failed: result.Failed}, "dispatched", start), nil
}

func (s *Service) finish(ctx context.Context, rec *AuditRecord, out *Output, outcome string, start time.Time) *Output {
	out.DispatchID = rec.DispatchID

	rec.Sent = out.Sent
	rec.Failed = out.Failed
	rec.Message = out.Message
	rec.DurationMs = time.Since(start).Milliseconds()
	rec.CreatedAt = time.Now().UTC()
	s.auditor.Record(ctx, *rec)

	s.observe(ctx, rec.Source, outcome, start)
	return out
}

func (s *Service) observe(ctx context.Context, source, outcome string, start time.Time) {
	elapsed := time.Since(start)
	metrics.DispatchRequests.WithLabelValues(source, outcome).Inc()
	metrics.DispatchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if s.obs != nil {
		s.obs.RecordDispatch(ctx, elapsed, outcome)
	}
}
