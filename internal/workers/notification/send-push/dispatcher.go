package sendpush

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/common/metrics"
	"delivery-notifier/internal/models"

	"golang.org/x/sync/errgroup"
)

// Pruner removes a dead endpoint. Removing an absent endpoint must succeed.
type Pruner interface {
	DeleteByEndpoint(ctx context.Context, endpoint string) (int64, error)
}

type DispatchResult struct {
	Sent   int
	Failed int
	Pruned int
}

type Dispatcher struct {
	sender      Sender
	pruner      Pruner
	concurrency int
	logger      logger.Logger
}

func NewDispatcher(sender Sender, pruner Pruner, concurrency int, log logger.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		sender:      sender,
		pruner:      pruner,
		concurrency: concurrency,
		logger:      log,
	}
}

// BuildPayload renders the device payload, applying the title and body defaults.
func BuildPayload(req *Input, appName string) ([]byte, error) {
	p := models.PushPayload{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	}
	if p.Title == "" {
		p.Title = appName
	}
	if p.Data == nil {
		p.Data = map[string]interface{}{}
	}
	return json.Marshal(p)
}

// Dispatch attempts every subscription exactly once, at most d.concurrency at a
// time. Individual failures never stop the batch; 404/410 endpoints are pruned
// by the goroutine that saw the failure.
func (d *Dispatcher) Dispatch(ctx context.Context, subs []models.PushSubscription, payload []byte) DispatchResult {
	var sent, failed, pruned atomic.Int64

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			err := d.sender.Send(ctx, sub, payload)
			if err == nil {
				sent.Add(1)
				metrics.PushDeliveries.WithLabelValues("sent").Inc()
				return nil
			}

			failed.Add(1)

			var delivErr *DeliveryError
			if !stderrors.As(err, &delivErr) || !delivErr.IsGone() {
				metrics.PushDeliveries.WithLabelValues("failed").Inc()
				stdErr := errors.NewPushDeliveryFailedError(statusCode(err), err)
				d.logger.Warn("push delivery failed", map[string]interface{}{
					"userId":         sub.UserID,
					"subscriptionId": sub.ID,
					"errorCode":      string(stdErr.Code),
					"statusCode":     stdErr.Metadata["statusCode"],
					"details":        stdErr.Details,
				})
				return nil
			}

			metrics.PushDeliveries.WithLabelValues("gone").Inc()
			if _, pruneErr := d.pruner.DeleteByEndpoint(ctx, sub.Endpoint); pruneErr != nil {
				d.logger.Error("failed to prune dead subscription", map[string]interface{}{
					"userId":         sub.UserID,
					"subscriptionId": sub.ID,
					"error":          pruneErr,
				})
				return nil
			}

			pruned.Add(1)
			metrics.SubscriptionsPruned.Inc()
			d.logger.Info("pruned dead subscription", map[string]interface{}{
				"userId":         sub.UserID,
				"subscriptionId": sub.ID,
				"statusCode":     delivErr.StatusCode,
			})
			return nil
		})
	}

	_ = g.Wait()

	return DispatchResult{
		Sent:   int(sent.Load()),
		Failed: int(failed.Load()),
		Pruned: int(pruned.Load()),
	}
}

func statusCode(err error) int {
	var delivErr *DeliveryError
	if stderrors.As(err, &delivErr) {
		return delivErr.StatusCode
	}
	return 0
}
