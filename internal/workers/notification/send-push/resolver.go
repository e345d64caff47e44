package sendpush

import (
	"context"
	"fmt"
	"strings"

	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/models"
)

type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

type ProfileReader interface {
	GetUserTypes(ctx context.Context, userIDs []string) (map[string]string, error)
}

// legacyTitlePhrases identify order broadcasts from callers that predate data.type.
var legacyTitlePhrases = []string{"New Order", "Order Available"}

// Resolution is the eligible recipient set. Reason is set whenever Recipients is empty.
type Resolution struct {
	Recipients     []string
	Reason         string
	OrderAvailable bool
}

type Resolver struct {
	orders           OrderReader
	profiles         ProfileReader
	legacyTitleMatch bool
	logger           logger.Logger
}

func NewResolver(orders OrderReader, profiles ProfileReader, legacyTitleMatch bool, log logger.Logger) *Resolver {
	return &Resolver{
		orders:           orders,
		profiles:         profiles,
		legacyTitleMatch: legacyTitleMatch,
		logger:           log,
	}
}

// IsOrderAvailable reports whether the request is a driver broadcast.
func (r *Resolver) IsOrderAvailable(req *Input) bool {
	if req.Type() == models.NotificationTypeOrderAvailable {
		return true
	}
	if !r.legacyTitleMatch {
		return false
	}
	for _, phrase := range legacyTitlePhrases {
		if strings.Contains(req.Title, phrase) {
			return true
		}
	}
	return false
}

// Resolve never returns an error: every store failure narrows the audience to nobody.
func (r *Resolver) Resolve(ctx context.Context, req *Input) Resolution {
	ids := uniqueIDs(req.UserIDs)

	if !r.IsOrderAvailable(req) {
		return Resolution{Recipients: ids}
	}

	res := Resolution{OrderAvailable: true}

	if orderID := req.OrderID(); orderID != "" {
		if reason := r.checkOrder(ctx, orderID); reason != "" {
			res.Reason = reason
			return res
		}
	}

	types, err := r.profiles.GetUserTypes(ctx, ids)
	if err != nil {
		r.logger.Error("profile lookup failed, notifying no drivers", map[string]interface{}{
			"recipients": len(ids),
			"error":      err,
		})
		res.Reason = MsgNoDrivers
		return res
	}

	for _, id := range ids {
		if types[id] == models.UserTypeDriver {
			res.Recipients = append(res.Recipients, id)
		}
	}
	if len(res.Recipients) == 0 {
		res.Reason = MsgNoDrivers
	}
	return res
}

func (r *Resolver) checkOrder(ctx context.Context, orderID string) string {
	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		r.logger.Error("order lookup failed, skipping broadcast", map[string]interface{}{
			"orderId": orderID,
			"error":   err,
		})
		return MsgOrderUnverifiable
	}

	switch {
	case order == nil:
		return MsgOrderNotFound
	case order.Claimable():
		return ""
	case order.Status != models.OrderStatusPending:
		return fmt.Sprintf(msgOrderNotPendingFmt, order.Status)
	default:
		return MsgOrderAssigned
	}
}
