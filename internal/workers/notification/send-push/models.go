package sendpush

import (
	"time"

	"delivery-notifier/internal/models"
)

type Input = models.NotificationRequest

const (
	SourceHTTP  = "http"
	SourceZeebe = "zeebe"
)

// Output is the caller-visible result. Message is only set on early exits.
type Output struct {
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Message    string `json:"message,omitempty"`
	DispatchID string `json:"-"`
}

// AuditRecord is one indexed dispatch.
type AuditRecord struct {
	DispatchID       string    `json:"dispatchId"`
	Source           string    `json:"source"`
	NotificationType string    `json:"notificationType,omitempty"`
	Recipients       int       `json:"recipients"`
	Subscriptions    int       `json:"subscriptions"`
	Sent             int       `json:"sent"`
	Failed           int       `json:"failed"`
	Pruned           int       `json:"pruned"`
	Message          string    `json:"message,omitempty"`
	DurationMs       int64     `json:"durationMs"`
	CreatedAt        time.Time `json:"createdAt"`
}

const (
	MsgOrderNotFound      = "Order not found"
	MsgOrderAssigned      = "Order already assigned to a driver"
	MsgOrderUnverifiable  = "Unable to verify order status"
	MsgNoDrivers          = "No drivers to notify"
	MsgNoSubscriptions    = "No subscriptions found"
	msgOrderNotPendingFmt = "Order status is %s, not pending"
)
