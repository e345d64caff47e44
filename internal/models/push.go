// internal/models/push.go
package models

import "time"

// PushSubscription is one registered browser/device channel. A user may hold
// several; (UserID, Endpoint) is unique.
type PushSubscription struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Endpoint  string           `json:"endpoint"`
	Keys      SubscriptionKeys `json:"keys"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// NotificationTypeOrderAvailable marks a broadcast offering an order to drivers.
const NotificationTypeOrderAvailable = "order_available"

// NotificationRequest is the inbound dispatch request, shared by the HTTP API and
// the send-push job.
type NotificationRequest struct {
	UserIDs []string               `json:"userIds"`
	Title   string                 `json:"title,omitempty"`
	Body    string                 `json:"body,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Type returns data.type when it is a string.
func (r NotificationRequest) Type() string {
	s, _ := r.Data["type"].(string)
	return s
}

// OrderID returns data.orderId when it is a non-empty string.
func (r NotificationRequest) OrderID() string {
	s, _ := r.Data["orderId"].(string)
	return s
}

// PushPayload is the JSON body encrypted and delivered to each device.
type PushPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
}
