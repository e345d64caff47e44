// internal/models/order.go
package models

const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is the read-only slice of an order the notifier needs.
type Order struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	DriverID *string `json:"driverId,omitempty"`
}

// Claimable reports whether drivers may still be offered the order.
func (o *Order) Claimable() bool {
	return o.Status == OrderStatusPending && (o.DriverID == nil || *o.DriverID == "")
}
