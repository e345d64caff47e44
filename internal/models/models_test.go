package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationRequest_Accessors(t *testing.T) {
	req := NotificationRequest{Data: map[string]interface{}{"type": "order_available", "orderId": "o1"}}
	assert.Equal(t, NotificationTypeOrderAvailable, req.Type())
	assert.Equal(t, "o1", req.OrderID())

	req = NotificationRequest{Data: map[string]interface{}{"type": 3, "orderId": 42}}
	assert.Empty(t, req.Type())
	assert.Empty(t, req.OrderID())

	assert.Empty(t, NotificationRequest{}.Type())
}

func TestOrder_Claimable(t *testing.T) {
	driver := "d1"
	empty := ""

	assert.True(t, (&Order{Status: OrderStatusPending}).Claimable())
	assert.True(t, (&Order{Status: OrderStatusPending, DriverID: &empty}).Claimable())
	assert.False(t, (&Order{Status: OrderStatusPending, DriverID: &driver}).Claimable())
	assert.False(t, (&Order{Status: OrderStatusAccepted}).Claimable())
}
