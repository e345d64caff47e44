package sendpush

import (
	"delivery-notifier/internal/common/errors"
	"delivery-notifier/pkg/registry"
)

// Activity describes the send-push job contract for the worker registry.
func Activity(cfg *Config) registry.Activity {
	return registry.Activity{
		ID:          TaskType,
		DisplayName: "Send Push Notification",
		Description: "Resolves eligible recipients and delivers a web push notification to each of their subscriptions",
		Category:    "notification",
		Version:     "1.0.0",
		TaskType:    TaskType,
		InputSchema: inputSchemaDefinition,
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sent":       map[string]interface{}{"type": "integer"},
				"failed":     map[string]interface{}{"type": "integer"},
				"dispatchId": map[string]interface{}{"type": "string"},
				"message":    map[string]interface{}{"type": "string"},
			},
		},
		ErrorCodes: []string{
			errors.BPMNErrorMapping[errors.ErrCodeValidationFailed],
			errors.BPMNErrorMapping[errors.ErrCodeSubscriptionLookupFailed],
		},
		Timeout: cfg.Timeout.String(),
		Retries: 3,
		Tags:    []string{"push", "webpush", "drivers"},
	}
}
