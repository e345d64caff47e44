package sendpush

import (
	"fmt"
	"time"

	"delivery-notifier/internal/common/config"
)

type Config struct {
	Enabled          bool
	MaxJobsActive    int
	Timeout          time.Duration
	AppName          string
	Concurrency      int
	LegacyTitleMatch bool
	AuditIndex       string
	VAPID            VAPIDConfig
}

// VAPIDConfig is loaded once at start and handed to the transport; nothing
// reads VAPID keys from the environment after that.
type VAPIDConfig struct {
	PublicKey       string
	PrivateKey      string
	Subscriber      string
	TTL             int
	Urgency         string
	DeliveryTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		MaxJobsActive:    5,
		Timeout:          60 * time.Second,
		AppName:          "Delivery Marketplace",
		Concurrency:      8,
		LegacyTitleMatch: true,
		AuditIndex:       "push-dispatches",
		VAPID: VAPIDConfig{
			Subscriber:      "notifications@example.com",
			TTL:             86400,
			DeliveryTimeout: 10 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.VAPID.PublicKey == "" || c.VAPID.PrivateKey == "" {
		return fmt.Errorf("vapid key pair is required")
	}
	if c.VAPID.TTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	// Zeebe dispatches are detached from the job context, so a job that
	// times out mid fan-out is redelivered and sent twice.
	if c.VAPID.DeliveryTimeout > 0 && c.Timeout < 2*c.VAPID.DeliveryTimeout {
		return fmt.Errorf("timeout %s must be at least twice the delivery timeout %s", c.Timeout, c.VAPID.DeliveryTimeout)
	}
	return nil
}

// MaxSafeFanOut is the number of subscriptions that can be delivered in the
// worst case before the job timeout elapses. One delivery slot is reserved
// for resolution and lookup. Zero means no limit applies.
func (c *Config) MaxSafeFanOut() int {
	if c.VAPID.DeliveryTimeout <= 0 {
		return 0
	}
	waves := int(c.Timeout/c.VAPID.DeliveryTimeout) - 1
	if waves < 1 {
		waves = 1
	}
	return waves * c.Concurrency
}

// ConfigFromApp merges the push section and the send-push worker entry over the defaults.
func ConfigFromApp(appCfg *config.Config) *Config {
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}

	p := appCfg.Push
	if p.AppName != "" {
		cfg.AppName = p.AppName
	}
	if p.Concurrency > 0 {
		cfg.Concurrency = p.Concurrency
	}
	if p.AuditIndex != "" {
		cfg.AuditIndex = p.AuditIndex
	}
	cfg.LegacyTitleMatch = p.LegacyTitleMatch

	cfg.VAPID.PublicKey = p.VAPIDPublicKey
	cfg.VAPID.PrivateKey = p.VAPIDPrivateKey
	cfg.VAPID.Urgency = p.Urgency
	if p.Subscriber != "" {
		cfg.VAPID.Subscriber = p.Subscriber
	}
	if p.TTL > 0 {
		cfg.VAPID.TTL = p.TTL
	}
	if p.Timeout > 0 {
		cfg.VAPID.DeliveryTimeout = config.GetDuration(p.Timeout)
	}

	if w, ok := appCfg.Workers[TaskType]; ok {
		cfg.Enabled = w.Enabled
		if w.MaxJobsActive > 0 {
			cfg.MaxJobsActive = w.MaxJobsActive
		}
		if w.Timeout > 0 {
			cfg.Timeout = config.GetDuration(w.Timeout)
		}
	}

	return cfg
}
