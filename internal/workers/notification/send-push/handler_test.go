package sendpush

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"delivery-notifier/internal/common/config"
	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Executor
// ==========================

type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, source string, input *Input) (*Output, error)
}

func (m *MockExecutor) Execute(ctx context.Context, source string, input *Input) (*Output, error) {
	return m.ExecuteFunc(ctx, source, input)
}

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "order-dispatch",
		ElementId:          "Activity_NotifyDrivers",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          variables,
	}}
}

func TestHandler_Process(t *testing.T) {
	var gotSource string
	var gotInput *Input
	exec := &MockExecutor{ExecuteFunc: func(_ context.Context, source string, input *Input) (*Output, error) {
		gotSource, gotInput = source, input
		return &Output{Sent: 3, Failed: 1, DispatchID: "d-1"}, nil
	}}

	h := NewHandler(DefaultConfig(), exec, logger.NewTestLogger(t))
	vars, err := h.process(context.Background(), createMockJob(1,
		`{"userIds":["d1","d2"],"title":"New Order Available","data":{"type":"order_available","orderId":"o1"},"processVar":true}`))
	require.NoError(t, err)

	assert.Equal(t, SourceZeebe, gotSource)
	assert.Equal(t, []string{"d1", "d2"}, gotInput.UserIDs)
	assert.Equal(t, "o1", gotInput.OrderID())
	assert.Equal(t, map[string]interface{}{"sent": 3, "failed": 1, "dispatchId": "d-1"}, vars)
}

func TestHandler_ProcessEarlyExitCarriesMessage(t *testing.T) {
	exec := &MockExecutor{ExecuteFunc: func(context.Context, string, *Input) (*Output, error) {
		return &Output{Message: MsgNoDrivers, DispatchID: "d-2"}, nil
	}}

	h := NewHandler(DefaultConfig(), exec, logger.NewNoOpLogger())
	vars, err := h.process(context.Background(), createMockJob(2, `{"userIds":["c1"]}`))
	require.NoError(t, err)
	assert.Equal(t, MsgNoDrivers, vars["message"])
	assert.Equal(t, 0, vars["sent"])
}

func TestHandler_ProcessErrors(t *testing.T) {
	lookupErr := errors.NewSubscriptionLookupFailedError(stderrors.New("down"))
	exec := &MockExecutor{ExecuteFunc: func(context.Context, string, *Input) (*Output, error) {
		return nil, lookupErr
	}}
	h := NewHandler(DefaultConfig(), exec, logger.NewNoOpLogger())

	_, err := h.process(context.Background(), createMockJob(3, `{not json`))
	require.Error(t, err)
	bpmn := errors.ConvertToBPMNError(errors.AsStandardError(err))
	assert.Equal(t, "VALIDATION_FAILED", bpmn.Code)
	assert.Zero(t, bpmn.Retries)

	_, err = h.process(context.Background(), createMockJob(4, `{"userIds":["u1"]}`))
	require.Error(t, err)
	assert.Equal(t, 3, errors.ConvertToBPMNError(errors.AsStandardError(err)).Retries)
}

func TestHandler_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Second
	assert.Equal(t, 5*time.Second, NewHandler(cfg, &MockExecutor{}, logger.NewNoOpLogger()).Timeout())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.VAPID.PublicKey, c.VAPID.PrivateKey = "pub", "priv"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"zero jobs", func(c *Config) { c.MaxJobsActive = 0 }, "max_jobs_active"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"missing key", func(c *Config) { c.VAPID.PrivateKey = "" }, "vapid"},
		{"negative ttl", func(c *Config) { c.VAPID.TTL = -1 }, "ttl"},
		{"job timeout below delivery round", func(c *Config) { c.Timeout = 15 * time.Second }, "delivery timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_MaxSafeFanOut(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 40, c.MaxSafeFanOut())

	c.Timeout = 20 * time.Second
	assert.Equal(t, 8, c.MaxSafeFanOut())

	c.VAPID.DeliveryTimeout = 0
	assert.Equal(t, 0, c.MaxSafeFanOut())
}

func TestConfigFromApp(t *testing.T) {
	app := &config.Config{
		Push: config.PushConfig{
			VAPIDPublicKey:   "pub",
			VAPIDPrivateKey:  "priv",
			AppName:          "Deliveries",
			Concurrency:      4,
			Timeout:          2500,
			Urgency:          "high",
			LegacyTitleMatch: false,
		},
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 15000},
		},
	}

	cfg := ConfigFromApp(app)
	assert.Equal(t, "Deliveries", cfg.AppName)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.False(t, cfg.LegacyTitleMatch)
	assert.Equal(t, 2500*time.Millisecond, cfg.VAPID.DeliveryTimeout)
	assert.Equal(t, "high", cfg.VAPID.Urgency)
	assert.Equal(t, 86400, cfg.VAPID.TTL)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultConfig(), ConfigFromApp(nil))
}

func TestAuditRecord_JSONShape(t *testing.T) {
	raw, err := json.Marshal(AuditRecord{DispatchID: "d", Source: "http", Sent: 1})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"dispatchId", "source", "recipients", "sent", "failed", "pruned", "createdAt"} {
		assert.Contains(t, m, key)
	}
}
