package sendpush

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "send-push"

type Executor interface {
	Execute(ctx context.Context, source string, input *Input) (*Output, error)
}

// Retrier re-sends broker commands that failed for transient reasons.
type Retrier interface {
	ExecuteWithRetry(ctx context.Context, commandFunc func(context.Context) (interface{}, error), operationName string) (interface{}, error)
}

// Handler lets BPMN processes trigger a dispatch through a send-push service task.
type Handler struct {
	config       *Config
	service      Executor
	errorHandler *errors.ErrorHandler
	retrier      Retrier
	logger       logger.Logger
}

func NewHandler(config *Config, service Executor, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"worker": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

// WithRetrier makes job completion retry on transient broker errors.
func (h *Handler) WithRetrier(r Retrier) *Handler {
	h.retrier = r
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing send-push job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	variables, err := h.process(ctx, job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	send := func(ctx context.Context) (interface{}, error) {
		return cmd.Send(ctx)
	}
	if h.retrier != nil {
		_, err = h.retrier.ExecuteWithRetry(ctx, send, "complete send-push job")
	} else {
		_, err = send(ctx)
	}
	if err != nil {
		return fmt.Errorf("complete job %d: %w", job.GetKey(), err)
	}
	return nil
}

// process turns job variables into a dispatch and the variables to complete with.
func (h *Handler) process(ctx context.Context, job entities.Job) (map[string]interface{}, error) {
	input, err := parseInput(job)
	if err != nil {
		return nil, err
	}

	out, err := h.service.Execute(ctx, SourceZeebe, input)
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"sent":       out.Sent,
		"failed":     out.Failed,
		"dispatchId": out.DispatchID,
	}
	if out.Message != "" {
		vars["message"] = out.Message
	}
	return vars, nil
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidRequestBodyError(err)
	}
	return &input, nil
}

func (h *Handler) Timeout() time.Duration {
	return h.config.Timeout
}
