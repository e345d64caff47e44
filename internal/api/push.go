package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"
	sendpush "delivery-notifier/internal/workers/notification/send-push"

	"github.com/gin-gonic/gin"
)

var errInvalidJSON = stderrors.New("request body is not valid JSON")

type Dispatcher interface {
	Execute(ctx context.Context, source string, input *sendpush.Input) (*sendpush.Output, error)
}

type PushHandler struct {
	service Dispatcher
	logger  logger.Logger
}

func NewPushHandler(service Dispatcher, log logger.Logger) *PushHandler {
	return &PushHandler{service: service, logger: log}
}

// SendPush is the dispatch endpoint. Success and every "nothing to send" outcome
// are 200 with {sent, failed, message?}; the error body is deliberately minimal.
func (h *PushHandler) SendPush(c *gin.Context) {
	raw, err := c.GetRawData()
	if err == nil && !json.Valid(raw) {
		err = errInvalidJSON
	}
	if err != nil {
		h.fail(c, errors.NewInvalidRequestBodyError(err))
		return
	}

	res, err := sendpush.GetInputSchema().ValidateJSON(raw)
	if err != nil {
		h.fail(c, errors.NewInvalidRequestBodyError(err))
		return
	}
	if !res.Valid {
		h.fail(c, errors.NewValidationError(res.Error()))
		return
	}

	var input sendpush.Input
	if err := json.Unmarshal(raw, &input); err != nil {
		h.fail(c, errors.NewInvalidRequestBodyError(err))
		return
	}

	out, err := h.service.Execute(c.Request.Context(), sendpush.SourceHTTP, &input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *PushHandler) fail(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := stdErr.HTTPStatus()
	_ = c.Error(err)

	if status == http.StatusBadRequest {
		h.logger.Warn("rejected send-push request", map[string]interface{}{"details": stdErr.Details})
		c.JSON(status, gin.H{"error": stdErr.Message, "details": stdErr.Details})
		return
	}

	h.logger.Error("send-push request failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	c.JSON(status, gin.H{"error": "Internal server error"})
}
