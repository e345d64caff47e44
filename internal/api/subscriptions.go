package api

import (
	"context"
	"net/http"
	"time"

	"delivery-notifier/internal/common/errors"
	"delivery-notifier/internal/common/logger"
	"delivery-notifier/internal/common/validation"
	"delivery-notifier/internal/models"

	"github.com/gin-gonic/gin"
)

type SubscriptionWriter interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	DeleteForUser(ctx context.Context, userID, endpoint string) (bool, error)
}

type SubscribeRequest struct {
	UserID       string              `json:"userId" binding:"required"`
	Subscription SubscriptionPayload `json:"subscription"`
}

// SubscriptionPayload mirrors PushSubscription.toJSON() in the browser.
type SubscriptionPayload struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
}

// SubscriptionResponse omits the encryption keys; they never leave the server.
type SubscriptionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UnsubscribeRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Endpoint string `json:"endpoint" binding:"required"`
}

type SubscriptionHandler struct {
	store          SubscriptionWriter
	vapidPublicKey string
	logger         logger.Logger
}

func NewSubscriptionHandler(store SubscriptionWriter, vapidPublicKey string, log logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: store, vapidPublicKey: vapidPublicKey, logger: log}
}

func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/push-subscriptions", h.Subscribe)
	rg.DELETE("/push-subscriptions", h.Unsubscribe)
	rg.GET("/push/vapid-public-key", h.VAPIDPublicKey)
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, string(errors.ErrCodeValidationFailed), err.Error())
		return
	}
	if !validation.ValidatePushEndpoint(req.Subscription.Endpoint) {
		Error(c, http.StatusBadRequest, string(errors.ErrCodeValidationFailed), "subscription.endpoint must be an https URL")
		return
	}

	sub := &models.PushSubscription{
		UserID:   req.UserID,
		Endpoint: req.Subscription.Endpoint,
		Keys: models.SubscriptionKeys{
			P256dh: req.Subscription.Keys.P256dh,
			Auth:   req.Subscription.Keys.Auth,
		},
	}

	if err := h.store.Upsert(c.Request.Context(), sub); err != nil {
		h.writeFailed(c, "upsert", err)
		return
	}

	Success(c, http.StatusCreated, SubscriptionResponse{
		ID:        sub.ID,
		UserID:    sub.UserID,
		Endpoint:  sub.Endpoint,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	})
}

func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, string(errors.ErrCodeValidationFailed), err.Error())
		return
	}

	removed, err := h.store.DeleteForUser(c.Request.Context(), req.UserID, req.Endpoint)
	if err != nil {
		h.writeFailed(c, "delete", err)
		return
	}

	Success(c, http.StatusOK, gin.H{"removed": removed})
}

func (h *SubscriptionHandler) VAPIDPublicKey(c *gin.Context) {
	Success(c, http.StatusOK, gin.H{"publicKey": h.vapidPublicKey})
}

func (h *SubscriptionHandler) writeFailed(c *gin.Context, op string, err error) {
	stdErr := errors.AsStandardError(err)
	h.logger.Error("subscription write failed", map[string]interface{}{
		"operation": op,
		"details":   stdErr.Details,
	})
	Error(c, http.StatusInternalServerError, string(stdErr.Code), "Failed to update push subscription")
}
