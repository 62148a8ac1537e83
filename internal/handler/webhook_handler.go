package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"podium/internal/services"
	"podium/internal/transport/httpdto"
	"podium/pkg/logger"
)

// DeliveryDeduper filters replayed webhook deliveries.
type DeliveryDeduper interface {
	FirstDelivery(ctx context.Context, key string) (bool, error)
}

// WebhookHandler receives booking lifecycle deliveries from the form
// provider. The HTTP response never waits on chat or calendar calls: the
// delivery is acked synchronously and the actual work runs as a background
// task.
type WebhookHandler struct {
	service *services.ApplicationService
	dedup   DeliveryDeduper
	log     *logger.Logger
}

func NewWebhookHandler(service *services.ApplicationService, dedup DeliveryDeduper, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, dedup: dedup, log: log}
}

func (h *WebhookHandler) HandleBooking(c *gin.Context) {
	var hook httpdto.BookingWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid webhook payload", httpdto.CodeInvalidRequest))
		return
	}
	if hook.Payload.UID == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing booking uid", httpdto.CodeInvalidRequest))
		return
	}

	switch hook.TriggerEvent {
	case httpdto.BookingCreated:
		h.handleCreated(c, hook.Payload)
	case httpdto.BookingCancelled:
		h.handleCancelled(c, hook.Payload)
	default:
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unsupported trigger event", httpdto.CodeInvalidRequest))
	}
}

func (h *WebhookHandler) handleCreated(c *gin.Context, p httpdto.BookingPayload) {
	if p.Response("title") == "" || p.Response("speakerChatId") == "" || p.StartTime.IsZero() {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("incomplete booking responses", httpdto.CodeInvalidRequest))
		return
	}

	if !h.firstDelivery(c.Request.Context(), httpdto.BookingCreated+":"+p.UID) {
		h.ack(c, p.UID)
		return
	}

	req := services.ApplyRequest{
		ID:             p.UID,
		Title:          p.Response("title"),
		Description:    p.Response("notes"),
		SpeakerName:    p.Response("name"),
		SpeakerChatID:  p.Response("speakerChatId"),
		SpeakerEmail:   p.AttendeeEmail(),
		EventStartTime: p.StartTime,
		EventEndTime:   p.EndTime,
		DurationMins:   p.Length,
	}

	h.background(func(ctx context.Context) {
		if _, err := h.service.Apply(ctx, req); err != nil {
			h.log.Errorf("webhook: apply booking %s: %s", p.UID, err)
		}
	})

	h.ack(c, p.UID)
}

func (h *WebhookHandler) handleCancelled(c *gin.Context, p httpdto.BookingPayload) {
	if !h.firstDelivery(c.Request.Context(), httpdto.BookingCancelled+":"+p.UID) {
		h.ack(c, p.UID)
		return
	}

	h.background(func(ctx context.Context) {
		if err := h.service.Cancel(ctx, p.UID); err != nil {
			h.log.Errorf("webhook: cancel booking %s: %s", p.UID, err)
		}
	})

	h.ack(c, p.UID)
}

func (h *WebhookHandler) ack(c *gin.Context, uid string) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"payload": gin.H{"application_id": uid},
	})
}

// firstDelivery treats a dedup store failure as a first delivery: a replayed
// apply is an upsert and a replayed cancel is a no-op, so availability wins.
func (h *WebhookHandler) firstDelivery(ctx context.Context, key string) bool {
	first, err := h.dedup.FirstDelivery(ctx, key)
	if err != nil {
		h.log.Warnf("webhook: dedup check failed, processing anyway: %s", err)
		return true
	}
	if !first {
		h.log.Infof("webhook: replayed delivery %s ignored", key)
	}
	return first
}

func (h *WebhookHandler) background(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		fn(ctx)
	}()
}
