package webhook

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	validationTokenHeader = "Validation-Token"
	successMessage        = "!Successfully!"
	validationMessage     = "¡Webhook is work!"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook", h.receive)
	rg.POST("/webhook/send", h.forward)
}

// receive classifies the inbound telephony webhook and drives the matching
// downstream sequence. Internal failures surface as a uniform 500; only the
// invalid-phone case maps to 400.
func (h *Handler) receive(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("read webhook body failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	ev := ParseEvent(c.GetHeader(validationTokenHeader), raw)
	ctx := c.Request.Context()

	switch ev.Kind {
	case KindValidation:
		c.Header(validationTokenHeader, ev.ValidationToken)
		response.Message(c, validationMessage)

	case KindRenewal:
		h.svc.HandleRenewal(ctx, ev)
		response.NoContent(c)

	case KindMissedCall, KindVoicemail:
		if err := h.svc.HandleCall(ctx, ev, raw); err != nil {
			if errors.Is(err, ErrInvalidPhoneNumber) {
				response.BadRequest(c, "invalid phone number")
				return
			}
			h.logger.Error("webhook orchestration failed",
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
			response.InternalError(c)
			return
		}
		response.Message(c, successMessage)

	default:
		response.Message(c, successMessage)
	}
}

// forward relays the raw request body to the external ticketing webhook URL.
func (h *Handler) forward(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("read forward body failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	if err := h.svc.Forward(c.Request.Context(), raw); err != nil {
		h.logger.Error("webhook forwarding failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Message(c, successMessage)
}
