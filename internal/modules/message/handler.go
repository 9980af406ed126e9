package message

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/pkg/response"
	"github.com/ringdesk/core/internal/pkg/twilio"
	"go.uber.org/zap"
)

// defaultBody is sent when the caller does not supply a message.
const defaultBody = "Hi! you will soon be attended by one of our agents."

// Sender sends an SMS and returns the provider message id.
type Sender interface {
	SendMessage(ctx context.Context, to, body string) (string, error)
}

type sendRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Message     string `json:"message"`
}

// Handler exposes direct SMS sending.
type Handler struct {
	sms    Sender
	logger *zap.Logger
}

func NewHandler(sms Sender, logger *zap.Logger) *Handler {
	return &Handler{sms: sms, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/messages", h.send)
}

func (h *Handler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "phoneNumber is required")
		return
	}
	body := req.Message
	if body == "" {
		body = defaultBody
	}

	sid, err := h.sms.SendMessage(c.Request.Context(), req.PhoneNumber, body)
	if err != nil {
		var se *twilio.StatusError
		if errors.As(err, &se) {
			h.logger.Error("sms provider rejected message",
				zap.Int("status", se.Status),
				zap.String("to", req.PhoneNumber),
			)
			response.Status(c, se.Status, "message sending failed")
			return
		}
		h.logger.Error("sms send failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"sid": sid})
}
