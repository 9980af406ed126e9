package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	subscriptionPath = "/restapi/v1.0/subscription"

	deletedMessage = "¡Operation competed!"
	errorMessage   = "An error ocurred"
)

// PlatformClient proxies authenticated calls to the telephony platform API.
// Non-2xx statuses come back in the status return, not as errors.
type PlatformClient interface {
	Get(ctx context.Context, path string) (int, json.RawMessage, error)
	Post(ctx context.Context, path string, body json.RawMessage) (int, json.RawMessage, error)
	Put(ctx context.Context, path string, body json.RawMessage) (int, json.RawMessage, error)
	Delete(ctx context.Context, path string) (int, json.RawMessage, error)
	RenewSubscription(ctx context.Context, subscriptionID string) (json.RawMessage, error)
}

// Handler exposes the RingCentral subscription management passthrough.
type Handler struct {
	platform PlatformClient
	logger   *zap.Logger
}

func NewHandler(platform PlatformClient, logger *zap.Logger) *Handler {
	return &Handler{platform: platform, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subscription", h.list)
	rg.POST("/subscription", h.create)
	rg.GET("/subscription/:id", h.get)
	rg.PUT("/subscription/:id", h.update)
	rg.DELETE("/subscription/:id", h.remove)
	rg.POST("/subscription/:id/renew", h.renew)
}

func (h *Handler) list(c *gin.Context) {
	status, body, err := h.platform.Get(c.Request.Context(), subscriptionPath)
	h.passthrough(c, status, body, err)
}

func (h *Handler) create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("read subscription body failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	status, body, err := h.platform.Post(c.Request.Context(), subscriptionPath, raw)
	h.passthrough(c, status, body, err)
}

func (h *Handler) get(c *gin.Context) {
	status, body, err := h.platform.Get(c.Request.Context(), h.idPath(c))
	h.passthrough(c, status, body, err)
}

func (h *Handler) update(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("read subscription body failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	status, body, err := h.platform.Put(c.Request.Context(), h.idPath(c), raw)
	h.passthrough(c, status, body, err)
}

// remove maps the platform's 202 to a friendly confirmation; any other
// upstream status is passed through with an error message.
func (h *Handler) remove(c *gin.Context) {
	status, _, err := h.platform.Delete(c.Request.Context(), h.idPath(c))
	if err != nil {
		h.logger.Error("subscription delete failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if status == http.StatusAccepted {
		response.Message(c, deletedMessage)
		return
	}
	response.Status(c, status, errorMessage)
}

func (h *Handler) renew(c *gin.Context) {
	body, err := h.platform.RenewSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("subscription renew failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (h *Handler) idPath(c *gin.Context) string {
	return subscriptionPath + "/" + url.PathEscape(c.Param("id"))
}

// passthrough relays a 2xx upstream reply verbatim and collapses everything
// else into the uniform 500.
func (h *Handler) passthrough(c *gin.Context, status int, body json.RawMessage, err error) {
	if err != nil {
		h.logger.Error("platform request failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if status < 200 || status >= 300 {
		h.logger.Error("platform returned error status",
			zap.Int("status", status),
			zap.ByteString("body", body),
		)
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
