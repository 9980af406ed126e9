package ticket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/modules/credentials"
	"github.com/ringdesk/core/internal/pkg/response"
	"go.uber.org/zap"
)

// DeskClient is the subset of the helpdesk API the ticket routes need.
type DeskClient interface {
	ListTickets(ctx context.Context, domainURL, organizationID, accessToken string) (json.RawMessage, error)
	CreateTicket(ctx context.Context, domainURL, organizationID, accessToken string, ticket interface{}) (json.RawMessage, error)
}

// CredentialSource yields fresh ticketing credentials for a company.
type CredentialSource interface {
	Obtain(ctx context.Context, companyID int) (credentials.Credentials, error)
}

// Handler exposes direct ticket listing and creation against the helpdesk,
// always through the credential lifecycle manager.
type Handler struct {
	creds     CredentialSource
	desk      DeskClient
	companyID int
	logger    *zap.Logger
}

func NewHandler(creds CredentialSource, desk DeskClient, companyID int, logger *zap.Logger) *Handler {
	return &Handler{creds: creds, desk: desk, companyID: companyID, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tickets", h.list)
	rg.POST("/tickets", h.create)
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	creds, err := h.creds.Obtain(ctx, h.companyID)
	if err != nil {
		h.logger.Error("obtain credentials failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	body, err := h.desk.ListTickets(ctx, creds.DomainURL, creds.OrganizationID, creds.AccessToken)
	if err != nil {
		h.logger.Error("ticket listing failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// create passes the caller-supplied ticket body through untouched.
func (h *Handler) create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("read ticket body failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if !json.Valid(raw) {
		response.BadRequest(c, "request body must be valid JSON")
		return
	}

	ctx := c.Request.Context()
	creds, err := h.creds.Obtain(ctx, h.companyID)
	if err != nil {
		h.logger.Error("obtain credentials failed", zap.Error(err))
		response.InternalError(c)
		return
	}

	body, err := h.desk.CreateTicket(ctx, creds.DomainURL, creds.OrganizationID, creds.AccessToken, json.RawMessage(raw))
	if err != nil {
		h.logger.Error("ticket creation failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}
