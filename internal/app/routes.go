package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/modules/credentials"
	"github.com/ringdesk/core/internal/modules/message"
	"github.com/ringdesk/core/internal/modules/subscription"
	"github.com/ringdesk/core/internal/modules/ticket"
	"github.com/ringdesk/core/internal/modules/webhook"
	"github.com/ringdesk/core/internal/pkg/response"
	"github.com/ringdesk/core/internal/pkg/ringcentral"
	"github.com/ringdesk/core/internal/pkg/twilio"
	"github.com/ringdesk/core/internal/pkg/zohodesk"
)

func (a *App) registerRoutes() {
	r := a.router
	cfg := a.cfg

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Upstream clients
	platform := ringcentral.New(
		cfg.RingCentral.ServerURL,
		cfg.RingCentral.ClientID,
		cfg.RingCentral.ClientSecret,
		cfg.RingCentral.JWT,
		a.logger,
	)
	desk := zohodesk.New(cfg.Zoho.AccountsURL, a.logger)
	sms := twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, a.logger)

	// Shared services
	credsSvc := credentials.NewService(credentials.NewGormStore(a.db), desk, a.logger)
	webhookSvc := webhook.NewService(a.db, credsSvc, desk, sms, platform, cfg.CompanyID, cfg.Zoho.WebhookURL, a.logger)

	api := r.Group("/api")
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	webhook.NewHandler(webhookSvc, a.logger).RegisterRoutes(api)
	subscription.NewHandler(platform, a.logger).RegisterRoutes(api)
	ticket.NewHandler(credsSvc, desk, cfg.CompanyID, a.logger).RegisterRoutes(api)
	message.NewHandler(sms, a.logger).RegisterRoutes(api)
}
