package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ringdesk/core/internal/models"
	"github.com/ringdesk/core/internal/modules/credentials"
	"github.com/ringdesk/core/internal/pkg/zohodesk"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInvalidPhoneNumber is the one caller-correctable failure (HTTP 400).
	ErrInvalidPhoneNumber = errors.New("invalid caller phone number")
	// ErrTicketCreationFailed means the ticketing API returned no ticket.
	ErrTicketCreationFailed = errors.New("ticket creation failed")
	// ErrNotificationFailed means the SMS provider returned no message id.
	ErrNotificationFailed = errors.New("sms notification failed")
)

// ackMessage is the fixed SMS acknowledgement sent to callers.
const ackMessage = "Hi! you will soon be attended by one of our agents."

// Fixed Zoho Desk routing, assigned at tenant provisioning time.
const (
	ticketContactID    = "819166000001031001"
	ticketDepartmentID = "819166000000006907"
	ticketAssigneeID   = "819166000000139001"
	ticketPhone        = "+17866042105"
	ticketCategory     = "RingCentral"
)

// CredentialSource yields fresh ticketing credentials for a company.
type CredentialSource interface {
	Obtain(ctx context.Context, companyID int) (credentials.Credentials, error)
}

// TicketCreator submits a ticket to the helpdesk.
type TicketCreator interface {
	CreateTicket(ctx context.Context, domainURL, organizationID, accessToken string, ticket interface{}) (json.RawMessage, error)
}

// MessageSender sends an SMS and returns the provider message id.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) (string, error)
}

// SubscriptionRenewer extends a telephony subscription's expiry.
type SubscriptionRenewer interface {
	RenewSubscription(ctx context.Context, subscriptionID string) (json.RawMessage, error)
}

// Service orchestrates the downstream sequence for classified webhook events:
// renew the subscription, or resolve credentials, create a ticket, and send
// the SMS acknowledgement.
type Service struct {
	db         *gorm.DB // nil disables the audit trail
	creds      CredentialSource
	desk       TicketCreator
	sms        MessageSender
	platform   SubscriptionRenewer
	companyID  int
	forwardURL string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewService(db *gorm.DB, creds CredentialSource, desk TicketCreator, sms MessageSender, platform SubscriptionRenewer, companyID int, forwardURL string, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		creds:      creds,
		desk:       desk,
		sms:        sms,
		platform:   platform,
		companyID:  companyID,
		forwardURL: forwardURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// HandleRenewal renews the subscription named by the event. The outcome never
// changes the HTTP response; failures are logged only.
func (s *Service) HandleRenewal(ctx context.Context, ev Event) {
	if _, err := s.platform.RenewSubscription(ctx, ev.SubscriptionID); err != nil {
		s.logger.Error("subscription renewal failed",
			zap.String("subscription_id", ev.SubscriptionID),
			zap.Error(err),
		)
		s.record(ev, "", "", "renew_failed", nil)
		return
	}
	s.record(ev, "", "", "renewed", nil)
}

// HandleCall drives the missed-call / voicemail sequence: validate the caller
// number, resolve credentials, create the ticket, then send the SMS. The SMS
// is never sent when ticket creation failed.
func (s *Service) HandleCall(ctx context.Context, ev Event, raw json.RawMessage) error {
	if !validPhoneNumber(ev.PhoneNumber) {
		return fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, ev.PhoneNumber)
	}

	creds, err := s.creds.Obtain(ctx, s.companyID)
	if err != nil {
		s.record(ev, "", "", "credentials_failed", raw)
		return fmt.Errorf("obtain credentials: %w", err)
	}

	ticket := formatTicket(ev, raw)
	result, err := s.desk.CreateTicket(ctx, creds.DomainURL, creds.OrganizationID, creds.AccessToken, ticket)
	if err != nil {
		s.record(ev, "", "", "ticket_failed", raw)
		return fmt.Errorf("%w: %v", ErrTicketCreationFailed, err)
	}
	if len(result) == 0 {
		s.record(ev, "", "", "ticket_failed", raw)
		return ErrTicketCreationFailed
	}
	ticketID := extractTicketID(result)

	sid, err := s.sms.SendMessage(ctx, ev.PhoneNumber, ackMessage)
	if err != nil {
		s.record(ev, ticketID, "", "sms_failed", raw)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	s.record(ev, ticketID, sid, "ok", raw)
	return nil
}

// Forward relays an arbitrary payload to the configured external ticketing
// webhook URL.
func (s *Service) Forward(ctx context.Context, payload []byte) error {
	if s.forwardURL == "" {
		return errors.New("no forwarding webhook url configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.forwardURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forward webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("forward webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func formatTicket(ev Event, raw json.RawMessage) zohodesk.Ticket {
	subject := "RingCentral: Missed call"
	description := "Missed call from: " + ev.PhoneNumber
	subCategory := "Missed call"
	if ev.Kind == KindVoicemail {
		subject = "RingCentral: Voicemail"
		description = "Voicemail from: " + ev.PhoneNumber
		subCategory = "Voicemail"
	}

	return zohodesk.Ticket{
		Subject:      subject,
		Description:  description,
		ContactID:    ticketContactID,
		DepartmentID: ticketDepartmentID,
		Category:     ticketCategory,
		SubCategory:  subCategory,
		Phone:        ticketPhone,
		Status:       "Open",
		AssigneeID:   ticketAssigneeID,
		Cf:           raw,
	}
}

func extractTicketID(result json.RawMessage) string {
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return ""
	}
	return out.ID
}

// record appends a best-effort audit row; failures are logged, never surfaced.
func (s *Service) record(ev Event, ticketID, messageSID, outcome string, raw []byte) {
	if s.db == nil {
		return
	}
	row := models.WebhookEventModel{
		Kind:        string(ev.Kind),
		PhoneNumber: ev.PhoneNumber,
		TicketID:    ticketID,
		MessageSID:  messageSID,
		Outcome:     outcome,
		Payload:     string(raw),
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Warn("webhook audit insert failed", zap.Error(err))
	}
}
