package zohodesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Scopes requested when exchanging a refresh token for an access token.
const tokenScope = "Desk.tickets.READ,Desk.tickets.CREATE,Desk.basic.READ,Desk.contacts.READ"

// Ticket is the Zoho Desk ticket creation payload. Cf carries the raw webhook
// payload as a custom field for audit purposes.
type Ticket struct {
	Subject      string      `json:"subject"`
	Description  string      `json:"description"`
	ContactID    string      `json:"contactId"`
	DepartmentID string      `json:"departmentId"`
	Category     string      `json:"category"`
	SubCategory  string      `json:"subCategory"`
	Phone        string      `json:"phone"`
	Status       string      `json:"status"`
	AssigneeID   string      `json:"assigneeId"`
	Cf           interface{} `json:"cf,omitempty"`
}

// Client wraps the Zoho Desk REST API and the Zoho accounts OAuth endpoint.
type Client struct {
	accountsURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// New creates a Zoho Desk client. accountsURL is the OAuth host, e.g.
// "https://accounts.zoho.com".
func New(accountsURL string, logger *zap.Logger) *Client {
	return &Client{
		accountsURL: accountsURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

// ExchangeToken trades a refresh token for a fresh access token.
func (c *Client) ExchangeToken(ctx context.Context, clientID, clientSecret, refreshToken string) (string, error) {
	params := url.Values{}
	params.Set("refresh_token", refreshToken)
	params.Set("client_id", clientID)
	params.Set("client_secret", clientSecret)
	params.Set("scope", tokenScope)
	params.Set("grant_type", "refresh_token")

	endpoint := c.accountsURL + "/oauth/v2/token?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no access token")
	}
	return out.AccessToken, nil
}

// ListTickets fetches the tenant's tickets.
func (c *Client) ListTickets(ctx context.Context, domainURL, organizationID, accessToken string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+domainURL+"/api/v1/tickets", nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	setDeskHeaders(req, organizationID, accessToken)
	return c.do(req)
}

// CreateTicket submits a new ticket. The payload may be a Ticket or any
// JSON-marshalable value when passing a caller-supplied body through.
func (c *Client) CreateTicket(ctx context.Context, domainURL, organizationID, accessToken string, ticket interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("marshal ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+domainURL+"/api/v1/tickets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setDeskHeaders(req, organizationID, accessToken)
	return c.do(req)
}

func setDeskHeaders(req *http.Request, organizationID, accessToken string) {
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)
	req.Header.Set("orgId", organizationID)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zoho desk request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read zoho desk response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("zoho desk api error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", req.URL.Path),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("zoho desk returned status %d", resp.StatusCode)
	}
	return body, nil
}
