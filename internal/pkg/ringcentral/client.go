package ringcentral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// Client talks to the RingCentral platform API. Every call logs in with the
// configured JWT assertion first, mirroring the platform SDK's per-request
// session model; the client itself holds no mutable state.
type Client struct {
	serverURL    string
	clientID     string
	clientSecret string
	assertion    string
	httpClient   *http.Client
	logger       *zap.Logger
}

// New creates a RingCentral client for the given server and app credentials.
func New(serverURL, clientID, clientSecret, assertion string, logger *zap.Logger) *Client {
	return &Client{
		serverURL:    strings.TrimRight(serverURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		assertion:    assertion,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// Login exchanges the JWT assertion for a platform access token.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.warnIfAssertionExpired()

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", c.assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/restapi/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ringcentral login failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ringcentral login rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("ringcentral login returned status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("ringcentral login returned no access token")
	}
	return out.AccessToken, nil
}

// warnIfAssertionExpired inspects the configured assertion's exp claim without
// verifying the signature; an expired assertion will be rejected upstream, the
// warning just makes the cause obvious in the logs.
func (c *Client) warnIfAssertionExpired() {
	claims := jwtlib.MapClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(c.assertion, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Before(time.Now()) {
		c.logger.Warn("configured ringcentral jwt assertion is expired",
			zap.Time("expired_at", exp.Time),
		)
	}
}

// Get performs an authenticated GET against a platform path.
func (c *Client) Get(ctx context.Context, path string) (int, json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST. body may be nil.
func (c *Client) Post(ctx context.Context, path string, body json.RawMessage) (int, json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs an authenticated PUT. body may be nil.
func (c *Client) Put(ctx context.Context, path string, body json.RawMessage) (int, json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete performs an authenticated DELETE against a platform path.
func (c *Client) Delete(ctx context.Context, path string) (int, json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// RenewSubscription extends a webhook subscription's expiry.
func (c *Client) RenewSubscription(ctx context.Context, subscriptionID string) (json.RawMessage, error) {
	status, body, err := c.Post(ctx, "/restapi/v1.0/subscription/"+url.PathEscape(subscriptionID)+"/renew", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("subscription renew returned status %d", status)
	}
	return body, nil
}

// do logs in, issues the request, and returns the upstream status with the
// raw body. A non-2xx status is not an error; callers decide how to map it.
func (c *Client) do(ctx context.Context, method, path string, body json.RawMessage) (int, json.RawMessage, error) {
	token, err := c.Login(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("ringcentral request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read ringcentral response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
