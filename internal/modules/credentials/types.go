package credentials

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Millis is a milliseconds-since-epoch timestamp. Stored blobs carry it as a
// string, but older rows may hold a bare number; both decode.
type Millis int64

func (m Millis) Time() time.Time { return time.UnixMilli(int64(m)) }

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(m), 10))
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse created_at %q: %w", raw, err)
	}
	*m = Millis(v)
	return nil
}

// DeskConfig is the JSON blob persisted in the company integration row.
type DeskConfig struct {
	AccessToken    string `json:"access_token"`
	CreatedAt      Millis `json:"created_at"`
	RefreshToken   string `json:"refresh_token"`
	DomainURL      string `json:"domain_url"`
	OrganizationID string `json:"organizationId"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
}

// Credentials is what callers need to talk to the ticketing API.
type Credentials struct {
	AccessToken    string
	DomainURL      string
	OrganizationID string
}
