package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "ringdesk"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultCompanyID  = 1
	defaultZohoAPI    = "https://accounts.zoho.com"
)

// AppConfig holds runtime startup configuration. Values come from an optional
// YAML file and are overridden by environment variables; the struct is
// immutable after Load and passed by reference into every component.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"` // MySQL DSN
	Database       DatabaseRuntimeConfig `yaml:"database"`
	CompanyID      int                   `yaml:"company_id"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	RingCentral    RingCentralConfig     `yaml:"ringcentral"`
	Twilio         TwilioConfig          `yaml:"twilio"`
	Zoho           ZohoConfig            `yaml:"zoho"`
}

type DatabaseRuntimeConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

// RingCentralConfig carries the telephony platform application credentials.
type RingCentralConfig struct {
	ServerURL    string `yaml:"server_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	JWT          string `yaml:"jwt"` // pre-issued JWT assertion for the password-less grant
}

// TwilioConfig carries the SMS provider account credentials and sender number.
type TwilioConfig struct {
	AccountSID  string `yaml:"account_sid"`
	AuthToken   string `yaml:"auth_token"`
	PhoneNumber string `yaml:"phone_number"`
}

// ZohoConfig carries the ticketing side settings that are not per-company.
type ZohoConfig struct {
	AccountsURL string `yaml:"accounts_url"` // OAuth token endpoint host
	WebhookURL  string `yaml:"webhook_url"`  // forwarding target for /api/webhook/send
}

// Load reads the YAML config file (if present), applies defaults and
// environment overrides, and validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != "" && path != DefaultConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Environment-only configuration is fine.
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.CompanyID < 1 {
		return nil, fmt.Errorf("invalid company_id %d, expected >= 1", cfg.CompanyID)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:      defaultPort,
		Env:       defaultEnv,
		CompanyID: defaultCompanyID,
		Database: DatabaseRuntimeConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
		Zoho: ZohoConfig{AccountsURL: defaultZohoAPI},
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := envString("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := envString("NODE_ENV", "ENV"); v != "" {
		cfg.Env = v
	}
	if v := envString("COMPANY_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.CompanyID = id
		}
	}
	if v := envString("DB_CONNECTION_STRING", "DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := envString("RC_SERVER_URL"); v != "" {
		cfg.RingCentral.ServerURL = v
	}
	if v := envString("RC_CLIENT_ID"); v != "" {
		cfg.RingCentral.ClientID = v
	}
	if v := envString("RC_CLIENT_SECRET"); v != "" {
		cfg.RingCentral.ClientSecret = v
	}
	if v := envString("RC_JWT"); v != "" {
		cfg.RingCentral.JWT = v
	}
	if v := envString("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Twilio.AccountSID = v
	}
	if v := envString("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}
	if v := envString("TWILIO_PHONE_NUMBER"); v != "" {
		cfg.Twilio.PhoneNumber = v
	}
	if v := envString("ZOHO_ACCOUNTS_URL"); v != "" {
		cfg.Zoho.AccountsURL = v
	}
	if v := envString("ZOHO_WEBHOOK_URL"); v != "" {
		cfg.Zoho.WebhookURL = v
	}
}

func envString(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.RingCentral.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.RingCentral.ServerURL), "/")
	cfg.Zoho.AccountsURL = strings.TrimRight(strings.TrimSpace(cfg.Zoho.AccountsURL), "/")
	if cfg.Zoho.AccountsURL == "" {
		cfg.Zoho.AccountsURL = defaultZohoAPI
	}
	cfg.Zoho.WebhookURL = strings.TrimSpace(cfg.Zoho.WebhookURL)

	out := cfg.AllowedOrigins[:0]
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	cfg.AllowedOrigins = out

	cfg.DSN = cfg.Database.DSNValue()
}

// DSNValue builds the MySQL DSN from parts unless an explicit DSN was given.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultDBHost
	}
	port := c.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := strings.TrimSpace(c.User)
	if user == "" {
		user = defaultDBUser
	}
	password := strings.TrimSpace(c.Password)
	if password == "" {
		password = defaultDBPassword
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = defaultDBName
	}
	charset := strings.TrimSpace(c.Charset)
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := strings.TrimSpace(c.Loc)
	if loc == "" {
		loc = defaultDBLoc
	}

	params := neturl.Values{}
	params.Set("charset", charset)
	params.Set("parseTime", "true")
	params.Set("loc", loc)

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		user, password, net.JoinHostPort(host, strconv.Itoa(port)), name, params.Encode())
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
