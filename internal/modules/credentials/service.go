package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// tokenWindow is how long a Zoho access token stays valid after issuance.
	tokenWindow = 60 * time.Minute
	// refreshMargin triggers an early refresh to absorb clock skew and
	// in-flight request latency.
	refreshMargin = 5 * time.Minute
)

// ErrRefreshFailed means the token exchange yielded no usable access token.
var ErrRefreshFailed = errors.New("access token refresh failed")

// TokenExchanger trades a refresh token for a new access token.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, clientID, clientSecret, refreshToken string) (string, error)
}

// Service is the credential lifecycle manager: it loads the stored Desk
// configuration, refreshes the access token lazily when it nears expiry, and
// persists the refreshed blob before handing credentials out. Every ticket
// operation must go through Obtain; nothing may use a stored token directly.
type Service struct {
	store     Store
	exchanger TokenExchanger
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, exchanger TokenExchanger, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		exchanger: exchanger,
		logger:    logger,
		now:       time.Now,
	}
}

// Obtain returns usable ticketing credentials for the company, refreshing the
// access token first when fewer than five minutes of its window remain.
// Concurrent refreshes for the same company can race; last write wins.
func (s *Service) Obtain(ctx context.Context, companyID int) (Credentials, error) {
	cfg, err := s.store.GetConfig(ctx, companyID)
	if err != nil {
		return Credentials{}, err
	}

	remaining := tokenWindow - s.now().Sub(cfg.CreatedAt.Time())
	if remaining <= refreshMargin {
		s.logger.Info("refreshing zoho access token",
			zap.Int("company_id", companyID),
			zap.Duration("remaining", remaining),
		)

		token, err := s.exchanger.ExchangeToken(ctx, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken)
		if err != nil {
			return Credentials{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		if token == "" {
			return Credentials{}, ErrRefreshFailed
		}

		cfg.AccessToken = token
		cfg.CreatedAt = Millis(s.now().UnixMilli())
		if err := s.store.UpdateConfig(ctx, companyID, cfg); err != nil {
			return Credentials{}, err
		}
	}

	return Credentials{
		AccessToken:    cfg.AccessToken,
		DomainURL:      cfg.DomainURL,
		OrganizationID: cfg.OrganizationID,
	}, nil
}
