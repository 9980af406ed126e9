package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	cfg     *DeskConfig
	getErr  error
	saveErr error
	saved   []*DeskConfig
}

func (f *fakeStore) GetConfig(ctx context.Context, companyID int) (*DeskConfig, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	clone := *f.cfg
	return &clone, nil
}

func (f *fakeStore) UpdateConfig(ctx context.Context, companyID int, cfg *DeskConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *cfg
	f.saved = append(f.saved, &clone)
	return nil
}

type fakeExchanger struct {
	token string
	err   error
	calls int
}

func (f *fakeExchanger) ExchangeToken(ctx context.Context, clientID, clientSecret, refreshToken string) (string, error) {
	f.calls++
	return f.token, f.err
}

func newTestCredService(store Store, ex TokenExchanger, now time.Time) *Service {
	svc := NewService(store, ex, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func configIssuedAgo(now time.Time, age time.Duration) *DeskConfig {
	return &DeskConfig{
		AccessToken:    "old-token",
		CreatedAt:      Millis(now.Add(-age).UnixMilli()),
		RefreshToken:   "refresh-1",
		DomainURL:      "desk.example.com",
		OrganizationID: "org-1",
		ClientID:       "cid",
		ClientSecret:   "secret",
	}
}

func TestObtain_FreshTokenIsReusedVerbatim(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// 10 minutes into the window, 50 remaining.
	store := &fakeStore{cfg: configIssuedAgo(now, 10*time.Minute)}
	ex := &fakeExchanger{token: "new-token"}
	svc := newTestCredService(store, ex, now)

	creds, err := svc.Obtain(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "old-token", creds.AccessToken)
	assert.Equal(t, "desk.example.com", creds.DomainURL)
	assert.Equal(t, "org-1", creds.OrganizationID)
	assert.Zero(t, ex.calls)
	assert.Empty(t, store.saved)
}

func TestObtain_RefreshesWhenUnderFiveMinutesRemain(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// 56 minutes into the window, 4 remaining.
	store := &fakeStore{cfg: configIssuedAgo(now, 56*time.Minute)}
	ex := &fakeExchanger{token: "new-token"}
	svc := newTestCredService(store, ex, now)

	creds, err := svc.Obtain(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "new-token", creds.AccessToken)
	assert.Equal(t, 1, ex.calls)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, "new-token", saved.AccessToken)
	assert.Equal(t, Millis(now.UnixMilli()), saved.CreatedAt)
	assert.Equal(t, "refresh-1", saved.RefreshToken, "refresh token must survive the rewrite")
	assert.Equal(t, "desk.example.com", saved.DomainURL)
}

func TestObtain_RefreshesOnExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{cfg: configIssuedAgo(now, 3*time.Hour)}
	ex := &fakeExchanger{token: "new-token"}
	svc := newTestCredService(store, ex, now)

	creds, err := svc.Obtain(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "new-token", creds.AccessToken)
	assert.Equal(t, 1, ex.calls)
}

func TestObtain_ConfigNotFound(t *testing.T) {
	store := &fakeStore{getErr: ErrConfigNotFound}
	svc := newTestCredService(store, &fakeExchanger{}, time.Now())

	_, err := svc.Obtain(context.Background(), 1)
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestObtain_ExchangeFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{cfg: configIssuedAgo(now, 59*time.Minute)}
	ex := &fakeExchanger{err: errors.New("zoho down")}
	svc := newTestCredService(store, ex, now)

	_, err := svc.Obtain(context.Background(), 1)
	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.Empty(t, store.saved, "a failed exchange must not be persisted")
}

func TestObtain_EmptyTokenIsRefreshFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{cfg: configIssuedAgo(now, 59*time.Minute)}
	ex := &fakeExchanger{token: ""}
	svc := newTestCredService(store, ex, now)

	_, err := svc.Obtain(context.Background(), 1)
	require.ErrorIs(t, err, ErrRefreshFailed)
	assert.Empty(t, store.saved)
}

func TestObtain_PersistFailureSurfaces(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{cfg: configIssuedAgo(now, 59*time.Minute), saveErr: ErrPersistFailed}
	ex := &fakeExchanger{token: "new-token"}
	svc := newTestCredService(store, ex, now)

	_, err := svc.Obtain(context.Background(), 1)
	require.ErrorIs(t, err, ErrPersistFailed)
}
