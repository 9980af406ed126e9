package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ringdesk/core/internal/modules/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCreds struct {
	creds credentials.Credentials
	err   error
}

func (f *fakeCreds) Obtain(ctx context.Context, companyID int) (credentials.Credentials, error) {
	return f.creds, f.err
}

type fakeDesk struct {
	listResult   json.RawMessage
	createResult json.RawMessage
	err          error

	gotDomain string
	gotOrg    string
	gotToken  string
	created   []interface{}
}

func (f *fakeDesk) ListTickets(ctx context.Context, domainURL, organizationID, accessToken string) (json.RawMessage, error) {
	f.gotDomain, f.gotOrg, f.gotToken = domainURL, organizationID, accessToken
	return f.listResult, f.err
}

func (f *fakeDesk) CreateTicket(ctx context.Context, domainURL, organizationID, accessToken string, ticket interface{}) (json.RawMessage, error) {
	f.gotDomain, f.gotOrg, f.gotToken = domainURL, organizationID, accessToken
	f.created = append(f.created, ticket)
	return f.createResult, f.err
}

func newTestRouter(creds *fakeCreds, desk *fakeDesk) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(creds, desk, 1, zap.NewNop()).RegisterRoutes(r.Group("/api"))
	return r
}

func TestList(t *testing.T) {
	creds := &fakeCreds{creds: credentials.Credentials{
		AccessToken:    "tok-1",
		DomainURL:      "desk.example.com",
		OrganizationID: "org-1",
	}}
	desk := &fakeDesk{listResult: json.RawMessage(`{"data":[]}`)}
	r := newTestRouter(creds, desk)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":[]}`, rr.Body.String())
	assert.Equal(t, "desk.example.com", desk.gotDomain)
	assert.Equal(t, "org-1", desk.gotOrg)
	assert.Equal(t, "tok-1", desk.gotToken)
}

func TestList_CredentialFailureIs500(t *testing.T) {
	creds := &fakeCreds{err: errors.New("no config")}
	r := newTestRouter(creds, &fakeDesk{})

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestCreate_PassesBodyThrough(t *testing.T) {
	creds := &fakeCreds{creds: credentials.Credentials{AccessToken: "tok-1"}}
	desk := &fakeDesk{createResult: json.RawMessage(`{"id":"t-1"}`)}
	r := newTestRouter(creds, desk)

	body := `{"subject":"Manual ticket","departmentId":"d-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"t-1"}`, rr.Body.String())

	require.Len(t, desk.created, 1)
	raw, ok := desk.created[0].(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, body, string(raw))
}

func TestCreate_RejectsInvalidJSON(t *testing.T) {
	desk := &fakeDesk{}
	r := newTestRouter(&fakeCreds{}, desk)

	req := httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(`{broken`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, desk.created)
}
