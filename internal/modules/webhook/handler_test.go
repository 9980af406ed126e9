package webhook

import (
	"encoding/json"
	"io"
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

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api"))
	return r
}

func postWebhook(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestReceive_ValidationEchoesToken(t *testing.T) {
	svc := newTestService(&fakeCredentialSource{}, &fakeTicketCreator{}, &fakeMessageSender{}, &fakeRenewer{})
	r := newTestRouter(svc)

	rr := postWebhook(r, `{}`, map[string]string{"Validation-Token": "vt-42"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "vt-42", rr.Header().Get("Validation-Token"))
	assert.JSONEq(t, `{"message":"¡Webhook is work!"}`, rr.Body.String())
}

func TestReceive_MissedCallEndToEnd(t *testing.T) {
	creds := &fakeCredentialSource{creds: credentials.Credentials{AccessToken: "t", DomainURL: "d", OrganizationID: "o"}}
	desk := &fakeTicketCreator{result: json.RawMessage(`{"id":"t-1"}`)}
	sms := &fakeMessageSender{sid: "SM1"}
	svc := newTestService(creds, desk, sms, &fakeRenewer{})
	r := newTestRouter(svc)

	body := `{"body":{"parties":[{"missedCall":true,"from":{"phoneNumber":"+15550001111"}}]}}`
	rr := postWebhook(r, body, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"!Successfully!"}`, rr.Body.String())
	require.Len(t, desk.tickets, 1)
	assert.Equal(t, "RingCentral: Missed call", desk.tickets[0].Subject)
	require.Len(t, sms.to, 1)
	assert.Equal(t, "+15550001111", sms.to[0])
}

func TestReceive_VoicemailReadsPhoneFromBody(t *testing.T) {
	creds := &fakeCredentialSource{creds: credentials.Credentials{AccessToken: "t"}}
	desk := &fakeTicketCreator{result: json.RawMessage(`{"id":"t-2"}`)}
	sms := &fakeMessageSender{sid: "SM2"}
	svc := newTestService(creds, desk, sms, &fakeRenewer{})
	r := newTestRouter(svc)

	body := `{"body":{"eventType":"VoiceMail","parties":[{"missedCall":false,"from":{"phoneNumber":"+15550002222"}}]}}`
	rr := postWebhook(r, body, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, desk.tickets, 1)
	assert.Equal(t, "Voicemail from: +15550002222", desk.tickets[0].Description)
	require.Len(t, sms.to, 1)
	assert.Equal(t, "+15550002222", sms.to[0])
}

func TestReceive_InvalidPhoneIs400(t *testing.T) {
	svc := newTestService(&fakeCredentialSource{}, &fakeTicketCreator{}, &fakeMessageSender{}, &fakeRenewer{})
	r := newTestRouter(svc)

	body := `{"body":{"parties":[{"missedCall":true,"from":{"phoneNumber":"not a phone!"}}]}}`
	rr := postWebhook(r, body, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReceive_TicketFailureIs500(t *testing.T) {
	creds := &fakeCredentialSource{creds: credentials.Credentials{AccessToken: "t"}}
	desk := &fakeTicketCreator{}
	svc := newTestService(creds, desk, &fakeMessageSender{}, &fakeRenewer{})
	r := newTestRouter(svc)

	body := `{"body":{"parties":[{"missedCall":true,"from":{"phoneNumber":"+15550001111"}}]}}`
	rr := postWebhook(r, body, nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rr.Body.String())
}

func TestReceive_RenewalIs204(t *testing.T) {
	platform := &fakeRenewer{}
	svc := newTestService(&fakeCredentialSource{}, &fakeTicketCreator{}, &fakeMessageSender{}, platform)
	r := newTestRouter(svc)

	rr := postWebhook(r, `{"subscriptionId":"sub-1","body":{"expiresIn":30}}`, nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"sub-1"}, platform.ids)
}

func TestReceive_UnrecognizedIsIdempotent(t *testing.T) {
	desk := &fakeTicketCreator{}
	sms := &fakeMessageSender{}
	svc := newTestService(&fakeCredentialSource{}, desk, sms, &fakeRenewer{})
	r := newTestRouter(svc)

	for i := 0; i < 2; i++ {
		rr := postWebhook(r, `{"unexpected":"shape"}`, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"!Successfully!"}`, rr.Body.String())
	}
	assert.Empty(t, desk.tickets)
	assert.Empty(t, sms.to)
}

func TestForward(t *testing.T) {
	var received []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	svc := NewService(nil, &fakeCredentialSource{}, &fakeTicketCreator{}, &fakeMessageSender{}, &fakeRenewer{}, 1, upstream.URL, zap.NewNop())
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/send", strings.NewReader(`{"ticket":"data"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ticket":"data"}`, string(received))
	assert.JSONEq(t, `{"message":"!Successfully!"}`, rr.Body.String())
}

func TestForward_NoURLConfiguredIs500(t *testing.T) {
	svc := NewService(nil, &fakeCredentialSource{}, &fakeTicketCreator{}, &fakeMessageSender{}, &fakeRenewer{}, 1, "", zap.NewNop())
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/send", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
