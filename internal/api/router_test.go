package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "github.com/maheshrc27/postr/configs"
	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/models"
	"github.com/maheshrc27/postr/internal/nostrx"
	"github.com/maheshrc27/postr/internal/repository"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/maheshrc27/postr/internal/transfer"
	"github.com/maheshrc27/postr/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret  = "test-secret"
	pubkey  = "aa00000000000000000000000000000000000000000000000000000000000001"
	account = "bb00000000000000000000000000000000000000000000000000000000000002"
)

var testConfig = config.Config{SecretKey: secret, CookieName: "postr_session"}

type fakeAuth struct {
	err    error
	target nostrx.Target
}

func (f *fakeAuth) Login(ctx context.Context, rawEvent string, target nostrx.Target) (*models.User, error) {
	f.target = target
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{Pubkey: pubkey}, nil
}

type fakeUsers struct{}

func (fakeUsers) GetUserInfo(ctx context.Context, pk string) (*models.User, error) {
	return &models.User{Pubkey: pk}, nil
}

func (fakeUsers) UpdateProfile(ctx context.Context, pk string, name *string) (*models.User, error) {
	return &models.User{Pubkey: pk, Name: name}, nil
}

type fakeSchedules struct {
	service.ScheduleService
	err     error
	account string
	user    string
}

func (f *fakeSchedules) Schedule(ctx context.Context, account, user string, in transfer.ScheduleCreation) (*models.Schedule, error) {
	f.account, f.user = account, user
	if f.err != nil {
		return nil, f.err
	}
	return &models.Schedule{ID: "s-1", PostID: in.PostID, Status: models.ScheduleStatusPending}, nil
}

type fakeBilling struct {
	service.SubscriptionService
	payload   string
	signature string
	err       error
}

func (f *fakeBilling) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	f.payload, f.signature = string(payload), signature
	return f.err
}

type fakePosts struct {
	service.PostService
	err error
}

func (f *fakePosts) Get(ctx context.Context, account, user, id string) (*models.Post, error) {
	return nil, f.err
}

func newTestApp(s Services) (func(req *http.Request) *http.Response, func(t *testing.T) string) {
	app := NewApp(testConfig, s, metrics.NewMetrics())
	do := func(req *http.Request) *http.Response {
		resp, err := app.Test(req, -1)
		if err != nil {
			panic(err)
		}
		return resp
	}
	token := func(t *testing.T) string {
		tok, err := utils.GenerateToken(secret, pubkey, time.Hour)
		require.NoError(t, err)
		return tok
	}
	return do, token
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAPIRequiresToken(t *testing.T) {
	do, _ := newTestApp(Services{User: fakeUsers{}})

	resp := do(httptest.NewRequest("GET", "/api/user/info", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/user/info", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIAcceptsBearerAndCookie(t *testing.T) {
	do, token := newTestApp(Services{User: fakeUsers{}})

	req := httptest.NewRequest("GET", "/api/user/info", nil)
	req.Header.Set("Authorization", "Bearer "+token(t))
	resp := do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, pubkey, decode(t, resp)["pubkey"])

	req = httptest.NewRequest("GET", "/api/user/info", nil)
	req.AddCookie(&http.Cookie{Name: testConfig.CookieName, Value: token(t)})
	resp = do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	auth := &fakeAuth{}
	do, _ := newTestApp(Services{Auth: auth})

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"event":{"kind":27235}}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == testConfig.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	claims, err := utils.ValidateToken(secret, session.Value)
	require.NoError(t, err)
	assert.Equal(t, pubkey, claims.Pubkey)
	assert.Equal(t, nostrx.Target{URL: "http://example.com/login", Method: "POST"}, auth.target)
}

func TestLoginFailureIsUnauthorized(t *testing.T) {
	do, _ := newTestApp(Services{Auth: &fakeAuth{err: service.ErrUnauthorized}})

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"event":{"kind":1}}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp = do(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScheduleRouteMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusCreated},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrSubscriptionRequired, http.StatusPaymentRequired},
		{repository.ErrConflict, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		schedules := &fakeSchedules{err: tc.err}
		do, token := newTestApp(Services{Schedule: schedules})

		req := httptest.NewRequest("POST", "/api/accounts/"+strings.ToUpper(account)+"/schedules", strings.NewReader(`{"post_id":"post-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token(t))
		resp := do(req)
		assert.Equal(t, tc.status, resp.StatusCode, "error %v", tc.err)
		assert.Equal(t, account, schedules.account)
		assert.Equal(t, pubkey, schedules.user)
	}
}

func TestInternalErrorsAreNotEchoed(t *testing.T) {
	do, token := newTestApp(Services{Post: &fakePosts{err: io.ErrUnexpectedEOF}})

	req := httptest.NewRequest("GET", "/api/accounts/"+account+"/posts/p-1", nil)
	req.Header.Set("Authorization", "Bearer "+token(t))
	resp := do(req)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "something went wrong", decode(t, resp)["error"])
}

func TestStripeWebhookPassesRawBody(t *testing.T) {
	billing := &fakeBilling{}
	do, _ := newTestApp(Services{Subscription: billing})

	body := `{"id":"evt_1","type":"invoice.paid"}`
	req := httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	resp := do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, billing.payload)
	assert.Equal(t, "t=1,v1=abc", billing.signature)

	billing.err = service.ErrUnauthorized
	resp = do(httptest.NewRequest("POST", "/webhooks/stripe", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	do, _ := newTestApp(Services{})

	resp := do(httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "go_goroutines")
}
