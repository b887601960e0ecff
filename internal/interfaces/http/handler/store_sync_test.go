package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/auth"
	"github.com/storesync/backend/internal/infrastructure/config"
)

const (
	testJWTSecret  = "handler-test-secret-at-least-32-characters"
	testCronSecret = "cron-shared-secret"
	gatewayPath    = "/functions/v1/sync-store"
)

// MockStoreSyncer is a mock implementation of StoreSyncer
type MockStoreSyncer struct {
	mock.Mock
}

func (m *MockStoreSyncer) SyncOne(ctx context.Context, integrationID uuid.UUID) (*integration.SyncResult, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockStoreSyncer) SyncAll(ctx context.Context) ([]integration.BatchOutcome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.BatchOutcome), args.Error(1)
}

// fakeProfiles is an in-memory identity.ProfileRepository
type fakeProfiles struct {
	profiles map[uuid.UUID]*identity.Profile
	err      error
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return p, nil
}

type gatewayFixture struct {
	syncer   *MockStoreSyncer
	profiles *fakeProfiles
	jwt      *auth.JWTService
	router   *gin.Engine
	admin    uuid.UUID
	client   uuid.UUID
}

func newGatewayFixture(t *testing.T, cronSecret string) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		syncer: new(MockStoreSyncer),
		jwt:    auth.NewJWTService(config.AuthConfig{JWTSecret: testJWTSecret}),
		admin:  uuid.New(),
		client: uuid.New(),
	}
	f.profiles = &fakeProfiles{profiles: map[uuid.UUID]*identity.Profile{
		f.admin:  {ID: f.admin, Role: identity.RoleAdmin},
		f.client: {ID: f.client, Role: identity.RoleClient},
	}}

	h := NewStoreSyncHandler(f.syncer, f.jwt, f.profiles, cronSecret, nil)
	f.router = gin.New()
	f.router.OPTIONS(gatewayPath, h.Preflight)
	f.router.POST(gatewayPath, h.Trigger)
	return f
}

func (f *gatewayFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := f.jwt.Issue(userID, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *gatewayFixture) do(body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, gatewayPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestStoreSyncHandler_Preflight(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, gatewayPath, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, gatewayAllowHeaders, w.Header().Get("Access-Control-Allow-Headers"))
}

func TestStoreSyncHandler_ManualSync(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)
	integrationID := uuid.New()

	f.syncer.On("SyncOne", mock.Anything, integrationID).
		Return(&integration.SyncResult{SyncedOrders: 3, SyncedDays: 2}, nil).Once()

	w := f.do(fmt.Sprintf(`{"integration_id":%q}`, integrationID), map[string]string{
		"Authorization": "Bearer " + f.token(t, f.admin),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"synced_orders":3,"synced_days":2}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	f.syncer.AssertExpectations(t)
}

func TestStoreSyncHandler_Rejections(t *testing.T) {
	validBody := fmt.Sprintf(`{"integration_id":%q}`, uuid.New())

	tests := []struct {
		name       string
		body       string
		headers    func(t *testing.T, f *gatewayFixture) map[string]string
		profileErr error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no credentials",
			body:       validBody,
			headers:    func(*testing.T, *gatewayFixture) map[string]string { return nil },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name: "invalid token",
			body: validBody,
			headers: func(*testing.T, *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer nope"}
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name: "wrong cron secret without token",
			body: validBody,
			headers: func(*testing.T, *gatewayFixture) map[string]string {
				return map[string]string{CronSecretHeader: "guess"}
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name: "non-admin caller",
			body: validBody,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, f.client)}
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"Forbidden"}`,
		},
		{
			name: "caller without profile",
			body: validBody,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, uuid.New())}
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"Forbidden"}`,
		},
		{
			name: "profile lookup failure",
			body: validBody,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, f.admin)}
			},
			profileErr: errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal Server Error"}`,
		},
		{
			name: "missing integration id",
			body: `{}`,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, f.admin)}
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"integration_id required"}`,
		},
		{
			name: "unparseable body counts as empty",
			body: `not json`,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, f.admin)}
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"integration_id required"}`,
		},
		{
			name: "malformed uuid",
			body: `{"integration_id":"store-1"}`,
			headers: func(t *testing.T, f *gatewayFixture) map[string]string {
				return map[string]string{"Authorization": "Bearer " + f.token(t, f.admin)}
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"integration_id must be a UUID"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t, testCronSecret)
			f.profiles.err = tt.profileErr

			w := f.do(tt.body, tt.headers(t, f))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			f.syncer.AssertNotCalled(t, "SyncOne", mock.Anything, mock.Anything)
			f.syncer.AssertNotCalled(t, "SyncAll", mock.Anything)
		})
	}
}

func TestStoreSyncHandler_SyncErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", integration.ErrIntegrationNotFound, http.StatusNotFound},
		{"unsupported platform", fmt.Errorf("%w: magento", integration.ErrUnsupportedPlatform), http.StatusBadGateway},
		{"incomplete credentials", fmt.Errorf("%w: missing api_key", integration.ErrIncompleteCredentials), http.StatusBadGateway},
		{"upstream", fmt.Errorf("%w: %w", integration.ErrUpstream, integration.ErrPlatformUnavailable), http.StatusBadGateway},
		{"anything else", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t, testCronSecret)
			integrationID := uuid.New()
			f.syncer.On("SyncOne", mock.Anything, integrationID).Return(nil, tt.err).Once()

			w := f.do(fmt.Sprintf(`{"integration_id":%q}`, integrationID), map[string]string{
				"Authorization": "Bearer " + f.token(t, f.admin),
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.err.Error()), w.Body.String())
		})
	}
}

func TestStoreSyncHandler_CronBatch(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)
	good, bad := uuid.New(), uuid.New()

	f.syncer.On("SyncAll", mock.Anything).Return([]integration.BatchOutcome{
		{IntegrationID: good, Result: &integration.SyncResult{SyncedOrders: 5, SyncedDays: 2}},
		{IntegrationID: bad, Err: integration.ErrIncompleteCredentials},
	}, nil).Once()

	w := f.do("", map[string]string{CronSecretHeader: testCronSecret})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"synced":[
		{"id":%q,"synced_orders":5,"synced_days":2},
		{"id":%q,"error":%q}
	]}`, good, bad, integration.ErrIncompleteCredentials.Error()), w.Body.String())
	f.syncer.AssertExpectations(t)
}

func TestStoreSyncHandler_CronBatchEmpty(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)
	f.syncer.On("SyncAll", mock.Anything).Return([]integration.BatchOutcome{}, nil).Once()

	w := f.do(`{}`, map[string]string{CronSecretHeader: testCronSecret})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"synced":[]}`, w.Body.String())
}

func TestStoreSyncHandler_CronBatchListFailure(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)
	f.syncer.On("SyncAll", mock.Anything).Return(nil, errors.New("list active integrations: timeout")).Once()

	w := f.do("", map[string]string{CronSecretHeader: testCronSecret})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStoreSyncHandler_CronSingle(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)
	integrationID := uuid.New()
	f.syncer.On("SyncOne", mock.Anything, integrationID).
		Return(&integration.SyncResult{SyncedOrders: 1, SyncedDays: 1}, nil).Once()

	w := f.do(fmt.Sprintf(`{"integration_id":%q}`, integrationID), map[string]string{CronSecretHeader: testCronSecret})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"synced_orders":1,"synced_days":1}`, w.Body.String())
}

func TestStoreSyncHandler_CronDisabledWithoutSecret(t *testing.T) {
	f := newGatewayFixture(t, "")

	w := f.do("", map[string]string{CronSecretHeader: ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("", map[string]string{CronSecretHeader: "anything"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	f.syncer.AssertNotCalled(t, "SyncAll", mock.Anything)
}

func TestStoreSyncHandler_AdminTokenWithoutBodyIsNotBatch(t *testing.T) {
	f := newGatewayFixture(t, testCronSecret)

	w := f.do("", map[string]string{"Authorization": "Bearer " + f.token(t, f.admin)})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.syncer.AssertNotCalled(t, "SyncAll", mock.Anything)
}
