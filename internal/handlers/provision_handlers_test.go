package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clawe/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvisionService struct {
	mock.Mock
}

func (m *MockProvisionService) Provision(ctx context.Context, subject, authToken string) (*services.ProvisionResult, error) {
	args := m.Called(ctx, subject, authToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProvisionResult), args.Error(1)
}

type stubVerifier struct {
	subject string
	err     error
}

func (s *stubVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	return s.subject, s.err
}

func provisionRequest(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/tenant/provision", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestProvisionTenant_MissingBackendURL(t *testing.T) {
	h := NewProvisionHandlers(new(MockProvisionService), &stubVerifier{}, "")
	c, rec := provisionRequest("Bearer token")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Backend URL not configured")
	assert.Contains(t, body["error"], "CLAWE_BACKEND_URL")
}

func TestProvisionTenant_MissingAuthorizationHeader(t *testing.T) {
	svc := new(MockProvisionService)
	h := NewProvisionHandlers(svc, &stubVerifier{}, "http://127.0.0.1:3210")
	c, rec := provisionRequest("")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing Authorization header", body["error"])
	svc.AssertNotCalled(t, "Provision")
}

func TestProvisionTenant_InvalidToken(t *testing.T) {
	svc := new(MockProvisionService)
	h := NewProvisionHandlers(svc, &stubVerifier{err: errors.New("bad signature")}, "http://127.0.0.1:3210")
	c, rec := provisionRequest("Bearer garbage")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid token", body["error"])
	svc.AssertNotCalled(t, "Provision")
}

func TestProvisionTenant_Success(t *testing.T) {
	tenantID := uuid.New()
	result := &services.ProvisionResult{
		OK:       true,
		TenantID: tenantID,
		Agents:   services.CategoryOutcome{Created: []string{"clawe"}},
	}

	svc := new(MockProvisionService)
	svc.On("Provision", mock.Anything, "user-123", "valid-token").Return(result, nil)

	h := NewProvisionHandlers(svc, &stubVerifier{subject: "user-123"}, "http://127.0.0.1:3210")
	c, rec := provisionRequest("Bearer valid-token")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body services.ProvisionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, tenantID, body.TenantID)
	svc.AssertExpectations(t)
}

func TestProvisionTenant_ConnectivityHint(t *testing.T) {
	svc := new(MockProvisionService)
	svc.On("Provision", mock.Anything, "user-123", "valid-token").
		Return(nil, errors.New(`provision tenant: dial tcp 127.0.0.1:3210: connection refused`))

	h := NewProvisionHandlers(svc, &stubVerifier{subject: "user-123"}, "http://127.0.0.1:3210")
	c, rec := provisionRequest("Bearer valid-token")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "connection refused")
	assert.Contains(t, body["error"], "Is your Clawe backend running and reachable at http://127.0.0.1:3210?")
}

func TestProvisionTenant_ErrorWithoutHint(t *testing.T) {
	svc := new(MockProvisionService)
	svc.On("Provision", mock.Anything, "user-123", "valid-token").
		Return(nil, errors.New(`tenant in unexpected status "pending"`))

	h := NewProvisionHandlers(svc, &stubVerifier{subject: "user-123"}, "http://127.0.0.1:3210")
	c, rec := provisionRequest("Bearer valid-token")

	require.NoError(t, h.ProvisionTenant(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, `tenant in unexpected status "pending"`, body["error"])
}
