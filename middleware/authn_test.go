package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateAccess(ctx context.Context, token string) (*domain.Principal, error) {
	args := m.Called(ctx, token)
	if p, ok := args.Get(0).(*domain.Principal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(validator *MockTokenValidator) *gin.Engine {
	r := gin.New()
	r.Use(ErrorTranslator(), BearerAuthenticator(validator))

	r.GET("/public", func(c *gin.Context) {
		_, ok := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/me", RequireAuthenticated(), func(c *gin.Context) {
		principal, _ := domain.PrincipalFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"email": principal.Subject, "role": principal.Role})
	})
	r.GET("/admin", RequireRole(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused"))
	})
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFilterChain(t *testing.T) {
	user := &domain.Principal{Subject: "a@x.com", Role: domain.RoleUser}
	admin := &domain.Principal{Subject: "root@x.com", Role: domain.RoleAdmin}

	testCases := []struct {
		name       string
		path       string
		authHeader string
		mockSetup  func(m *MockTokenValidator)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous on public route",
			path:       "/public",
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous on protected route",
			path:       "/me",
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeUnauthenticated,
		},
		{
			name:       "valid token",
			path:       "/me",
			authHeader: "Bearer good",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "good").Return(user, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "lowercase scheme",
			path:       "/me",
			authHeader: "bearer good",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "good").Return(user, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed header",
			path:       "/public",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeTokenInvalid,
		},
		{
			name:       "empty bearer",
			path:       "/public",
			authHeader: "Bearer ",
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeTokenInvalid,
		},
		{
			name:       "expired token",
			path:       "/me",
			authHeader: "Bearer old",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "old").Return(nil, serrors.TokenExpired())
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeTokenExpired,
		},
		{
			name:       "invalid token on public route still rejected",
			path:       "/public",
			authHeader: "Bearer forged",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "forged").Return(nil, serrors.TokenInvalid(errors.New("signature is invalid")))
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeTokenInvalid,
		},
		{
			name:       "user on admin route",
			path:       "/admin",
			authHeader: "Bearer good",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "good").Return(user, nil)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   serrors.CodeAccessDenied,
		},
		{
			name:       "admin on admin route",
			path:       "/admin",
			authHeader: "Bearer root",
			mockSetup: func(m *MockTokenValidator) {
				m.On("ValidateAccess", mock.Anything, "root").Return(admin, nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "anonymous on admin route",
			path:       "/admin",
			wantStatus: http.StatusUnauthorized,
			wantCode:   serrors.CodeUnauthenticated,
		},
		{
			name:       "untyped error is not leaked",
			path:       "/broken",
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   serrors.CodeTemporarilyUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			validator := new(MockTokenValidator)
			if tc.mockSetup != nil {
				tc.mockSetup(validator)
			}

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rec := httptest.NewRecorder()
			newTestRouter(validator).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantCode != "" {
				body := decodeError(t, rec)
				assert.Equal(t, tc.wantCode, body.Error)
				assert.NotContains(t, rec.Body.String(), "connection refused")
			}
			validator.AssertExpectations(t)
		})
	}
}

func TestPrincipalFrom_ContextPropagation(t *testing.T) {
	validator := new(MockTokenValidator)
	validator.On("ValidateAccess", mock.Anything, "good").
		Return(&domain.Principal{Subject: "a@x.com", Role: domain.RoleUser}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	newTestRouter(validator).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@x.com","role":"USER"}`, rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
