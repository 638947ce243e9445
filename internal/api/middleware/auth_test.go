package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/api/middleware"
	"github.com/phrazzld/scry-study/internal/mocks"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()

	tests := []struct {
		name       string
		header     string
		validate   func(ctx context.Context, token string) (*auth.Claims, error)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "valid token",
			header: "Bearer good-token",
			validate: func(_ context.Context, token string) (*auth.Claims, error) {
				if token != "good-token" {
					return nil, auth.ErrInvalidToken
				}
				return &auth.Claims{LearnerID: learnerID, TokenType: "access"}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Authorization header required",
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid authorization format",
		},
		{
			name:   "expired token",
			header: "Bearer old",
			validate: func(context.Context, string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredToken
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Token expired",
		},
		{
			name:   "refresh token",
			header: "Bearer refresh",
			validate: func(context.Context, string) (*auth.Claims, error) {
				return nil, auth.ErrWrongTokenType
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid token",
		},
		{
			name:   "token without learner",
			header: "Bearer anonymous",
			validate: func(context.Context, string) (*auth.Claims, error) {
				return &auth.Claims{TokenType: "access"}, nil
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Invalid token",
		},
		{
			name:   "unexpected failure",
			header: "Bearer boom",
			validate: func(context.Context, string) (*auth.Claims, error) {
				return nil, errors.New("keyring unavailable")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Authentication error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mocks.MockJWTService{ValidateTokenFn: tc.validate}
			var gotLearner uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := middleware.GetLearnerID(r)
				require.True(t, ok)
				gotLearner = id
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/reviews/due", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			middleware.NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, learnerID, gotLearner)
				return
			}
			assert.Contains(t, rr.Body.String(), tc.wantBody)
			assert.NotContains(t, rr.Body.String(), "keyring")
		})
	}
}
