//go:build e2e

package auth_test

import (
	"net/http"
	"testing"
	"time"

	"garage-booking/internal/domain/user"
	"garage-booking/internal/handler/dto/request"
	resdto "garage-booking/internal/handler/dto/response"
	"garage-booking/tests/common/authtest"
	"garage-booking/tests/common/dbtest"
	"garage-booking/tests/common/httptest"
	"garage-booking/tests/e2e"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	loginURL   = "/api/auth/login"
	logoutURL  = "/api/auth/logout"
	refreshURL = "/api/auth/refresh"
	meURL      = "/api/auth/me"
)

type authSuite struct {
	e2e.SharedSuite
	jwtHelper *authtest.JWTHelper
}

func TestAuthSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(authSuite))
}

func (s *authSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwtHelper = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *authSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	dbtest.CreateTestUser(s.T(), s.DB, "customer@example.com", string(user.RoleCustomer))
	dbtest.CreateTestUser(s.T(), s.DB, "staff@example.com", string(user.RoleStaff))
	dbtest.CreateTestUser(s.T(), s.DB, "admin@example.com", string(user.RoleAdmin))
	dbtest.CreateTestUser(s.T(), s.DB, "inactive@example.com", string(user.RoleCustomer))
	dbtest.DeactivateUser(s.T(), s.DB, "inactive@example.com")
}

func (s *authSuite) TestLogin() {
	tests := []struct {
		name           string
		email          string
		password       string
		expectedStatus int
		description    string
	}{
		{
			name:           "valid credentials",
			email:          "customer@example.com",
			password:       "password123",
			expectedStatus: http.StatusOK,
			description:    "login succeeds with valid credentials",
		},
		{
			name:           "unknown user",
			email:          "nonexistent@example.com",
			password:       "password123",
			expectedStatus: http.StatusUnauthorized,
			description:    "unknown emails get the same 401 as bad passwords",
		},
		{
			name:           "wrong password",
			email:          "customer@example.com",
			password:       "wrongpassword",
			expectedStatus: http.StatusUnauthorized,
			description:    "wrong password is rejected",
		},
		{
			name:           "inactive user",
			email:          "inactive@example.com",
			password:       "password123",
			expectedStatus: http.StatusForbidden,
			description:    "deactivated accounts cannot log in",
		},
		{
			name:           "empty email",
			email:          "",
			password:       "password123",
			expectedStatus: http.StatusBadRequest,
			description:    "empty email fails binding",
		},
		{
			name:           "empty password",
			email:          "customer@example.com",
			password:       "",
			expectedStatus: http.StatusBadRequest,
			description:    "empty password fails binding",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			t := s.T()

			reqBody := request.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			}

			w := httptest.PerformRequest(t, s.Router, http.MethodPost, loginURL, reqBody, "")
			require.Equal(t, tt.expectedStatus, w.Code, tt.description)

			if tt.expectedStatus == http.StatusOK {
				var loginRes resdto.LoginResponse
				err := httptest.DecodeResponseBody(t, w.Body, &loginRes)
				require.NoError(t, err)
				require.NotEmpty(t, loginRes.AccessToken, "access token missing from body")
				require.NotNil(t, loginRes.User)
				require.Equal(t, tt.email, loginRes.User.Email)

				require.NotNil(t, httptest.ExtractCookie(w, "access_token"), "access token cookie not set")
				require.NotNil(t, httptest.ExtractCookie(w, "refresh_token"), "refresh token cookie not set")

				var lastLogin *time.Time
				err = s.DB.QueryRow(s.T().Context(), "SELECT last_login FROM users WHERE email = $1", tt.email).Scan(&lastLogin)
				require.NoError(t, err)
				require.NotNil(t, lastLogin, "last_login not updated")
			}
		})
	}
}

func (s *authSuite) TestRefresh() {
	s.Run("refresh via request body", func() {
		t := s.T()

		loginW := httptest.PerformRequest(t, s.Router, http.MethodPost, loginURL,
			request.LoginRequest{Email: "customer@example.com", Password: "password123"}, "")
		require.Equal(t, http.StatusOK, loginW.Code)

		refreshCookie := httptest.ExtractCookie(loginW, "refresh_token")
		require.NotNil(t, refreshCookie)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL,
			request.RefreshRequest{RefreshToken: refreshCookie.Value}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var refreshRes resdto.RefreshResponse
		err := httptest.DecodeResponseBody(t, w.Body, &refreshRes)
		require.NoError(t, err)
		require.NotEmpty(t, refreshRes.AccessToken)
	})

	s.Run("refresh via cookie", func() {
		t := s.T()

		loginW := httptest.PerformRequest(t, s.Router, http.MethodPost, loginURL,
			request.LoginRequest{Email: "customer@example.com", Password: "password123"}, "")
		require.Equal(t, http.StatusOK, loginW.Code)

		w := httptest.PerformRequestWithCookies(t, s.Router, http.MethodPost, refreshURL, nil,
			httptest.ExtractCookies(loginW), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.NotNil(t, httptest.ExtractCookie(w, "access_token"), "rotated access token cookie not set")
	})

	s.Run("invalid refresh token", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL,
			request.RefreshRequest{RefreshToken: "invalid-refresh-token"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("access token is not accepted as refresh token", func() {
		t := s.T()

		accessToken := authtest.LoginUser(t, s.Router, "customer@example.com", "password123")
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL,
			request.RefreshRequest{RefreshToken: accessToken}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("missing refresh token", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, refreshURL, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *authSuite) TestLogout() {
	tests := []struct {
		name           string
		setupToken     func() string
		expectedStatus int
		description    string
	}{
		{
			name: "valid token",
			setupToken: func() string {
				return authtest.LoginUser(s.T(), s.Router, "customer@example.com", "password123")
			},
			expectedStatus: http.StatusNoContent,
			description:    "logout succeeds with a valid token",
		},
		{
			name: "invalid token",
			setupToken: func() string {
				return "invalid-token"
			},
			expectedStatus: http.StatusUnauthorized,
			description:    "invalid tokens are rejected by the auth middleware",
		},
		{
			name: "no token",
			setupToken: func() string {
				return ""
			},
			expectedStatus: http.StatusUnauthorized,
			description:    "logout requires authentication",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			t := s.T()

			token := tt.setupToken()
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, logoutURL, nil, token)
			require.Equal(t, tt.expectedStatus, w.Code, tt.description)

			if tt.expectedStatus == http.StatusNoContent {
				// Logout clears both token cookies
				accessCookie := httptest.ExtractCookie(w, "access_token")
				require.NotNil(t, accessCookie)
				require.Empty(t, accessCookie.Value, "access token cookie not cleared")
			}
		})
	}
}

func (s *authSuite) TestMe() {
	tests := []struct {
		name           string
		email          string
		role           string
		expectedStatus int
	}{
		{
			name:           "customer info",
			email:          "customer@example.com",
			role:           string(user.RoleCustomer),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "staff info",
			email:          "staff@example.com",
			role:           string(user.RoleStaff),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "admin info",
			email:          "admin@example.com",
			role:           string(user.RoleAdmin),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			t := s.T()

			token := authtest.LoginUser(t, s.Router, tt.email, "password123")
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token)
			require.Equal(t, tt.expectedStatus, w.Code)

			responseBody := w.Body.String()
			require.Contains(t, responseBody, tt.email)
			require.Contains(t, responseBody, tt.role)
			require.NotContains(t, responseBody, "password", "password data leaked into the response")
		})
	}

	s.Run("invalid token", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, meURL, nil, "invalid-token")
		require.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})

	s.Run("no token", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, meURL, nil, "")
		require.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})
}

func (s *authSuite) TestTokenExpiry() {
	s.Run("expired token is rejected", func() {
		t := s.T()

		userID := dbtest.CreateTestUser(t, s.DB, "expiry@example.com", string(user.RoleCustomer))
		expiredToken := s.jwtHelper.CreateExpiredToken(t, userID, user.RoleCustomer)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, expiredToken)
		require.Equal(t, http.StatusUnauthorized, w.Code, "expired tokens must be rejected")
	})
}

func (s *authSuite) TestAuthenticationRequired() {
	s.Run("protected endpoints reject anonymous requests", func() {
		t := s.T()

		endpoints := []struct {
			method string
			path   string
		}{
			{http.MethodPost, logoutURL},
			{http.MethodGet, meURL},
			{http.MethodGet, "/api/appointments"},
			{http.MethodPost, "/api/appointments"},
		}

		for _, endpoint := range endpoints {
			w := httptest.PerformRequest(t, s.Router, endpoint.method, endpoint.path, nil, "")
			require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s must require auth", endpoint.method, endpoint.path)
		}
	})
}

func (s *authSuite) TestConcurrentLogin() {
	s.Run("multiple sessions stay valid", func() {
		t := s.T()

		email := "concurrent@example.com"
		dbtest.CreateTestUser(t, s.DB, email, string(user.RoleCustomer))

		token1 := authtest.LoginUser(t, s.Router, email, "password123")
		token2 := authtest.LoginUser(t, s.Router, email, "password123")

		// Stateless JWTs: a later login must not invalidate earlier ones
		w1 := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token1)
		w2 := httptest.PerformRequest(t, s.Router, http.MethodGet, meURL, nil, token2)

		require.Equal(t, http.StatusOK, w1.Code, "first session invalid")
		require.Equal(t, http.StatusOK, w2.Code, "second session invalid")
	})
}
