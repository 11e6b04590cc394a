package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

func TestGoogleLoginIssuesBearerPair(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	res := app.login(t, "google-amina")
	if res.TokenType != "bearer" {
		t.Fatalf("expected token_type bearer, got %q", res.TokenType)
	}
	if res.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", res.ExpiresIn)
	}
	if res.User.Email != "a@example.com" || !res.User.IsActive {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res)
	}

	claims, err := app.codec.Parse(res.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Type != service.TokenAccess || claims.Subject != res.User.ID.String() {
		t.Fatalf("unexpected access claims: %+v", claims)
	}

	again := app.login(t, "google-amina")
	if again.User.ID != res.User.ID {
		t.Fatalf("second login created a new account: %s vs %s", again.User.ID, res.User.ID)
	}
	if got := testutil.ToFloat64(app.metrics.AuthOutcomes.WithLabelValues("login", "success")); got != 2 {
		t.Fatalf("expected 2 successful logins, got %v", got)
	}
}

func TestGoogleLoginRejections(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	tests := []struct {
		name   string
		body   any
		status int
		detail string
	}{
		{name: "missing id_token", body: map[string]string{}, status: http.StatusBadRequest, detail: "id_token is required"},
		{name: "unknown token", body: map[string]string{"id_token": "forged"}, status: http.StatusUnauthorized, detail: "Invalid Google token."},
		{name: "no email", body: map[string]string{"id_token": "google-nomail"}, status: http.StatusBadRequest, detail: "Google account missing email scope."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodPost, "/api/v1/auth/google", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			if got := decodeError(t, w); got != tt.detail {
				t.Fatalf("expected %q, got %q", tt.detail, got)
			}
		})
	}
}

func TestCodeLoginRejectsBadCode(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})

	w := app.do(http.MethodPost, "/api/v1/auth/google/code", "", map[string]string{"code": "nope", "redirect_uri": "https://app.example.com/cb"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", w.Code, w.Body.String())
	}

	w = app.do(http.MethodPost, "/api/v1/auth/google/code", "", map[string]string{"code": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without redirect_uri, got %d", w.Code)
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	session := app.login(t, "google-amina")

	w := app.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var res model.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RefreshToken != session.RefreshToken {
		t.Fatalf("refresh token should be returned unchanged")
	}
	if res.User.ID != session.User.ID {
		t.Fatalf("unexpected user %s", res.User.ID)
	}

	w = app.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": session.AccessToken})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("access token accepted as refresh token: %d", w.Code)
	}
	if got := decodeError(t, w); got != "Invalid refresh token" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestRefreshRejectsInactiveAccount(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	session := app.login(t, "google-amina")

	inactive := false
	if _, err := app.store.SetAccountFlags(t.Context(), session.User.ID, &inactive, nil); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	w := app.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": session.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := decodeError(t, w); got != "User inactive or not found" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestMeRequiresAccessToken(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	session := app.login(t, "google-amina")

	w := app.do(http.MethodGet, "/api/v1/auth/me", session.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var me model.UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.ID != session.User.ID {
		t.Fatalf("unexpected account %s", me.ID)
	}

	tests := []struct {
		name   string
		token  string
		detail string
	}{
		{name: "missing", token: "", detail: "Not authenticated"},
		{name: "refresh token", token: session.RefreshToken, detail: "Invalid token type"},
		{name: "garbage", token: "not-a-jwt", detail: "Could not validate credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodGet, "/api/v1/auth/me", tt.token, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Fatalf("expected WWW-Authenticate: Bearer, got %q", w.Header().Get("WWW-Authenticate"))
			}
			if got := decodeError(t, w); got != tt.detail {
				t.Fatalf("expected %q, got %q", tt.detail, got)
			}
		})
	}
}

func TestMeRejectsExpiredToken(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	session := app.login(t, "google-amina")

	issued := time.Now().Add(-2 * time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  session.User.ID.String(),
		"type": "access",
		"iat":  issued.Unix(),
		"exp":  issued.Add(time.Hour).Unix(),
	}).SignedString([]byte("handler-test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w := app.do(http.MethodGet, "/api/v1/auth/me", expired, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestLogoutWithoutDenylist(t *testing.T) {
	app := newTestApp(t, config.RateLimitConfig{})
	session := app.login(t, "google-amina")

	w := app.do(http.MethodPost, "/api/v1/auth/logout", session.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var res model.LogoutResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "logged_out" || res.Revoked {
		t.Fatalf("unexpected logout response: %+v", res)
	}
}
