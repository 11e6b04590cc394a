package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thala/backend/internal/config"
)

const testSecret = "unit-test-secret-with-enough-entropy"

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(config.AuthConfig{JWTSecret: testSecret, JWTAlgorithm: "HS256"})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec
}

func TestNewTokenCodecRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AuthConfig
	}{
		{name: "missing-secret", cfg: config.AuthConfig{JWTAlgorithm: "HS256"}},
		{name: "asymmetric-alg", cfg: config.AuthConfig{JWTSecret: testSecret, JWTAlgorithm: "RS256"}},
		{name: "none-alg", cfg: config.AuthConfig{JWTSecret: testSecret, JWTAlgorithm: "none"}},
		{name: "unknown-alg", cfg: config.AuthConfig{JWTSecret: testSecret, JWTAlgorithm: "HS999"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenCodec(tt.cfg); !errors.Is(err, ErrMisconfigured) {
				t.Fatalf("expected ErrMisconfigured, got %v", err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	fixed := time.Unix(1_700_000_000, 0)
	codec.now = func() time.Time { return fixed }

	for _, kind := range []TokenKind{TokenAccess, TokenRefresh} {
		for _, ttl := range []time.Duration{time.Minute, 60 * time.Minute, 20160 * time.Minute} {
			raw, err := codec.Issue("acct-1", kind, ttl, nil)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			claims, err := codec.Parse(raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if claims.Subject != "acct-1" || claims.Type != kind {
				t.Fatalf("unexpected claims: %+v", claims)
			}
			if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != ttl {
				t.Fatalf("exp-iat = %s, want %s", got, ttl)
			}
			if claims.ID == "" {
				t.Fatalf("expected jti")
			}
		}
	}
}

func TestTokenExtraClaimsCannotOverrideReserved(t *testing.T) {
	codec := newTestCodec(t)
	raw, err := codec.Issue("acct-1", TokenRefresh, time.Hour, map[string]any{
		"created": true,
		"type":    "access",
		"sub":     "someone-else",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Type != TokenRefresh || claims.Subject != "acct-1" {
		t.Fatalf("reserved claims overridden: %+v", claims)
	}
	if claims.Extra["created"] != true {
		t.Fatalf("expected created extra claim, got %v", claims.Extra)
	}
}

func TestTokenExpiryEnforced(t *testing.T) {
	codec := newTestCodec(t)
	issuedAt := time.Unix(1_700_000_000, 0)
	codec.now = func() time.Time { return issuedAt }
	raw, err := codec.Issue("acct-1", TokenAccess, time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	codec.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = codec.Parse(raw)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if Detail(err) != "Could not validate credentials" {
		t.Fatalf("unexpected detail %q", Detail(err))
	}
}

func TestTokenParseRejectsTampering(t *testing.T) {
	codec := newTestCodec(t)
	raw, err := codec.Issue("acct-1", TokenAccess, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewTokenCodec(config.AuthConfig{JWTSecret: "a-different-secret", JWTAlgorithm: "HS256"})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	hs512, err := NewTokenCodec(config.AuthConfig{JWTSecret: testSecret, JWTAlgorithm: "HS512"})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	wrongAlg, err := hs512.Issue("acct-1", TokenAccess, time.Hour, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "acct-1", "type": "access", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	parts := strings.Split(raw, ".")
	truncated := parts[0] + "." + parts[1] + "."

	tests := map[string]struct {
		codec *TokenCodec
		raw   string
	}{
		"foreign-secret": {codec: other, raw: raw},
		"alg-mismatch":   {codec: codec, raw: wrongAlg},
		"alg-none":       {codec: codec, raw: unsigned},
		"no-signature":   {codec: codec, raw: truncated},
		"garbage":        {codec: codec, raw: "not-a-token"},
		"empty":          {codec: codec, raw: ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tt.codec.Parse(tt.raw); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestTokenParseRequiresExpiry(t *testing.T) {
	codec := newTestCodec(t)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acct-1", "type": "access",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Parse(raw); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for token without exp, got %v", err)
	}
}

func TestTokenIssueValidatesInput(t *testing.T) {
	codec := newTestCodec(t)
	if _, err := codec.Issue("", TokenAccess, time.Hour, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty subject, got %v", err)
	}
	if _, err := codec.Issue("acct-1", TokenAccess, 0, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero ttl, got %v", err)
	}
}
