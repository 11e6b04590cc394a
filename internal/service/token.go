package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thala/backend/internal/config"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

const invalidCredentials = "Could not validate credentials"

// reserved claims are owned by the codec and cannot be set through extras.
var reservedClaims = map[string]struct{}{
	"sub":  {},
	"iat":  {},
	"exp":  {},
	"type": {},
	"jti":  {},
}

type TokenClaims struct {
	Subject   string
	Type      TokenKind
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// TokenCodec signs and verifies bearer tokens with one fixed HMAC key and algorithm.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewTokenCodec(cfg config.AuthConfig) (*TokenCodec, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	alg := strings.ToUpper(strings.TrimSpace(cfg.JWTAlgorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported JWT_ALGORITHM %q", ErrMisconfigured, cfg.JWTAlgorithm)
	}

	return &TokenCodec{
		secret: []byte(cfg.JWTSecret),
		method: method,
		now:    time.Now,
	}, nil
}

func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs {sub, iat, exp, type, jti} plus extra. Extra keys that collide
// with those claims are ignored.
func (c *TokenCodec) Issue(subject string, kind TokenKind, ttl time.Duration, extra map[string]any) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: token subject is empty", ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: token ttl must be positive", ErrInvalidInput)
	}

	now := c.now()
	claims := jwt.MapClaims{}
	for key, value := range extra {
		if _, ok := reservedClaims[key]; ok {
			continue
		}
		claims[key] = value
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	claims["type"] = string(kind)
	claims["jti"] = uuid.NewString()

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry. It does not check the token kind.
func (c *TokenCodec) Parse(raw string) (*TokenClaims, error) {
	token, err := jwt.Parse(raw,
		func(token *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, detailed(ErrUnauthenticated, invalidCredentials)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, detailed(ErrUnauthenticated, invalidCredentials)
	}

	subject, _ := mapClaims.GetSubject()
	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, detailed(ErrUnauthenticated, invalidCredentials)
	}
	claims := &TokenClaims{
		Subject:   subject,
		ExpiresAt: exp.Time,
		Extra:     map[string]any{},
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if kind, ok := mapClaims["type"].(string); ok {
		claims.Type = TokenKind(kind)
	}
	if jti, ok := mapClaims["jti"].(string); ok {
		claims.ID = jti
	}
	for key, value := range mapClaims {
		if _, ok := reservedClaims[key]; !ok {
			claims.Extra[key] = value
		}
	}
	return claims, nil
}
