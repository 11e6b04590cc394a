package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleIdentity verifies Google ID tokens and redeems authorization codes.
type GoogleIdentity struct {
	clientID     string
	clientSecret string
	endpoint     oauth2.Endpoint
	verifier     *oidc.IDTokenVerifier
}

// NewGoogleIdentity builds a verifier backed by Google's published JWKS.
// Keys are fetched lazily on first use and cached by go-oidc. With no client
// id configured every call fails with service.ErrMisconfigured.
func NewGoogleIdentity(ctx context.Context, cfg config.GoogleConfig) *GoogleIdentity {
	return newGoogleIdentity(cfg, oidc.NewRemoteKeySet(ctx, googleJWKSURL), nil)
}

func newGoogleIdentity(cfg config.GoogleConfig, keySet oidc.KeySet, now func() time.Time) *GoogleIdentity {
	g := &GoogleIdentity{
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		endpoint:     google.Endpoint,
	}
	if g.clientID == "" {
		log.Printf("[Google] GOOGLE_OAUTH_CLIENT_ID not set; Google login disabled")
		return g
	}
	g.verifier = oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{
		ClientID: g.clientID,
		Now:      now,
	})
	return g
}

// Verify checks signature, issuer, audience and expiry of rawIDToken.
func (g *GoogleIdentity) Verify(ctx context.Context, rawIDToken string) (*model.IdentityClaims, error) {
	if g.verifier == nil {
		return nil, fmt.Errorf("%w: GOOGLE_OAUTH_CLIENT_ID is not set", service.ErrMisconfigured)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidIdentity, err)
	}

	var claims model.IdentityClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", service.ErrInvalidIdentity, err)
	}
	if claims.Subject == "" {
		claims.Subject = idToken.Subject
	}
	return &claims, nil
}

// ExchangeCode redeems an authorization code and returns the raw id_token.
// The token is not verified here; callers pass it through Verify.
func (g *GoogleIdentity) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return "", fmt.Errorf("%w: GOOGLE_OAUTH_CLIENT_ID/GOOGLE_OAUTH_CLIENT_SECRET are required", service.ErrMisconfigured)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     g.endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", fmt.Errorf("%w: code exchange rejected: %s", service.ErrInvalidIdentity, retrieveErr.ErrorCode)
		}
		return "", fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", fmt.Errorf("%w: google did not return id_token", service.ErrInvalidIdentity)
	}
	return rawIDToken, nil
}
