package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/model"
)

const TokenTypeBearer = "bearer"

// IdentityProvider verifies Google ID tokens and redeems authorization codes.
// Failures wrap ErrInvalidIdentity for bad assertions and ErrMisconfigured when
// the provider has no client configured; anything else is an infrastructure error.
type IdentityProvider interface {
	Verify(ctx context.Context, rawIDToken string) (*model.IdentityClaims, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
}

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session is the credential pair handed to a client after login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	Account      *model.Account
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Created      bool
}

type AuthService struct {
	codec      *TokenCodec
	directory  *UserDirectory
	identity   IdentityProvider
	denylist   Denylist
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService wires the login flow. denylist may be nil, in which case
// tokens stay valid until they expire.
func NewAuthService(cfg config.AuthConfig, codec *TokenCodec, directory *UserDirectory, identity IdentityProvider, denylist Denylist) (*AuthService, error) {
	if cfg.AccessTTLMinutes <= 0 {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_EXPIRATION_MINUTES must be positive", ErrMisconfigured)
	}
	if cfg.RefreshTTLMinutes <= 0 {
		return nil, fmt.Errorf("%w: REFRESH_TOKEN_EXPIRATION_MINUTES must be positive", ErrMisconfigured)
	}
	if codec == nil || directory == nil || identity == nil {
		return nil, fmt.Errorf("%w: auth service dependencies are required", ErrMisconfigured)
	}

	return &AuthService{
		codec:      codec,
		directory:  directory,
		identity:   identity,
		denylist:   denylist,
		accessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
		now:        time.Now,
	}, nil
}

func (s *AuthService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *AuthService) RevocationEnabled() bool {
	return s.denylist != nil
}

// LoginWithGoogle exchanges a Google ID token for an access/refresh pair.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawIDToken string) (*Session, error) {
	rawIDToken = strings.TrimSpace(rawIDToken)
	if rawIDToken == "" {
		return nil, detailed(ErrInvalidIdentity, "Invalid Google token.")
	}

	claims, err := s.identity.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return s.login(ctx, claims)
}

// LoginWithCode redeems an OAuth authorization code and continues as LoginWithGoogle.
func (s *AuthService) LoginWithCode(ctx context.Context, code, redirectURI string) (*Session, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(redirectURI) == "" {
		return nil, detailed(ErrInvalidInput, "code and redirect_uri are required")
	}

	rawIDToken, err := s.identity.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return s.LoginWithGoogle(ctx, rawIDToken)
}

func (s *AuthService) login(ctx context.Context, claims *model.IdentityClaims) (*Session, error) {
	account, created, err := s.directory.GetOrCreate(ctx, Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Locale:  claims.Locale,
	})
	if err != nil {
		return nil, err
	}

	account, err = s.directory.SyncVerifiedClaims(ctx, account, *claims)
	if err != nil {
		return nil, err
	}

	account, err = s.directory.TouchLogin(ctx, account)
	if err != nil {
		return nil, err
	}

	subject := account.ID.String()
	accessToken, err := s.codec.Issue(subject, TokenAccess, s.accessTTL, nil)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.Issue(subject, TokenRefresh, s.refreshTTL, map[string]any{"created": created})
	if err != nil {
		return nil, err
	}

	log.Printf("[Auth] login account=%s created=%t", subject, created)
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
		AccessTTL:    s.accessTTL,
		RefreshTTL:   s.refreshTTL,
		Created:      created,
	}, nil
}

// Refresh mints a new access token. The refresh token is not rotated: the
// same value is returned and stays usable until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.codec.Parse(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenRefresh {
		return nil, detailed(ErrUnauthenticated, "Invalid refresh token")
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, detailed(ErrUnauthenticated, "Invalid refresh token")
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.Issue(account.ID.String(), TokenAccess, s.accessTTL, nil)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
		AccessTTL:    s.accessTTL,
		RefreshTTL:   s.refreshTTL,
	}, nil
}

// Authenticate resolves a bearer access token to an active account. It runs
// on every protected request; nothing is cached between calls.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*model.Account, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, detailed(ErrUnauthenticated, "Not authenticated")
	}

	claims, err := s.codec.Parse(bearer)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess {
		return nil, detailed(ErrUnauthenticated, "Invalid token type")
	}
	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, detailed(ErrUnauthenticated, "Invalid subject")
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	return s.activeAccount(ctx, accountID)
}

// Logout denylists every well-formed token given. Without a denylist it is a
// no-op and reports revoked=false.
func (s *AuthService) Logout(ctx context.Context, tokens ...string) (bool, error) {
	if s.denylist == nil {
		return false, nil
	}

	revoked := false
	for _, raw := range tokens {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		claims, err := s.codec.Parse(raw)
		if err != nil || claims.ID == "" {
			continue
		}
		ttl := claims.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			continue
		}
		if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
			return revoked, fmt.Errorf("revoke token: %w", err)
		}
		revoked = true
	}
	if revoked {
		log.Printf("[Auth] tokens revoked")
	}
	return revoked, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *TokenClaims) error {
	if s.denylist == nil || claims.ID == "" {
		return nil
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return detailed(ErrUnauthenticated, "Token revoked")
	}
	return nil
}

func (s *AuthService) activeAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.directory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, detailed(ErrUnauthenticated, "User inactive or not found")
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, detailed(ErrUnauthenticated, "User inactive or not found")
	}
	return account, nil
}

func translateIdentityError(err error) error {
	switch {
	case errors.Is(err, ErrMisconfigured):
		log.Printf("[Auth] identity provider not configured: %v", err)
		return detailed(ErrMisconfigured, "Google OAuth is not configured")
	case errors.Is(err, ErrInvalidIdentity):
		return detailed(ErrInvalidIdentity, "Invalid Google token.")
	default:
		return fmt.Errorf("identity provider: %w", err)
	}
}
