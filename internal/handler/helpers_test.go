package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/metrics"
	"github.com/thala/backend/internal/model"
	"github.com/thala/backend/internal/service"
)

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	feedback map[uuid.UUID]*model.Feedback
}

func newMemStore() *memStore {
	return &memStore{accounts: map[uuid.UUID]*model.Account{}, feedback: map[uuid.UUID]*model.Feedback{}}
}

func (s *memStore) CreateAccount(ctx context.Context, a *model.Account) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *a
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	s.accounts[a.ID] = &stored
	out := stored
	return &out, nil
}

func (s *memStore) GetAccountBySubject(ctx context.Context, googleSub string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.GoogleSub == googleSub {
			out := *a
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memStore) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *a
	return &out, nil
}

func (s *memStore) UpdateAccountIdentity(ctx context.Context, a *model.Account) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.accounts[a.ID]
	stored.Email, stored.FullName, stored.Picture, stored.Locale = a.Email, a.FullName, a.Picture, a.Locale
	out := *stored
	return &out, nil
}

func (s *memStore) MergeAccountProfile(ctx context.Context, id uuid.UUID, values model.Profile) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.accounts[id]
	merged := model.Profile{}
	for k, v := range stored.Profile {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	stored.Profile = merged
	out := *stored
	return &out, nil
}

func (s *memStore) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.accounts[id]
	stored.LastLoginAt = &at
	out := *stored
	return &out, nil
}

func (s *memStore) UpdateAccountProfile(ctx context.Context, id uuid.UUID, req model.UpdateProfileRequest) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.accounts[id]
	if req.FullName != nil {
		stored.FullName = req.FullName
	}
	if req.Profile != nil {
		stored.Profile = req.Profile
	}
	out := *stored
	return &out, nil
}

func (s *memStore) ListAccounts(ctx context.Context, limit, offset int32) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (s *memStore) SetAccountFlags(ctx context.Context, id uuid.UUID, isActive, isSuperuser *bool) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if isActive != nil {
		stored.IsActive = *isActive
	}
	if isSuperuser != nil {
		stored.IsSuperuser = *isSuperuser
	}
	out := *stored
	return &out, nil
}

func (s *memStore) PromoteSuperuserByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			a.IsSuperuser = true
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateFeedback(ctx context.Context, f *model.Feedback) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *f
	s.feedback[f.ID] = &stored
	out := stored
	return &out, nil
}

func (s *memStore) GetFeedback(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *f
	return &out, nil
}

func (s *memStore) ListFeedback(ctx context.Context, viewer model.FeedbackViewer, filter model.FeedbackFilter) ([]model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Feedback, 0)
	for _, f := range s.feedback {
		visible := viewer.SeeAll || f.IsPublic || (viewer.AccountID != nil && f.UserID != nil && *f.UserID == *viewer.AccountID)
		if visible {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *memStore) UpdateFeedback(ctx context.Context, id uuid.UUID, req model.UpdateFeedbackRequest, resolvedNow bool) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.feedback[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if req.Status != nil {
		f.Status = *req.Status
	}
	if req.IsPublic != nil {
		f.IsPublic = *req.IsPublic
	}
	if resolvedNow {
		now := time.Now()
		f.ResolvedAt = &now
	}
	out := *f
	return &out, nil
}

func (s *memStore) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feedback, id)
	return nil
}

type stubIdentity struct {
	claims map[string]*model.IdentityClaims
}

func (s *stubIdentity) Verify(ctx context.Context, raw string) (*model.IdentityClaims, error) {
	c, ok := s.claims[raw]
	if !ok {
		return nil, service.ErrInvalidIdentity
	}
	out := *c
	return &out, nil
}

func (s *stubIdentity) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	return "", service.ErrInvalidIdentity
}

type testApp struct {
	router  *gin.Engine
	store   *memStore
	codec   *service.TokenCodec
	auth    *service.AuthService
	metrics *metrics.Metrics
}

func newTestApp(t *testing.T, rateLimit config.RateLimitConfig) *testApp {
	t.Helper()
	return newTestAppWith(t, func(cfg *config.Config) { cfg.RateLimit = rateLimit })
}

func newTestAppWith(t *testing.T, configure func(*config.Config)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "handler-test-secret",
			JWTAlgorithm:      "HS256",
			AccessTTLMinutes:  60,
			RefreshTTLMinutes: 20160,
		},
		Server: config.ServerConfig{AllowedOrigins: []string{"https://app.example.com"}},
	}
	configure(&cfg)
	codec, err := service.NewTokenCodec(cfg.Auth)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	store := newMemStore()
	identity := &stubIdentity{claims: map[string]*model.IdentityClaims{
		"google-amina":  {Subject: "g-123", Email: "a@example.com", EmailVerified: true, Name: "Amina"},
		"google-admin":  {Subject: "g-admin", Email: "admin@example.com", Name: "Admin"},
		"google-nomail": {Subject: "g-404"},
	}}
	authSvc, err := service.NewAuthService(cfg.Auth, codec, service.NewUserDirectory(store), identity, nil)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	m := metrics.New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("register metrics: %v", err)
	}

	router, err := NewRouter(cfg, Services{
		Auth:     authSvc,
		Users:    service.NewUserService(store),
		Feedback: service.NewFeedbackService(store),
		Videos:   service.NewVideoService(nil),
		Admin:    service.NewAdminService(store),
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testApp{router: router, store: store, codec: codec, auth: authSvc, metrics: m}
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, idToken string) model.TokenResponse {
	t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/google", "", map[string]string{"id_token": idToken})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", idToken, w.Code, w.Body.String())
	}
	var res model.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var res model.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return res.Error
}

// seedAccount stores an active account and returns an access token for it.
func (a *testApp) seedAccount(t *testing.T, sub, email string) string {
	t.Helper()
	account, err := a.store.CreateAccount(context.Background(), &model.Account{
		ID:        uuid.New(),
		GoogleSub: sub,
		Email:     email,
		IsActive:  true,
		Profile:   model.Profile{},
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	token, err := a.codec.Issue(account.ID.String(), service.TokenAccess, time.Hour, nil)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// send issues a request from remoteAddr with optional extra headers.
func (a *testApp) send(method, path, token, remoteAddr string, headers map[string]string) int {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w.Code
}
