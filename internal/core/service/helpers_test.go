package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/internal/storage"
	"github.com/yndnr/sesskeep-go/internal/storage/memory"
	"github.com/yndnr/sesskeep-go/internal/telemetry/metric"
)

// fakeGateway is a scriptable Gateway.
type fakeGateway struct {
	mu sync.Mutex

	authResp *domain.AuthResponse
	authErr  error

	refreshResp *domain.TokenSet
	refreshErr  error
	// refreshGate, when set, blocks Refresh until it is closed.
	refreshGate chan struct{}
	// refreshStarted receives once per Refresh call.
	refreshStarted chan struct{}

	meResp *domain.User
	meErr  error

	logoutErr    error
	passErr      error
	callHook     func()
	logoutTokens []string

	loginCalls   atomic.Int32
	signupCalls  atomic.Int32
	logoutCalls  atomic.Int32
	refreshCalls atomic.Int32
	meCalls      atomic.Int32
	passCalls    atomic.Int32
}

func (g *fakeGateway) Login(_ context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	g.loginCalls.Add(1)
	if g.callHook != nil {
		g.callHook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authResp, g.authErr
}

func (g *fakeGateway) Signup(_ context.Context, _ domain.SignupRequest) (*domain.AuthResponse, error) {
	g.signupCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authResp, g.authErr
}

func (g *fakeGateway) Logout(_ context.Context, accessToken string) error {
	g.logoutCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logoutTokens = append(g.logoutTokens, accessToken)
	return g.logoutErr
}

func (g *fakeGateway) RequestPasswordReset(_ context.Context, _ domain.PasswordResetRequest) error {
	g.passCalls.Add(1)
	return g.passErr
}

func (g *fakeGateway) ResetPassword(_ context.Context, _ domain.NewPasswordRequest) error {
	g.passCalls.Add(1)
	return g.passErr
}

func (g *fakeGateway) InviteUser(_ context.Context, _ domain.InviteUserRequest) error {
	g.passCalls.Add(1)
	return g.passErr
}

func (g *fakeGateway) Refresh(_ context.Context, _ string) (*domain.TokenSet, error) {
	g.refreshCalls.Add(1)
	if g.refreshStarted != nil {
		g.refreshStarted <- struct{}{}
	}
	if g.refreshGate != nil {
		<-g.refreshGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshResp, g.refreshErr
}

func (g *fakeGateway) GetCurrentUser(_ context.Context) (*domain.User, error) {
	g.meCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.meResp, g.meErr
}

func (g *fakeGateway) loggedOutTokens() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.logoutTokens...)
}

// failingKV wraps a KVStore and fails writes to one key. It deliberately does
// not implement storage.Batcher.
type failingKV struct {
	inner   storage.KVStore
	failKey string
	failGet bool
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("read failed")
	}
	return f.inner.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failKey {
		return errors.New("write failed")
	}
	return f.inner.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func adminUser() *domain.User {
	return &domain.User{
		ID:             "u-admin",
		Email:          "admin@x.com",
		Role:           domain.RoleAdmin,
		OrganizationID: "org-1",
		Organization:   &domain.Organization{ID: "org-1", Name: "Acme"},
		IsActive:       true,
	}
}

func memberUser() *domain.User {
	return &domain.User{
		ID:             "u-member",
		Email:          "member@x.com",
		Role:           domain.RoleUser,
		OrganizationID: "org-1",
		Organization:   &domain.Organization{ID: "org-1", Name: "Acme"},
		IsActive:       true,
	}
}

func authResponse(user *domain.User) *domain.AuthResponse {
	return &domain.AuthResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    900,
		User:         user,
	}
}

type testEnv struct {
	kv      *memory.Store
	store   *TokenStore
	gateway *fakeGateway
	manager *SessionManager
	metrics *metric.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithKV(t, memory.New())
}

func newTestEnvWithKV(t *testing.T, kv storage.KVStore) *testEnv {
	t.Helper()

	reg := metric.NewRegistry()
	store := NewTokenStore(kv, WithStoreMetrics(reg))
	gw := &fakeGateway{}
	env := &testEnv{
		store:   store,
		gateway: gw,
		manager: NewSessionManager(store, gw, WithMetrics(reg)),
		metrics: reg,
	}
	if mem, ok := kv.(*memory.Store); ok {
		env.kv = mem
	}
	return env
}

// login performs a successful login as user.
func (e *testEnv) login(t *testing.T, user *domain.User) {
	t.Helper()
	e.gateway.authResp = authResponse(user)
	if _, err := e.manager.Login(context.Background(), domain.LoginRequest{Email: user.Email, Password: "p"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

// rawRecords returns the persisted bytes for every session key present.
func rawRecords(t *testing.T, kv storage.KVStore) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, key := range allKeys {
		data, err := kv.Get(context.Background(), key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			t.Fatalf("Get(%s) error = %v", key, err)
		}
		out[key] = string(data)
	}
	return out
}

// counterValue reads a counter (without labels) from the registry.
func counterValue(t *testing.T, reg *metric.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
