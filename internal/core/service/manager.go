package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
	"github.com/yndnr/sesskeep-go/internal/telemetry/metric"
	"github.com/yndnr/sesskeep-go/pkg/token"
)

// Operation names used in logs and metrics.
const (
	OpInitialize           = "initialize"
	OpLogin                = "login"
	OpSignup               = "signup"
	OpLogout               = "logout"
	OpRefresh              = "refresh"
	OpGetCurrentUser       = "get_current_user"
	OpRequestPasswordReset = "request_password_reset"
	OpResetPassword        = "reset_password"
	OpInviteUser           = "invite_user"
)

// Fallback messages for failures that carry no server message.
const (
	msgLoginFailed   = "Login failed"
	msgSignupFailed  = "Signup failed"
	msgRefreshFailed = "Token refresh failed"
	msgProfileFailed = "Failed to fetch user profile"
	msgResetRequest  = "Password reset request failed"
	msgResetFailed   = "Password reset failed"
	msgInviteFailed  = "Invitation failed"
)

const refreshKey = "refresh"

// SessionManager owns the session state and sequences every operation that
// changes it. It is safe for concurrent use.
type SessionManager struct {
	store       *TokenStore
	gateway     Gateway
	broadcaster *Broadcaster
	logger      logger.Logger
	metrics     *metric.Registry

	// writeMu serializes persist-then-mutate sections. publishMu is taken
	// before writeMu is released so publishes follow commit order.
	writeMu   sync.Mutex
	publishMu sync.Mutex

	mu    sync.RWMutex
	state domain.SessionState

	loading  loadingScope
	refresh  singleflight.Group
	initOnce sync.Once
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// WithLogger sets the manager logger.
func WithLogger(l logger.Logger) Option {
	return func(m *SessionManager) {
		m.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(r *metric.Registry) Option {
	return func(m *SessionManager) {
		m.metrics = r
	}
}

// NewSessionManager creates a manager in the logged-out state. Call
// Initialize to hydrate it from the store.
func NewSessionManager(store *TokenStore, gateway Gateway, opts ...Option) *SessionManager {
	m := &SessionManager{
		store:       store,
		gateway:     gateway,
		broadcaster: NewBroadcaster(),
		logger:      logger.Nop(),
		state:       domain.EmptySessionState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loading.publish = m.setLoading

	if err := m.metrics.WatchSession(m.sessionFlags); err != nil {
		m.logger.Warn("session metrics not registered", "error", err)
	}
	return m
}

// Broadcaster returns the subscription surface.
func (m *SessionManager) Broadcaster() *Broadcaster {
	return m.broadcaster
}

// Snapshot returns a deep copy of the current state.
func (m *SessionManager) Snapshot() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// AccessToken returns the current access token, or "".
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Tokens == nil {
		return ""
	}
	return m.state.Tokens.AccessToken
}

// Initialize hydrates the session from the store and publishes it. Only the
// first call does any work; later calls return the current snapshot.
func (m *SessionManager) Initialize(ctx context.Context) domain.SessionState {
	m.initOnce.Do(func() {
		release := m.begin(OpInitialize)
		defer release()

		p := m.store.Load(ctx)
		next := domain.EmptySessionState()
		if p.Tokens != nil && p.User != nil {
			next = domain.NewSessionState(p.User, p.Organization, p.Tokens)
		}

		m.commit(replaceWith(next), (*Broadcaster).publishSnapshot)
		m.record(OpInitialize, nil, "authenticated", next.IsAuthenticated)
	})
	return m.Snapshot()
}

// Login authenticates with credentials and persists the new session.
// On failure the session is logged out and the error is returned.
func (m *SessionManager) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	return m.authenticate(ctx, OpLogin, msgLoginFailed, req.Validate, func(ctx context.Context) (*domain.AuthResponse, error) {
		return m.gateway.Login(ctx, req)
	})
}

// Signup registers a user and organization and persists the new session.
// Failure handling matches Login.
func (m *SessionManager) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	return m.authenticate(ctx, OpSignup, msgSignupFailed, req.Validate, func(ctx context.Context) (*domain.AuthResponse, error) {
		return m.gateway.Signup(ctx, req)
	})
}

func (m *SessionManager) authenticate(
	ctx context.Context,
	op, fallback string,
	validate func() error,
	call func(context.Context) (*domain.AuthResponse, error),
) (user *domain.User, err error) {
	release := m.begin(op)
	defer release()
	defer func() { m.record(op, err) }()

	// A rejected precondition is reported but leaves the session alone.
	if err = validate(); err != nil {
		m.setError(err)
		return nil, err
	}

	resp, err := call(ctx)
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		err = classify(err, fallback)
		m.resetWithError(ctx, err)
		return nil, err
	}

	tokens := resp.Tokens()
	user = resp.User.Clone()
	org := user.Organization.Clone()

	err = m.commitPersisted(func() error {
		return m.store.SaveSession(ctx, tokens, user, org)
	}, replaceWith(domain.NewSessionState(user, org, tokens)), (*Broadcaster).publishSnapshot)
	if err != nil {
		m.resetWithError(ctx, err)
		return nil, err
	}

	m.logger.Info("session established",
		"operation", op,
		"user_id", user.ID,
		"organization_id", user.OrganizationID,
		"access_fp", token.Fingerprint(tokens.AccessToken))
	return user.Clone(), nil
}

// Logout clears the local session, then asks the server to invalidate the
// previous access token. The remote call is best effort: its failure is
// logged and the local session is logged out regardless.
func (m *SessionManager) Logout(ctx context.Context) {
	release := m.begin(OpLogout)
	defer release()

	accessToken, _ := m.clearSession(ctx, "")
	m.record(OpLogout, nil)
	m.remoteLogout(ctx, accessToken)
}

func (m *SessionManager) remoteLogout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := m.gateway.Logout(ctx, accessToken); err != nil {
		m.logger.Warn("remote logout failed",
			"access_fp", token.Fingerprint(accessToken),
			"error", err)
	}
}

// RefreshToken exchanges the current refresh token for new credentials.
//
// Concurrent calls share one gateway request and one persist/publish. A
// caller whose ctx ends early returns ctx.Err() while the shared refresh
// continues for the others. Without a refresh token it returns
// domain.ErrNoRefreshToken and changes nothing. Any other failure logs the
// session out, remote logout included.
//
// A refresh only commits against the session it started from. If a logout
// or login lands while the gateway call is in flight, the result is dropped
// and the caller gets the newer session's tokens, or
// domain.ErrNoRefreshToken when there is none.
func (m *SessionManager) RefreshToken(ctx context.Context) (tokens *domain.TokenSet, err error) {
	release := m.begin(OpRefresh)
	defer release()
	defer func() { m.record(OpRefresh, err) }()

	leader := false
	ch := m.refresh.DoChan(refreshKey, func() (any, error) {
		leader = true
		// The shared call outlives callers that give up early.
		done := m.loading.acquire()
		defer done()
		return m.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if !leader {
			m.metrics.IncRefreshCoalesced()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.TokenSet).Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) doRefresh(ctx context.Context) (*domain.TokenSet, error) {
	ctx = logger.WithRequestID(ctx, domain.NewRequestID())
	log := m.logger.With("request_id", logger.RequestIDFromContext(ctx))

	current := m.Snapshot().Tokens
	if current == nil || current.RefreshToken == "" {
		log.Debug("refresh skipped, no refresh token")
		return nil, domain.ErrNoRefreshToken
	}
	log.Debug("refresh started", "refresh_fp", token.Fingerprint(current.RefreshToken))

	next, err := m.gateway.Refresh(ctx, current.RefreshToken)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		err = refreshFailure(err)
		if accessToken, ended := m.clearSession(ctx, current.RefreshToken); ended {
			log.Warn("refresh failed, logged out", "error", err)
			m.remoteLogout(ctx, accessToken)
		} else {
			log.Info("refresh failed for a session that has since changed", "error", err)
		}
		return nil, err
	}

	next = next.Clone()
	if next.RefreshToken == "" {
		// Server did not rotate the refresh token.
		next.RefreshToken = current.RefreshToken
	}

	err = m.commitPersisted(func() error {
		if !m.holdsRefreshToken(current.RefreshToken) {
			return errSessionChanged
		}
		return m.store.SaveTokens(ctx, next)
	}, func(s domain.SessionState) domain.SessionState {
		return s.WithTokens(next)
	}, (*Broadcaster).publishTokens)
	if errors.Is(err, errSessionChanged) {
		log.Info("refresh result dropped, session changed",
			"access_fp", token.Fingerprint(next.AccessToken))
		if latest := m.Snapshot().Tokens; latest != nil {
			return latest, nil
		}
		return nil, domain.ErrNoRefreshToken
	}
	if err != nil {
		log.Warn("persist refreshed tokens failed, logging out", "error", err)
		if accessToken, ended := m.clearSession(ctx, current.RefreshToken); ended {
			m.remoteLogout(ctx, accessToken)
		}
		return nil, err
	}

	log.Info("tokens refreshed",
		"access_fp", token.Fingerprint(next.AccessToken),
		"rotated", !token.Equal(next.RefreshToken, current.RefreshToken))
	return next, nil
}

// refreshFailure reports a refresh failure under its fixed message. The
// server's own message, if any, moves to the details.
func refreshFailure(err error) error {
	var de *domain.DomainError
	if !errors.As(classify(err, msgRefreshFailed), &de) {
		return err
	}
	if de.Details == "" && de.Message != msgRefreshFailed {
		de = de.WithDetails(de.Message)
	}
	return de.WithMessage(msgRefreshFailed)
}

// GetCurrentUser fetches the profile and publishes the user and admin flag.
// Tokens, organization and persisted records are not touched. A failure is
// returned and recorded in the error field only.
func (m *SessionManager) GetCurrentUser(ctx context.Context) (user *domain.User, err error) {
	release := m.begin(OpGetCurrentUser)
	defer release()
	defer func() { m.record(OpGetCurrentUser, err) }()

	user, err = m.gateway.GetCurrentUser(ctx)
	if err == nil {
		err = user.Validate()
	}
	if err != nil {
		err = classify(err, msgProfileFailed)
		m.setError(err)
		return nil, err
	}

	user = user.Clone()
	m.commit(func(s domain.SessionState) domain.SessionState {
		return s.WithUser(user)
	}, (*Broadcaster).publishProfile)
	return user.Clone(), nil
}

// RequestPasswordReset asks the server to send a reset email.
func (m *SessionManager) RequestPasswordReset(ctx context.Context, req domain.PasswordResetRequest) error {
	return m.passthrough(ctx, OpRequestPasswordReset, msgResetRequest, req.Validate, func(ctx context.Context) error {
		return m.gateway.RequestPasswordReset(ctx, req)
	})
}

// ResetPassword completes a password reset.
func (m *SessionManager) ResetPassword(ctx context.Context, req domain.NewPasswordRequest) error {
	return m.passthrough(ctx, OpResetPassword, msgResetFailed, req.Validate, func(ctx context.Context) error {
		return m.gateway.ResetPassword(ctx, req)
	})
}

// InviteUser invites a user into the current organization. Admin rights are
// enforced by the server.
func (m *SessionManager) InviteUser(ctx context.Context, req domain.InviteUserRequest) error {
	return m.passthrough(ctx, OpInviteUser, msgInviteFailed, req.Validate, func(ctx context.Context) error {
		return m.gateway.InviteUser(ctx, req)
	})
}

// passthrough runs a gateway call that never changes the session.
func (m *SessionManager) passthrough(
	ctx context.Context,
	op, fallback string,
	validate func() error,
	call func(context.Context) error,
) (err error) {
	release := m.begin(op)
	defer release()
	defer func() { m.record(op, err) }()

	if err = validate(); err == nil {
		if err = call(ctx); err != nil {
			err = classify(err, fallback)
		}
	}
	if err != nil {
		m.setError(err)
	}
	return err
}

// begin enters the loading scope and clears the error field.
func (m *SessionManager) begin(op string) (release func()) {
	release = m.loading.acquire()
	m.setErrorMessage("")
	m.logger.Debug("operation started", "operation", op)
	return release
}

func (m *SessionManager) record(op string, err error, args ...any) {
	m.metrics.RecordOperation(op, err)
	if err != nil {
		m.logger.Warn("operation failed",
			append([]any{"operation", op, "kind", domain.KindOf(err).String(), "error", err}, args...)...)
		return
	}
	m.logger.Debug("operation completed", append([]any{"operation", op}, args...)...)
}

// errSessionChanged aborts a commit guarded on a session that is gone.
var errSessionChanged = errors.New("session changed")

// clearSession removes the persisted records and publishes the logged-out
// state, returning the access token that was current. A storage failure is
// logged: the in-memory session is logged out regardless.
//
// A non-empty guard limits the clear to the session holding that refresh
// token; otherwise nothing happens and ended is false.
func (m *SessionManager) clearSession(ctx context.Context, guard string) (accessToken string, ended bool) {
	err := m.commitPersisted(func() error {
		if guard != "" && !m.holdsRefreshToken(guard) {
			return errSessionChanged
		}
		accessToken = m.AccessToken()
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("clear persisted session failed", "error", err)
		}
		return nil
	}, replaceWith(domain.EmptySessionState()), (*Broadcaster).publishSnapshot)
	if err != nil {
		return "", false
	}
	return accessToken, true
}

// holdsRefreshToken reports whether the current session carries
// refreshToken. Called with writeMu held, so the answer stays true until
// the commit applies.
func (m *SessionManager) holdsRefreshToken(refreshToken string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Tokens != nil && token.Equal(m.state.Tokens.RefreshToken, refreshToken)
}

// resetWithError logs the session out and records err in the error field.
func (m *SessionManager) resetWithError(ctx context.Context, err error) {
	m.clearSession(ctx, "")
	m.setError(err)
}

func (m *SessionManager) setError(err error) {
	m.setErrorMessage(domain.UserMessage(err))
}

func (m *SessionManager) setErrorMessage(msg string) {
	m.mu.RLock()
	unchanged := m.state.Error == msg
	m.mu.RUnlock()
	if unchanged {
		return
	}

	m.commit(func(s domain.SessionState) domain.SessionState {
		s.Error = msg
		return s
	}, (*Broadcaster).publishError)
}

func (m *SessionManager) setLoading(loading bool) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	m.state.IsLoading = loading
	m.mu.Unlock()

	m.broadcaster.publishLoading(loading)
}

// commit applies next to the state and publishes the result.
func (m *SessionManager) commit(next func(domain.SessionState) domain.SessionState, publish func(*Broadcaster, domain.SessionState)) {
	_ = m.commitPersisted(nil, next, publish)
}

// commitPersisted runs persist, then applies next and publishes, all in one
// serialized section. If persist fails nothing is applied or published.
func (m *SessionManager) commitPersisted(
	persist func() error,
	next func(domain.SessionState) domain.SessionState,
	publish func(*Broadcaster, domain.SessionState),
) error {
	m.writeMu.Lock()
	if persist != nil {
		if err := persist(); err != nil {
			m.writeMu.Unlock()
			return err
		}
	}

	m.mu.Lock()
	m.state = next(m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.publishMu.Lock()
	m.writeMu.Unlock()
	defer m.publishMu.Unlock()

	publish(m.broadcaster, snapshot)
	return nil
}

func (m *SessionManager) sessionFlags() (authenticated, admin bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated, m.state.IsAdmin
}

// replaceWith returns a state transition to next that keeps the loading flag
// and clears the error field.
func replaceWith(next domain.SessionState) func(domain.SessionState) domain.SessionState {
	return func(cur domain.SessionState) domain.SessionState {
		s := next.Clone()
		s.IsLoading = cur.IsLoading
		s.Error = ""
		return s
	}
}

// classify makes sure err is a DomainError. Errors from a Gateway already
// are; anything else (a bare transport error, a deadline) is a network error
// carrying the operation's fallback message.
func classify(err error, fallback string) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrNetwork.WithMessage(fallback).WithDetails("request timed out").WithCause(err)
	}
	return domain.ErrNetwork.WithMessage(fallback).WithCause(err)
}
