package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
	"github.com/yndnr/sesskeep-go/internal/infra/buildinfo"
	"github.com/yndnr/sesskeep-go/internal/infra/tlsroots"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
	"github.com/yndnr/sesskeep-go/internal/telemetry/metric"
)

// Default settings.
const (
	DefaultPathPrefix = "/api/auth"
	DefaultTimeout    = 30 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Endpoint paths relative to the path prefix.
const (
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathLogout         = "/logout"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathRefreshToken   = "/refresh-token"
	PathInvite         = "/invite"
	PathMe             = "/me"
)

// Fallback messages used when the server does not supply one.
const (
	MsgLoginFailed         = "Login failed"
	MsgSignupFailed        = "Signup failed"
	MsgLogoutFailed        = "Logout failed"
	MsgResetRequestFailed  = "Password reset request failed"
	MsgResetPasswordFailed = "Password reset failed"
	MsgRefreshFailed       = "Token refresh failed"
	MsgInviteFailed        = "Invitation failed"
	MsgProfileFailed       = "Failed to fetch user profile"
)

// Config configures the HTTP gateway.
type Config struct {
	// BaseURL is the auth server address. "http://" is assumed when no
	// scheme is given.
	BaseURL string

	// PathPrefix is prepended to every endpoint path.
	// Default: /api/auth
	PathPrefix string

	// Timeout bounds each request, including reading the body.
	// Default: 30s
	Timeout time.Duration

	// CAFile is an optional PEM bundle trusted in addition to the system roots.
	CAFile string

	// RateLimit is the maximum sustained requests per second. 0 disables
	// throttling.
	RateLimit float64

	// Burst is the limiter bucket size. Values below 1 are treated as 1.
	Burst int

	// UserAgent overrides the default "sesskeep-cli/<version>".
	UserAgent string
}

// TokenSource returns the access token to send as a bearer credential, or
// "" for none.
type TokenSource func() string

// Option configures an HTTPGateway.
type Option func(*HTTPGateway)

// WithTokenSource sets the bearer token source.
func WithTokenSource(src TokenSource) Option {
	return func(g *HTTPGateway) {
		g.tokens = src
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *HTTPGateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(g *HTTPGateway) {
		g.metrics = m
	}
}

// WithHTTPClient replaces the underlying HTTP client. Timeout and CAFile
// from Config are not applied to a supplied client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) {
		if c != nil {
			g.client = c
		}
	}
}

// HTTPGateway talks to the auth API over HTTP(S).
type HTTPGateway struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	tokens    TokenSource
	logger    logger.Logger
	metrics   *metric.Registry
}

// New creates an HTTP gateway.
func New(cfg Config, opts ...Option) (*HTTPGateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	prefix := cfg.PathPrefix
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	baseURL += strings.TrimRight(prefix, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent("sesskeep-cli")
	}

	g := &HTTPGateway{
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    logger.Nop(),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		tlsCfg, err := tlsroots.ClientConfig(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
		g.client = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}

	return g, nil
}

// BaseURL returns the base URL including the path prefix.
func (g *HTTPGateway) BaseURL() string {
	return g.baseURL
}

// Login authenticates with email and password.
func (g *HTTPGateway) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := g.do(ctx, http.MethodPost, PathLogin, req, &resp, MsgLoginFailed); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup registers a new account.
func (g *HTTPGateway) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := g.do(ctx, http.MethodPost, PathSignup, req, &resp, MsgSignupFailed); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates accessToken server-side.
func (g *HTTPGateway) Logout(ctx context.Context, accessToken string) error {
	ctx = withBearer(ctx, accessToken)
	return g.do(ctx, http.MethodPost, PathLogout, struct{}{}, nil, MsgLogoutFailed)
}

// RequestPasswordReset asks the server to send a reset link.
func (g *HTTPGateway) RequestPasswordReset(ctx context.Context, req domain.PasswordResetRequest) error {
	return g.do(ctx, http.MethodPost, PathForgotPassword, req, nil, MsgResetRequestFailed)
}

// ResetPassword sets a new password using a reset token.
func (g *HTTPGateway) ResetPassword(ctx context.Context, req domain.NewPasswordRequest) error {
	return g.do(ctx, http.MethodPost, PathResetPassword, req, nil, MsgResetPasswordFailed)
}

// Refresh exchanges refreshToken for a new token set.
func (g *HTTPGateway) Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var tokens domain.TokenSet
	if err := g.do(ctx, http.MethodPost, PathRefreshToken, body, &tokens, MsgRefreshFailed); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// InviteUser invites a new member to the caller's organization.
func (g *HTTPGateway) InviteUser(ctx context.Context, req domain.InviteUserRequest) error {
	return g.do(ctx, http.MethodPost, PathInvite, req, nil, MsgInviteFailed)
}

// GetCurrentUser fetches the authenticated user's profile.
func (g *HTTPGateway) GetCurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := g.do(ctx, http.MethodGet, PathMe, nil, &user, MsgProfileFailed); err != nil {
		return nil, err
	}
	return &user, nil
}

// do performs one request and decodes a 2xx body into target (if non-nil).
func (g *HTTPGateway) do(ctx context.Context, method, path string, body, target any, fallback string) (err error) {
	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = domain.NewRequestID()
	}
	start := time.Now()
	log := g.logger.With("endpoint", path, "request_id", requestID)

	defer func() {
		outcome := metric.OutcomeSuccess
		if err != nil {
			outcome = metric.OutcomeFailure
		}
		g.metrics.ObserveGatewayRequest(path, outcome, time.Since(start).Seconds())
	}()

	if g.limiter != nil {
		if werr := g.limiter.Wait(ctx); werr != nil {
			return transportError(werr, fallback)
		}
	}

	var reader io.Reader
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return domain.ErrValidation.WithMessage(fallback).WithCause(fmt.Errorf("marshal body: %w", merr))
		}
		reader = bytes.NewReader(data)
	}

	req, rerr := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if rerr != nil {
		return domain.ErrNetwork.WithMessage(fallback).WithCause(fmt.Errorf("create request: %w", rerr))
	}
	g.addHeaders(req, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("gateway request", "method", method)

	resp, derr := g.client.Do(req)
	if derr != nil {
		log.Debug("gateway transport error", "error", derr)
		return transportError(derr, fallback)
	}
	defer resp.Body.Close()

	log.Debug("gateway response",
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode >= 400 {
		return statusError(resp, fallback)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if jerr := json.NewDecoder(resp.Body).Decode(target); jerr != nil {
		if isTimeout(jerr) {
			return transportError(jerr, fallback)
		}
		return domain.ErrValidation.
			WithMessage(fallback).
			WithDetails("malformed response body").
			WithCause(jerr)
	}
	return nil
}

// addHeaders sets the request ID, user agent and bearer token.
func (g *HTTPGateway) addHeaders(req *http.Request, requestID string) {
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	token, ok := bearerFrom(req.Context())
	if !ok && g.tokens != nil {
		token = g.tokens()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

type bearerKey struct{}

// withBearer pins the bearer token for a single call, overriding the source.
func withBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey{}).(string)
	return token, ok
}

// errorBody is the error payload shape returned by the auth API.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError maps a >=400 response onto a DomainError.
func statusError(resp *http.Response, fallback string) error {
	var base *domain.DomainError
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		base = domain.ErrNetwork
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		base = domain.ErrAuthentication
	default:
		base = domain.ErrValidation
	}

	message := fallback
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 && json.Unmarshal(data, &eb) == nil {
		switch {
		case eb.Message != "":
			message = eb.Message
		case eb.Error != "":
			message = eb.Error
		}
	}

	details := fmt.Sprintf("status %d", resp.StatusCode)
	if eb.Code != "" {
		details += " (" + eb.Code + ")"
	}
	return base.WithMessage(message).WithDetails(details)
}

// transportError maps a failure to reach the server onto ErrNetwork.
func transportError(err error, fallback string) error {
	de := domain.ErrNetwork.WithMessage(fallback).WithCause(err)
	if isTimeout(err) {
		return de.WithDetails("request timed out")
	}
	return de
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
