package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/trails-auth/authmodel"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 1 << 20
)

// Gateway is a stateless client for the backend authentication endpoints.
// Each method issues exactly one POST and never retries. It does not touch the
// session: callers decide what to do with a successful AuthResponse.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

// GatewayOption defines a function type to modify the Gateway instance.
type GatewayOption func(*Gateway)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

func WithLogger(logger zerolog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRateLimiter makes every call wait for a token before it is sent.
func WithRateLimiter(limiter *rate.Limiter) GatewayOption {
	return func(g *Gateway) {
		g.limiter = limiter
	}
}

func WithTracer(tracer trace.Tracer) GatewayOption {
	return func(g *Gateway) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// NewGateway creates a Gateway for the API rooted at baseURL, e.g. "https://localhost:5001/api".
func NewGateway(baseURL string, options ...GatewayOption) (*Gateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.Wrap(InvalidBaseURLErr, "[NewGateway] base url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(InvalidBaseURLErr, "[NewGateway] %q", baseURL)
	}

	g := &Gateway{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Logger,
		tracer:     otel.Tracer("github.com/jrsteele09/trails-auth/auth"),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// BaseURL returns the normalised API root.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Login exchanges email and password for a session, or for a pending token
// when the account has two-factor authentication enabled.
func (g *Gateway) Login(ctx context.Context, req authmodel.LoginRequest) (*authmodel.AuthResponse, error) {
	return g.authenticate(ctx, loginOp, req, "")
}

func (g *Gateway) Register(ctx context.Context, req authmodel.RegisterRequest) (*authmodel.AuthResponse, error) {
	return g.authenticate(ctx, registerOp, req, "")
}

// GoogleLogin exchanges a Google identity token for a session.
func (g *Gateway) GoogleLogin(ctx context.Context, req authmodel.GoogleAuthRequest) (*authmodel.AuthResponse, error) {
	return g.authenticate(ctx, googleLoginOp, req, "")
}

// VerifyTwoFactor completes a pending login. pendingToken is the token from the
// AuthResponse that had RequiresTwoFactor set; it is sent as a bearer credential.
func (g *Gateway) VerifyTwoFactor(ctx context.Context, req authmodel.TwoFactorVerificationRequest, pendingToken string) (*authmodel.AuthResponse, error) {
	return g.authenticate(ctx, verifyTwoFactorOp, req, pendingToken)
}

// ForgotPassword asks the backend to email a reset token.
func (g *Gateway) ForgotPassword(ctx context.Context, req authmodel.ForgotPasswordRequest) error {
	_, err := g.post(ctx, forgotPasswordOp, req, "")
	return err
}

func (g *Gateway) ResetPassword(ctx context.Context, req authmodel.PasswordResetRequest) error {
	_, err := g.post(ctx, resetPasswordOp, req, "")
	return err
}

func (g *Gateway) authenticate(ctx context.Context, op operation, req any, bearer string) (*authmodel.AuthResponse, error) {
	body, err := g.post(ctx, op, req, bearer)
	if err != nil {
		return nil, err
	}

	var resp authmodel.AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		g.logger.Error().Err(err).Str("op", op.name).Msg("Malformed success response")
		return nil, &authmodel.Error{Kind: authmodel.KindServer, StatusCode: http.StatusOK, Message: op.failureMessage, Err: err}
	}
	if resp.Token == "" || (!resp.RequiresTwoFactor && !resp.HasSession()) {
		g.logger.Error().Str("op", op.name).Msg("Success response is missing token or user")
		return nil, authmodel.NewError(authmodel.KindServer, http.StatusOK, op.failureMessage)
	}
	return &resp, nil
}

// post sends one JSON request and returns the raw body of a 2xx response.
func (g *Gateway) post(ctx context.Context, op operation, payload any, bearer string) (body []byte, err error) {
	ctx, span := g.tracer.Start(ctx, op.name, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("http.route", op.path))

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, authmodel.NetworkError(op.failureMessage, err)
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "[%s] encode request", op.name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+op.path, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrapf(err, "[%s] build request", op.name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	g.logger.Debug().Str("op", op.name).Str("url", req.URL.String()).Msg("sending request")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Str("op", op.name).Msg("Request failed")
		return nil, authmodel.NetworkError(op.failureMessage, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, authmodel.NetworkError(op.failureMessage, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	kind := op.failureKind
	if resp.StatusCode >= 500 {
		kind = authmodel.KindServer
	}
	apiErr := authmodel.NewError(kind, resp.StatusCode, authmodel.MessageFromBody(body, op.failureMessage))
	g.logger.Warn().Str("op", op.name).Int("status", resp.StatusCode).Str("kind", kind.String()).Msg(apiErr.Message)
	return nil, apiErr
}
