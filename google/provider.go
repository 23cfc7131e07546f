package google

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/trails-auth/internal/config"
	interrors "github.com/jrsteele09/trails-auth/internal/errors"
)

const DefaultStateTTL = 10 * time.Minute

var (
	ErrNoIDToken     = errors.New("token response has no id_token")
	ErrNonceMismatch = errors.New("id token nonce mismatch")
)

// Provider runs the authorization-code flow with PKCE against Google (or any
// OIDC issuer) and yields a verified identity token for the backend.
type Provider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	states       StateRepo
	stateTTL     time.Duration
	httpClient   *http.Client
	nowTime      func() time.Time
	logger       zerolog.Logger
}

type ProviderOption func(*Provider)

func WithStateRepo(repo StateRepo) ProviderOption {
	return func(p *Provider) {
		p.states = repo
	}
}

// WithHTTPClient is used for discovery, key fetches and the code exchange.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// NewProvider discovers the issuer's endpoints and keys.
func NewProvider(ctx context.Context, cfg config.GoogleConfig, options ...ProviderOption) (*Provider, error) {
	if cfg.GetGoogleClientID() == "" {
		return nil, interrors.Wrapf(interrors.ErrMissingConfig, "[google.NewProvider] client id")
	}
	if cfg.GetGoogleRedirectURI() == "" {
		return nil, interrors.Wrapf(interrors.ErrMissingConfig, "[google.NewProvider] redirect uri")
	}

	p := &Provider{
		states:   NewInMemoryStateRepo(),
		stateTTL: DefaultStateTTL,
		nowTime:  time.Now,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(p)
	}

	provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.GetGoogleIssuer())
	if err != nil {
		return nil, errors.Wrap(err, "[google.NewProvider] discovery")
	}

	p.oauth2Config = &oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		RedirectURL:  cfg.GetGoogleRedirectURI(),
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	p.verifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.GetGoogleClientID(),
		Now:      p.nowTime,
	})
	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.httpClient)
}

// AuthCodeURL starts a sign-in and returns the consent page URL and its state.
func (p *Provider) AuthCodeURL() (authURL, state string, err error) {
	now := p.nowTime()
	if n := p.states.Prune(now, p.stateTTL); n > 0 {
		p.logger.Debug().Int("count", n).Msg("pruned abandoned sign-in states")
	}

	state = uuid.New().String()
	flow := &FlowState{
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        uuid.New().String(),
		CreatedAt:    now,
	}
	if err := p.states.Upsert(state, flow); err != nil {
		return "", "", errors.Wrap(err, "[Provider.AuthCodeURL]")
	}
	authURL = p.oauth2Config.AuthCodeURL(state,
		oauth2.S256ChallengeOption(flow.CodeVerifier),
		oidc.Nonce(flow.Nonce),
		oauth2.AccessTypeOnline,
	)
	return authURL, state, nil
}

// Exchange completes the sign-in started by AuthCodeURL. state is consumed
// whether or not the exchange succeeds.
func (p *Provider) Exchange(ctx context.Context, state, code string) (string, error) {
	flow, err := p.states.Get(state)
	if err != nil {
		return "", errors.Wrap(err, "[Provider.Exchange]")
	}
	if err := p.states.Delete(state); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to delete sign-in state")
	}
	if p.nowTime().Sub(flow.CreatedAt) > p.stateTTL {
		return "", errors.Wrap(interrors.ErrStateExpired, "[Provider.Exchange]")
	}

	ctx = p.clientContext(ctx)
	tok, err := p.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return "", errors.Wrap(err, "[Provider.Exchange] token exchange")
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.Wrap(ErrNoIDToken, "[Provider.Exchange]")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", errors.Wrap(err, "[Provider.Exchange] verify id token")
	}
	if idToken.Nonce != flow.Nonce {
		return "", errors.Wrap(ErrNonceMismatch, "[Provider.Exchange]")
	}
	return rawIDToken, nil
}

// ParseCallback extracts state and code from the redirect URL the browser
// landed on, reporting any error the issuer sent back instead.
func ParseCallback(rawURL string) (state, code string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, "[google.ParseCallback]")
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", "", errors.Errorf("authorization failed: %s %s", e, q.Get("error_description"))
	}
	state, code = q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		return "", "", errors.New("missing code or state parameter")
	}
	return state, code, nil
}
