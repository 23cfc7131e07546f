package signin

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/sessions"
	"github.com/jrsteele09/trails-auth/users"
)

// Authenticator is the subset of auth.Gateway the flow drives.
type Authenticator interface {
	Login(ctx context.Context, req authmodel.LoginRequest) (*authmodel.AuthResponse, error)
	Register(ctx context.Context, req authmodel.RegisterRequest) (*authmodel.AuthResponse, error)
	GoogleLogin(ctx context.Context, req authmodel.GoogleAuthRequest) (*authmodel.AuthResponse, error)
	VerifyTwoFactor(ctx context.Context, req authmodel.TwoFactorVerificationRequest, pendingToken string) (*authmodel.AuthResponse, error)
	ForgotPassword(ctx context.Context, req authmodel.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req authmodel.PasswordResetRequest) error
}

// SessionCommitter is the subset of sessions.Store the flow uses.
type SessionCommitter interface {
	Login(ctx context.Context, token string, user *users.User, options ...sessions.LoginOption) error
	IsAuthenticated() bool
}

// Flow is the control flow behind the sign-in screens. It validates input,
// calls the gateway and commits successful logins to the session store. A
// login that needs a second factor parks the pending token here; it is never
// written to the session.
type Flow struct {
	gateway   Authenticator
	store     SessionCommitter
	validator *Validator
	logger    zerolog.Logger

	mu           sync.Mutex
	state        State
	pendingToken string
}

type FlowOption func(*Flow)

func WithLogger(logger zerolog.Logger) FlowOption {
	return func(f *Flow) {
		f.logger = logger
	}
}

func NewFlow(gateway Authenticator, store SessionCommitter, options ...FlowOption) *Flow {
	f := &Flow{
		gateway:   gateway,
		store:     store,
		validator: NewValidator(),
		logger:    log.Logger,
		state:     StateUnauthenticated,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// SignIn logs in with email and password.
func (f *Flow) SignIn(ctx context.Context, req authmodel.LoginRequest) (Step, error) {
	if err := f.validator.ValidateLogin(req); err != nil {
		return StepNone, err
	}
	resp, err := f.gateway.Login(ctx, req)
	if err != nil {
		return StepNone, err
	}
	return f.complete(ctx, resp)
}

// SignInWithGoogle exchanges a Google identity token for a session.
func (f *Flow) SignInWithGoogle(ctx context.Context, idToken string) (Step, error) {
	if err := f.validator.ValidateIDToken(idToken); err != nil {
		return StepNone, err
	}
	resp, err := f.gateway.GoogleLogin(ctx, authmodel.GoogleAuthRequest{IDToken: idToken})
	if err != nil {
		return StepNone, err
	}
	return f.complete(ctx, resp)
}

// Register creates an account and signs straight into it.
func (f *Flow) Register(ctx context.Context, req authmodel.RegisterRequest) (Step, error) {
	if err := f.validator.ValidateRegister(req); err != nil {
		return StepNone, err
	}
	resp, err := f.gateway.Register(ctx, req)
	if err != nil {
		return StepNone, err
	}
	return f.complete(ctx, resp)
}

// VerifyTwoFactor answers the pending challenge. On failure the challenge stays
// pending so the user can try another code.
func (f *Flow) VerifyTwoFactor(ctx context.Context, code string, rememberDevice bool) error {
	pending := f.PendingToken()
	if pending == "" {
		return ErrNoPendingChallenge
	}
	if err := f.validator.ValidateCode(code); err != nil {
		return err
	}

	resp, err := f.gateway.VerifyTwoFactor(ctx, authmodel.TwoFactorVerificationRequest{
		Code:           code,
		RememberDevice: rememberDevice,
	}, pending)
	if err != nil {
		return err
	}
	if !resp.HasSession() {
		return authmodel.NewError(authmodel.KindServer, 0, "2FA verification failed")
	}

	return f.commit(ctx, resp, pending)
}

func (f *Flow) ForgotPassword(ctx context.Context, email string) error {
	if err := f.validator.ValidateForgotPassword(email); err != nil {
		return err
	}
	return f.gateway.ForgotPassword(ctx, authmodel.ForgotPasswordRequest{Email: email})
}

func (f *Flow) ResetPassword(ctx context.Context, req authmodel.PasswordResetRequest) error {
	if err := f.validator.ValidateResetPassword(req); err != nil {
		return err
	}
	return f.gateway.ResetPassword(ctx, req)
}

// Cancel abandons a pending two-factor challenge.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StatePendingTwoFactor {
		f.state = StateUnauthenticated
	}
	f.pendingToken = ""
}

// State reports where the sign-in attempt stands. A session that has since
// been logged out of the store reads as StateUnauthenticated.
func (f *Flow) State() State {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	if state == StateAuthenticated && !f.store.IsAuthenticated() {
		return StateUnauthenticated
	}
	return state
}

// PendingToken returns the token carried between login and verification, or "".
func (f *Flow) PendingToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingToken
}

func (f *Flow) complete(ctx context.Context, resp *authmodel.AuthResponse) (Step, error) {
	if resp.RequiresTwoFactor {
		f.mu.Lock()
		f.state = StatePendingTwoFactor
		f.pendingToken = resp.Token
		f.mu.Unlock()
		f.logger.Debug().Msg("two-factor verification required")
		return StepTwoFactorRequired, nil
	}
	if err := f.commit(ctx, resp, ""); err != nil {
		return StepNone, err
	}
	return StepAuthenticated, nil
}

// commit stores the session. verified is the pending token that was answered,
// or "" for a direct sign-in; a challenge opened meanwhile is left in place.
func (f *Flow) commit(ctx context.Context, resp *authmodel.AuthResponse, verified string) error {
	var options []sessions.LoginOption
	if resp.RefreshToken != "" {
		options = append(options, sessions.WithRefreshToken(resp.RefreshToken))
	}
	if err := f.store.Login(ctx, resp.Token, resp.User, options...); err != nil {
		f.logger.Error().Err(err).Msg("Failed to commit session")
		return err
	}

	f.mu.Lock()
	if verified == "" || f.pendingToken == verified {
		f.state = StateAuthenticated
		f.pendingToken = ""
	}
	f.mu.Unlock()
	return nil
}
