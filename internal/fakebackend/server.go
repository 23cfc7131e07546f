// Package fakebackend is an in-memory stand-in for the trails API. It serves
// the authentication and profile endpoints over HTTP so clients can be tested
// end to end, and lets tests inject failures per route.
package fakebackend

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/trails-auth/users"
)

const DefaultTwoFactorCode = "123456"

type fault struct {
	status      int
	body        string
	contentType string
}

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	logger   zerolog.Logger
	accounts *accountRepo

	signingKey    []byte
	tokenTTL      time.Duration
	twoFactorCode string
	nowTime       func() time.Time

	mu          sync.Mutex
	generation  int
	pending     map[string]string // pending token -> user ID
	resetTokens map[string]string // email -> reset token
	faults      map[string]fault  // path -> injected response
	hits        map[string]int    // "METHOD path" -> count
}

type ServerOption func(*Server)

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEnv enables request logging when set to "DEV".
func WithEnv(env string) ServerOption {
	return func(s *Server) {
		s.env = strings.ToUpper(env)
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func WithTokenTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func WithTwoFactorCode(code string) ServerOption {
	return func(s *Server) {
		s.twoFactorCode = code
	}
}

func New(options ...ServerOption) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		logger:        log.Logger,
		accounts:      newAccountRepo(),
		signingKey:    []byte(uuid.New().String()),
		tokenTTL:      time.Hour,
		twoFactorCode: DefaultTwoFactorCode,
		nowTime:       time.Now,
		pending:       make(map[string]string),
		resetTokens:   make(map[string]string),
		faults:        make(map[string]fault),
		hits:          make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthGoogle, ChainMiddleware(s.GoogleHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteTwoFactorVerify, ChainMiddleware(s.VerifyTwoFactorHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteUserProfile, ChainMiddleware(s.GetProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteUserProfile, ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware()...))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		s.logger.Debug().Str("method", colourMethod(method)).Msg(path)
	}
}

// AddAccount registers a rider directly, bypassing /auth/register.
func (s *Server) AddAccount(user *users.User, password string) (*users.User, error) {
	return s.accounts.create(user, password)
}

// Account returns the stored profile for email.
func (s *Server) Account(email string) (*users.User, error) {
	return s.accounts.getByEmail(email)
}

// ResetToken returns the token that forgot-password "emailed" to email.
func (s *Server) ResetToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.resetTokens[normaliseEmail(email)]
	return token, ok
}

// RevokeAll invalidates every session token issued so far.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

// Fail makes every request to path answer with status and body until cleared.
func (s *Server) Fail(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contentType := "application/json"
	if !strings.HasPrefix(strings.TrimSpace(body), "{") {
		contentType = "text/plain"
	}
	s.faults[path] = fault{status: status, body: body, contentType: contentType}
}

func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]fault)
}

// Hits returns how many requests reached method+path, including failed ones.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}
