package sessions

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/users"
)

// Store is the single source of truth for the current authentication session.
// It holds the token and user profile in memory, mirrors them to durable storage
// and publishes every committed change to its subscribers.
//
// Mutating operations are serialised: each one completes, including subscriber
// notification, before the next begins. Subscriber callbacks may read the store
// but must not call Restore, Login, Logout or UpdateUser.
type Store struct {
	repo   storage.Repo
	logger zerolog.Logger

	opMu sync.Mutex // serialises Restore/Login/Logout/UpdateUser

	mu        sync.RWMutex // guards the fields below
	token     string
	user      *users.User
	isLoading bool
	state     State

	subMu       sync.Mutex
	subscribers []subscriber
	nextSubID   uint64
}

type subscriber struct {
	id uint64
	fn func(Snapshot)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the diagnostic logger. Defaults to the global zerolog logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty, uninitialised store. Call Restore once at startup.
func NewStore(repo storage.Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] storage repo is required")
	}
	s := &Store{
		repo:      repo,
		logger:    log.Logger,
		isLoading: true,
		state:     StateUninitialized,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Restore loads the persisted session. It never fails: any storage or decode
// problem is logged and leaves the store unauthenticated. IsLoading is always
// false once Restore returns.
func (s *Store) Restore(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.state = StateRestoring
	s.isLoading = true
	s.mu.Unlock()

	token, user := s.loadPersisted(ctx)

	s.mu.Lock()
	if token != "" && user != nil {
		s.token, s.user, s.state = token, user, StateAuthenticated
	} else {
		s.token, s.user, s.state = "", nil, StateUnauthenticated
	}
	s.isLoading = false
	s.mu.Unlock()

	s.logger.Debug().Str("state", s.State().String()).Msg("session restored")
	s.notify()
}

func (s *Store) loadPersisted(ctx context.Context) (string, *users.User) {
	token, err := s.repo.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			s.logger.Error().Err(err).Str("key", storage.KeyAuthToken).Msg("Failed to load authentication data")
		}
		return "", nil
	}
	userJSON, err := s.repo.Get(ctx, storage.KeyUserData)
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			s.logger.Error().Err(err).Str("key", storage.KeyUserData).Msg("Failed to load authentication data")
		}
		return "", nil
	}
	if token == "" || userJSON == "" {
		return "", nil
	}
	user, err := users.Unmarshal(userJSON)
	if err != nil {
		s.logger.Error().Err(err).Str("key", storage.KeyUserData).Msg("Stored user record is malformed")
		return "", nil
	}
	return token, user
}

// LoginOption configures a single Login call.
type LoginOption func(*loginOptions)

type loginOptions struct {
	refreshToken string
}

// WithRefreshToken persists the refresh token issued with the session.
// The value is stored for completeness only; nothing reads it back.
func WithRefreshToken(refreshToken string) LoginOption {
	return func(o *loginOptions) {
		o.refreshToken = refreshToken
	}
}

// Login persists token and user as one logical unit, then publishes the new
// session. If either write fails the persisted record is rolled back to the
// previous session, memory is left untouched and an ErrPersistence error is returned.
func (s *Store) Login(ctx context.Context, token string, user *users.User, options ...LoginOption) error {
	if token == "" || user == nil {
		return ErrInvalidSession
	}
	var opts loginOptions
	for _, opt := range options {
		opt(&opts)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	userJSON, err := user.Marshal()
	if err != nil {
		return errors.Wrap(&PersistenceError{Op: "write", Key: storage.KeyUserData, Err: err}, "[Store.Login] encode user")
	}

	prevToken, err := s.repo.Get(ctx, storage.KeyAuthToken)
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		s.logger.Error().Err(err).Msg("Failed to read authentication data")
		return errors.Wrap(&PersistenceError{Op: "read", Key: storage.KeyAuthToken, Err: err}, "[Store.Login]")
	}

	if err := s.repo.Set(ctx, storage.KeyAuthToken, token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store authentication data")
		return errors.Wrap(&PersistenceError{Op: "write", Key: storage.KeyAuthToken, Err: err}, "[Store.Login]")
	}
	if err := s.repo.Set(ctx, storage.KeyUserData, userJSON); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store authentication data")
		s.rollbackToken(ctx, prevToken)
		return errors.Wrap(&PersistenceError{Op: "write", Key: storage.KeyUserData, Err: err}, "[Store.Login]")
	}
	s.persistRefreshToken(ctx, opts.refreshToken)

	s.mu.Lock()
	s.token = token
	s.user = user.Clone()
	s.state = StateAuthenticated
	s.isLoading = false
	s.mu.Unlock()

	s.notify()
	return nil
}

// rollbackToken puts back the token that was persisted before a failed login,
// or removes the key when there was none.
func (s *Store) rollbackToken(ctx context.Context, previous string) {
	var err error
	if previous != "" {
		err = s.repo.Set(ctx, storage.KeyAuthToken, previous)
	} else {
		err = s.repo.Remove(ctx, storage.KeyAuthToken)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to roll back authentication token")
	}
}

func (s *Store) persistRefreshToken(ctx context.Context, refreshToken string) {
	var err error
	if refreshToken != "" {
		err = s.repo.Set(ctx, storage.KeyRefreshToken, refreshToken)
	} else {
		err = s.repo.Remove(ctx, storage.KeyRefreshToken)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to store refresh token")
	}
}

// Logout removes the persisted token, user and refresh token and clears the
// in-memory session. Memory is cleared and subscribers notified even when a
// removal fails; such failures are returned as ErrPersistence.
func (s *Store) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var errs []error
	for _, key := range []string{storage.KeyAuthToken, storage.KeyUserData, storage.KeyRefreshToken} {
		if err := s.repo.Remove(ctx, key); err != nil {
			s.logger.Error().Err(err).Str("key", key).Msg("Failed to remove authentication data")
			errs = append(errs, &PersistenceError{Op: "remove", Key: key, Err: err})
		}
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.state = StateUnauthenticated
	s.isLoading = false
	s.mu.Unlock()

	s.notify()

	if len(errs) > 0 {
		return errors.Wrap(stderrors.Join(errs...), "[Store.Logout]")
	}
	return nil
}

// UpdateUser replaces the stored profile of the current session. The token is
// never touched. It returns ErrInvalidState unless the store is authenticated,
// and ErrPersistence (keeping the previous profile) if the write fails.
func (s *Store) UpdateUser(ctx context.Context, user *users.User) error {
	if user == nil {
		return ErrInvalidSession
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.State() != StateAuthenticated {
		return errors.Wrapf(ErrInvalidState, "[Store.UpdateUser] state %s", s.State())
	}

	userJSON, err := user.Marshal()
	if err != nil {
		return errors.Wrap(&PersistenceError{Op: "write", Key: storage.KeyUserData, Err: err}, "[Store.UpdateUser] encode user")
	}
	if err := s.repo.Set(ctx, storage.KeyUserData, userJSON); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update user data")
		return errors.Wrap(&PersistenceError{Op: "write", Key: storage.KeyUserData, Err: err}, "[Store.UpdateUser]")
	}

	s.mu.Lock()
	s.user = user.Clone()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Subscribe registers fn to be called synchronously after every committed
// change. The returned function removes the subscription; it is safe to call
// more than once. A nil fn is ignored.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(s.Snapshot())
	}
}

// Snapshot returns a consistent copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Token:     s.token,
		User:      s.user.Clone(),
		IsLoading: s.isLoading,
		State:     s.state,
	}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current profile, or nil when logged out.
func (s *Store) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
