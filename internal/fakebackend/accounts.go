package fakebackend

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/trails-auth/users"
)

var (
	errAccountNotFound = errors.New("account not found")
	errAccountExists   = errors.New("account already exists")
	errBadPassword     = errors.New("password mismatch")
)

type account struct {
	user         *users.User
	passwordHash []byte
}

// accountRepo keeps registered riders in memory, keyed by ID with an email index.
type accountRepo struct {
	accounts map[string]*account
	emailIDs map[string]string
	lock     sync.RWMutex
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*account),
		emailIDs: make(map[string]string),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// create registers user with password. A blank password makes an account that
// can only sign in through Google.
func (r *accountRepo) create(user *users.User, password string) (*users.User, error) {
	var hash []byte
	if password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost); err != nil {
			return nil, err
		}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	email := normaliseEmail(user.Email)
	if _, ok := r.emailIDs[email]; ok {
		return nil, errAccountExists
	}
	u := user.Clone()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	r.accounts[u.ID] = &account{user: u, passwordHash: hash}
	r.emailIDs[email] = u.ID
	return u.Clone(), nil
}

func (r *accountRepo) authenticate(email, password string) (*users.User, error) {
	r.lock.RLock()
	acc, ok := r.accounts[r.emailIDs[normaliseEmail(email)]]
	r.lock.RUnlock()
	if !ok {
		return nil, errAccountNotFound
	}
	if acc.passwordHash == nil || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return nil, errBadPassword
	}
	return acc.user.Clone(), nil
}

func (r *accountRepo) getByEmail(email string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	acc, ok := r.accounts[r.emailIDs[normaliseEmail(email)]]
	if !ok {
		return nil, errAccountNotFound
	}
	return acc.user.Clone(), nil
}

func (r *accountRepo) getByID(id string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, errAccountNotFound
	}
	return acc.user.Clone(), nil
}

// update replaces the editable profile fields; ID and email are kept.
func (r *accountRepo) update(id string, patch *users.User) (*users.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, errAccountNotFound
	}
	next := patch.Clone()
	next.ID = acc.user.ID
	next.Email = acc.user.Email
	next.TwoFactorEnabled = acc.user.TwoFactorEnabled
	acc.user = next
	return next.Clone(), nil
}

func (r *accountRepo) setPassword(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	acc, ok := r.accounts[r.emailIDs[normaliseEmail(email)]]
	if !ok {
		return errAccountNotFound
	}
	acc.passwordHash = hash
	return nil
}
