package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/trails-auth/storage"
)

var _ storage.Repo = (*FakeStorageRepo)(nil)

// FakeStorageRepo is an in-memory Repo with per-key failure injection for tests
// and for the "memory" storage driver.
type FakeStorageRepo struct {
	values     map[string]string
	failGet    map[string]error
	failSet    map[string]error
	failRemove map[string]error
	setCalls   []string
	lock       sync.RWMutex
}

func NewFakeStorageRepo() *FakeStorageRepo {
	return &FakeStorageRepo{
		values:     make(map[string]string),
		failGet:    make(map[string]error),
		failSet:    make(map[string]error),
		failRemove: make(map[string]error),
	}
}

func (r *FakeStorageRepo) Get(_ context.Context, key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if err := r.failGet[key]; err != nil {
		return "", err
	}
	v, ok := r.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (r *FakeStorageRepo) Set(_ context.Context, key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.setCalls = append(r.setCalls, key)
	if err := r.failSet[key]; err != nil {
		return err
	}
	r.values[key] = value
	return nil
}

func (r *FakeStorageRepo) Remove(_ context.Context, key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.failRemove[key]; err != nil {
		return err
	}
	delete(r.values, key)
	return nil
}

// FailGet makes Get(key) return err until cleared with a nil err.
func (r *FakeStorageRepo) FailGet(key string, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	setOrClear(r.failGet, key, err)
}

// FailSet makes Set(key, ...) return err until cleared with a nil err.
func (r *FakeStorageRepo) FailSet(key string, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	setOrClear(r.failSet, key, err)
}

// FailRemove makes Remove(key) return err until cleared with a nil err.
func (r *FakeStorageRepo) FailRemove(key string, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	setOrClear(r.failRemove, key, err)
}

// Has reports whether key currently holds a value.
func (r *FakeStorageRepo) Has(key string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.values[key]
	return ok
}

// Put stores a raw value, bypassing failure injection.
func (r *FakeStorageRepo) Put(key, value string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values[key] = value
}

// SetCalls returns the keys passed to Set, in call order.
func (r *FakeStorageRepo) SetCalls() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string(nil), r.setCalls...)
}

func setOrClear(m map[string]error, key string, err error) {
	if err == nil {
		delete(m, key)
		return
	}
	m[key] = err
}
