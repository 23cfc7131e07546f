package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/trails-auth/internal/errors"
	"github.com/jrsteele09/trails-auth/storage"
)

const fileName = "session.json"

var _ storage.Repo = (*FileRepo)(nil)

// FileRepo keeps every key in a single JSON document under the data folder.
// Each mutation rewrites the document through a temp file and rename so a crash
// never leaves a half-written file behind.
type FileRepo struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// New opens (or creates) the store in dataDir.
func New(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "[filestore.New] create %s", dataDir)
	}
	r := &FileRepo{
		path:   filepath.Join(dataDir, fileName),
		values: map[string]string{},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the location of the backing file.
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (r *FileRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.values[key]
	r.values[key] = value
	if err := r.saveLocked(); err != nil {
		if existed {
			r.values[key] = prev
		} else {
			delete(r.values, key)
		}
		return errors.Wrapf(err, "[FileRepo.Set] %s", key)
	}
	return nil
}

func (r *FileRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.values[key]
	if !ok {
		return nil
	}
	delete(r.values, key)
	if err := r.saveLocked(); err != nil {
		r.values[key] = prev
		return errors.Wrapf(err, "[FileRepo.Remove] %s", key)
	}
	return nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "[filestore.load] read %s", r.path)
	}
	loaded := map[string]string{}
	if err := json.Unmarshal(b, &loaded); err != nil {
		return errors.Wrapf(err, "[filestore.load] decode %s", r.path)
	}
	r.values = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), fileName+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, r.path)
}
