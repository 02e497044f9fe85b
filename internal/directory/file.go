package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/securestore"
)

// FileStore persists the identity→address mapping as a single JSON
// snapshot, encrypted at rest when a passphrase is configured. Suited to
// single-node deployments without a database.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	entries    map[string]string
}

// OpenFile loads the snapshot at path, or starts empty if none exists.
func OpenFile(path, passphrase string) (*FileStore, error) {
	s := &FileStore{
		path:       path,
		passphrase: passphrase,
		entries:    make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if s.passphrase != "" {
		raw, err = securestore.Decrypt(s.passphrase, raw)
		if err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, &s.entries)
}

func (s *FileStore) Get(ctx context.Context, identity string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address, ok := s.entries[identity]
	return address, ok, nil
}

// Put persists the mapping before updating the in-memory view, so a
// failed write never leaves the snapshot behind the served state.
func (s *FileStore) Put(ctx context.Context, identity, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[identity] = address
	if err := s.persist(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *FileStore) persist(entries map[string]string) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if s.passphrase != "" {
		raw, err = securestore.Encrypt(s.passphrase, raw)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

var _ Store = (*FileStore)(nil)
