// Package file provides a storage driver that persists items as a single
// JSON document on disk, in the spirit of browser localStorage.
package file

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/vector/brandibble-go/storage"
)

var _ storage.Store = (*Store)(nil)

// Store reads and rewrites the whole document on every operation. Writes go
// through a temp file and rename so a crash never leaves a half-written
// document behind.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by the file at path. The file is created on
// first write.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) GetItem(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	items[key] = value
	return s.save(items)
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	delete(items, key)
	return s.save(items)
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]string{})
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrap(err, "read store file")
	}
	items := make(map[string]string)
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		items[key] = v
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode store file")
	}
	return items, nil
}

func (s *Store) save(items map[string]string) error {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var e jx.Encoder
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(items[k])
	}
	e.ObjEnd()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, e.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "write store file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace store file")
	}
	return nil
}
