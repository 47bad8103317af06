// Package filestore keeps carts in a JSON file on the local device.
//
// The file maps each storage key to a cart document:
//
//	{"storefront-cart": {"cart": [...]}}
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/utafrali/storefront/pkg/cart"
)

// Store is a cart.Repository backed by a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ cart.Repository = (*Store)(nil)

// New returns a Store writing to path. The file is created on first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cart saved under key, or an empty cart.
func (s *Store) Load(ctx context.Context, key string) (cart.LineItems, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.read()
	if err != nil {
		return nil, err
	}
	doc, ok := docs[key]
	if !ok || doc.Cart == nil {
		return cart.LineItems{}, nil
	}
	return doc.Cart, nil
}

// Save replaces the cart stored under key.
func (s *Store) Save(ctx context.Context, key string, items cart.LineItems) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.read()
	if err != nil {
		return err
	}
	if items == nil {
		items = cart.LineItems{}
	}
	docs[key] = cart.Document{Cart: items}
	return s.write(docs)
}

// Delete removes key from the file. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := docs[key]; !ok {
		return nil
	}
	delete(docs, key)
	return s.write(docs)
}

func (s *Store) read() (map[string]cart.Document, error) {
	docs := make(map[string]cart.Document)

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docs, nil
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	if len(b) == 0 {
		return docs, nil
	}
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("decode cart file %s: %w", s.path, err)
	}
	return docs, nil
}

func (s *Store) write(docs map[string]cart.Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}
