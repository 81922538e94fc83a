package common

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// SecretStore is a minimal key/value contract for caching resolved LLM
// provider API keys across invocations.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// BadgerSecretStore is a local, on-disk SecretStore backed by BadgerDB.
// The CLI reads it once per invocation for any provider API key the
// environment does not carry.
type BadgerSecretStore struct {
	db *badger.DB
}

// NewBadgerSecretStore opens (or creates) a Badger database at path.
func NewBadgerSecretStore(path string) (*BadgerSecretStore, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret store at %s: %w", path, err)
	}
	return &BadgerSecretStore{db: db}, nil
}

func (s *BadgerSecretStore) Close() error {
	return s.db.Close()
}

func (s *BadgerSecretStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}
	return value, nil
}

func (s *BadgerSecretStore) Set(ctx context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to set secret %s: %w", key, err)
	}
	return nil
}

// ResolveAPIKey returns a provider API key from (in order) the explicit
// configured value, the secret store cache, or an empty string. It never
// errors on a cache miss — a missing key is reported by the caller's own
// API call failing.
func ResolveAPIKey(ctx context.Context, store SecretStore, cacheKey, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if store == nil {
		return "", nil
	}
	value, err := store.Get(ctx, cacheKey)
	if err != nil {
		return "", nil
	}
	return value, nil
}
