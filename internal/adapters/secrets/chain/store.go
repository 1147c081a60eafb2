// Package chain composes two vault backends: every operation tries the
// primary first and falls back to the secondary on failure.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/keeperbot/monzoo-keeper/internal/adapters/secrets/file"
	passstore "github.com/keeperbot/monzoo-keeper/internal/adapters/secrets/pass"
	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(primary, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errors.New("primary secret store is nil")
	}
	if fallback == nil {
		return nil, errors.New("fallback secret store is nil")
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewPassFirstWithFileFallback is the default vault wiring: pass(1) when
// available, plain files under fileRoot otherwise.
func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if contextDone(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary get failed: %w; fallback get failed: %w", err, fallbackErr)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil || contextDone(err) {
		return err
	}

	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return fmt.Errorf("primary put failed: %w; fallback put failed: %w", err, fallbackErr)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err == nil || contextDone(err) {
		return err
	}

	if fallbackErr := s.fallback.Delete(ctx, key); fallbackErr != nil {
		return fmt.Errorf("primary delete failed: %w; fallback delete failed: %w", err, fallbackErr)
	}

	return nil
}

func contextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
