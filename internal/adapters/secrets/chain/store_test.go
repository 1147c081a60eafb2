package chain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/keeperbot/monzoo-keeper/internal/adapters/secrets/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	values  map[string]string
	err     error
	gets    int
	puts    int
	deletes int
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	s.gets++
	if s.err != nil {
		return "", s.err
	}
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("not found")
	}
	return value, nil
}

func (s *stubStore) Put(_ context.Context, key, value string) error {
	s.puts++
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	s.deletes++
	if s.err != nil {
		return s.err
	}
	delete(s.values, key)
	return nil
}

func TestNewStoreRequiresBothBackends(t *testing.T) {
	t.Parallel()

	_, err := chain.NewStore(nil, &stubStore{})
	assert.Error(t, err)

	_, err = chain.NewStore(&stubStore{}, nil)
	assert.Error(t, err)
}

func TestStorePrefersPrimary(t *testing.T) {
	t.Parallel()

	primary := &stubStore{values: map[string]string{"k": "from-primary"}}
	fallback := &stubStore{values: map[string]string{"k": "from-fallback"}}
	store, err := chain.NewStore(primary, fallback)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "from-primary", value)
	assert.Zero(t, fallback.gets)
}

func TestStoreFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: errors.New("pass unavailable")}
	fallback := &stubStore{values: map[string]string{"k": "from-fallback"}}
	store, err := chain.NewStore(primary, fallback)
	require.NoError(t, err)
	ctx := context.Background()

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-fallback", value)

	require.NoError(t, store.Put(ctx, "k2", "v2"))
	assert.Equal(t, "v2", fallback.values["k2"])

	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, 1, fallback.deletes)
}

func TestStoreReportsBothFailures(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: errors.New("primary down")}
	fallback := &stubStore{err: errors.New("fallback down")}
	store, err := chain.NewStore(primary, fallback)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary down")
	assert.Contains(t, err.Error(), "fallback down")
}

func TestStoreSkipsFallbackOnCancelledContext(t *testing.T) {
	t.Parallel()

	primary := &stubStore{err: context.Canceled}
	fallback := &stubStore{}
	store, err := chain.NewStore(primary, fallback)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fallback.gets)
}
