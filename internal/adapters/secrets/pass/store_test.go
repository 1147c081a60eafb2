package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	stdin string
	args  []string
}

func fakeExec(t *testing.T, calls *[]call, stdout string, err error) execFunc {
	t.Helper()

	return func(_ context.Context, stdin string, args ...string) (string, string, error) {
		*calls = append(*calls, call{stdin: stdin, args: args})
		if err != nil {
			return "", "gpg: decryption failed", err
		}
		return stdout, "", nil
	}
}

func TestStoreGetTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	var calls []call
	store := &Store{execute: fakeExec(t, &calls, "hunter2\n", nil)}

	value, err := store.Get(context.Background(), "monzoo/zookeeper/password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"show", "monzoo/zookeeper/password"}, calls[0].args)
}

func TestStorePutInsertsMultilineForced(t *testing.T) {
	t.Parallel()

	var calls []call
	store := &Store{execute: fakeExec(t, &calls, "", nil)}

	require.NoError(t, store.Put(context.Background(), "monzoo/default/password", "hunter2"))

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"insert", "-m", "-f", "monzoo/default/password"}, calls[0].args)
	assert.Equal(t, "hunter2\n", calls[0].stdin)
}

func TestStoreDeleteForcesRemoval(t *testing.T) {
	t.Parallel()

	var calls []call
	store := &Store{execute: fakeExec(t, &calls, "", nil)}

	require.NoError(t, store.Delete(context.Background(), "monzoo/default/password"))

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"rm", "-f", "monzoo/default/password"}, calls[0].args)
}

func TestStoreWrapsCommandFailures(t *testing.T) {
	t.Parallel()

	var calls []call
	boom := errors.New("exit status 2")
	store := &Store{execute: fakeExec(t, &calls, "", boom)}

	_, err := store.Get(context.Background(), "monzoo/default/password")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "gpg: decryption failed")
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []call
	store := &Store{execute: fakeExec(t, &calls, "", nil)}

	_, err := store.Get(ctx, "monzoo/default/password")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}
