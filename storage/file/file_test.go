package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vector/brandibble-go/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s := New(path)

	_, err := s.GetItem(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetItem(ctx, "token", "abc"))
	require.NoError(t, s.SetItem(ctx, "order", `{"uuid":"x"}`))

	v, err := s.GetItem(ctx, "order")
	require.NoError(t, err)
	assert.Equal(t, `{"uuid":"x"}`, v)

	require.NoError(t, s.RemoveItem(ctx, "token"))
	_, err = s.GetItem(ctx, "token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Clear(ctx))
	_, err = s.GetItem(ctx, "order")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, New(path).SetItem(ctx, "token", "abc"))

	v, err := New(path).GetItem(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := New(path).GetItem(ctx, "token")
	require.Error(t, err)
}
