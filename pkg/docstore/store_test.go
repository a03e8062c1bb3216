package docstore_test

import (
	"context"
	"testing"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := docstore.NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	payload := []byte{0x01, 0x02, 0x03}
	require.NoError(t, s.Put(ctx, "item-1", payload))
	payload[0] = 0xff

	got, err := s.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, got)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "item-1"))
	require.NoError(t, s.Delete(ctx, "item-1"))
	_, err = s.Get(ctx, "item-1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestMemoryStore_InvalidIDs(t *testing.T) {
	t.Parallel()
	s := docstore.NewMemoryStore()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Put(context.Background(), id, []byte("x")), docstore.ErrInvalidID, id)
	}
}
