package nonce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		n := Generate()
		require.Len(t, n, 32)
		require.Regexp(t, "^[a-z0-9]+$", n)

		_, dup := seen[n]
		require.False(t, dup, "generated nonce collided")
		seen[n] = struct{}{}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("issued nonce redeems exactly once", func(t *testing.T) {
		n := Generate()
		require.NoError(t, store.Issue(ctx, n))
		require.NoError(t, store.Consume(ctx, n))
		require.ErrorIs(t, store.Consume(ctx, n), ErrNonceUnknown)
	})

	t.Run("unissued nonce is unknown", func(t *testing.T) {
		require.ErrorIs(t, store.Consume(ctx, Generate()), ErrNonceUnknown)
	})
}
