package cache

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	root := NewStore(Options{DefaultTTL: NoExpiration, Prefix: "boxbuild"})
	pkgs := root.Namespace("packages")
	other := root.Namespace("other")

	require.NoError(t, pkgs.Set(ctx, "com.example.app", 10123, 0))
	require.NoError(t, pkgs.Set(ctx, "com.example.two", int64(10124), 0))
	require.NoError(t, other.Set(ctx, "com.example.app", "x", 0))

	uid, ok := pkgs.GetInt(ctx, "com.example.app")
	require.True(t, ok)
	assert.Equal(t, 10123, uid)

	uid, ok = pkgs.GetInt(ctx, "com.example.two")
	require.True(t, ok)
	assert.Equal(t, 10124, uid)

	_, ok = other.GetInt(ctx, "com.example.app")
	assert.False(t, ok)

	keys := pkgs.Keys(ctx)
	sort.Strings(keys)
	assert.Equal(t, []string{"com.example.app", "com.example.two"}, keys)

	pkgs.Delete(ctx, "com.example.app")
	_, ok = pkgs.Get(ctx, "com.example.app")
	assert.False(t, ok)
}
