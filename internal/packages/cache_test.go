package packages

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/cache"
)

type flakyLoader struct {
	failures int32
	calls    atomic.Int32
	table    map[string]int
}

func (l *flakyLoader) Load(context.Context) (map[string]int, error) {
	if l.calls.Add(1) <= l.failures {
		return nil, errors.New("not ready")
	}
	return l.table, nil
}

func newStore() cache.Store {
	return cache.NewStore(cache.Options{DefaultTTL: cache.NoExpiration})
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestAwaitLoadedAfterRetries(t *testing.T) {
	ctx := context.Background()
	loader := &flakyLoader{failures: 2, table: map[string]int{"org.telegram.messenger": 10142}}
	c := NewCache(newStore(), loader, fastRetry(), nil)

	c.Start(ctx)
	c.Start(ctx)
	require.NoError(t, c.AwaitLoaded(ctx))

	uid, ok := c.Lookup(ctx, "org.telegram.messenger")
	require.True(t, ok)
	assert.Equal(t, 10142, uid)
	assert.Equal(t, int32(3), loader.calls.Load())
}

func TestAwaitLoadedReportsFailure(t *testing.T) {
	ctx := context.Background()
	loader := &flakyLoader{failures: 100}
	c := NewCache(newStore(), loader, RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond}, nil)

	c.Start(ctx)
	err := c.AwaitLoaded(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestAwaitLoadedHonoursContext(t *testing.T) {
	c := NewCache(newStore(), StaticLoader{}, fastRetry(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.AwaitLoaded(ctx), context.Canceled)
}

func TestReloadDropsRemovedPackages(t *testing.T) {
	ctx := context.Background()
	loader := &flakyLoader{table: map[string]int{"a": 10001, "b": 10002}}
	c := NewCache(newStore(), loader, fastRetry(), nil)
	require.NoError(t, c.Reload(ctx))

	loader.table = map[string]int{"b": 10003}
	require.NoError(t, c.Run(ctx))

	_, ok := c.Lookup(ctx, "a")
	assert.False(t, ok)
	uid, ok := c.Lookup(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, 10003, uid)
}

func TestRefreshRecoversFromFailedStart(t *testing.T) {
	ctx := context.Background()
	loader := &flakyLoader{failures: 2, table: map[string]int{"org.example.app": 10001}}
	c := NewCache(newStore(), loader, RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond}, nil)

	c.Start(ctx)
	require.Error(t, c.AwaitLoaded(ctx))
	_, ok := c.Lookup(ctx, "org.example.app")
	assert.False(t, ok)

	require.NoError(t, c.Run(ctx))
	require.NoError(t, c.AwaitLoaded(ctx))
	uid, ok := c.Lookup(ctx, "org.example.app")
	require.True(t, ok)
	assert.Equal(t, 10001, uid)
}

func TestFailedRefreshKeepsTable(t *testing.T) {
	ctx := context.Background()
	loader := &flakyLoader{table: map[string]int{"a": 10001}}
	c := NewCache(newStore(), loader, RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond}, nil)
	c.Start(ctx)
	require.NoError(t, c.AwaitLoaded(ctx))

	loader.failures = 100
	require.Error(t, c.Run(ctx))
	assert.NoError(t, c.AwaitLoaded(ctx))
	uid, ok := c.Lookup(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 10001, uid)
}

func TestReloadSwapsWholeTable(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	loader := &flakyLoader{table: map[string]int{"a": 10001, "b": 10002}}
	c := NewCache(store, loader, fastRetry(), nil)
	require.NoError(t, c.Reload(ctx))
	assert.Len(t, store.Keys(ctx), 2)

	loader.table = map[string]int{"c": 10003}
	require.NoError(t, c.Reload(ctx))

	// Only the new generation remains in the backing store.
	assert.Len(t, store.Keys(ctx), 1)
	_, ok := c.Lookup(ctx, "a")
	assert.False(t, ok)
	uid, ok := c.Lookup(ctx, "c")
	require.True(t, ok)
	assert.Equal(t, 10003, uid)
}

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"com.android.shell 2000 0 /data/user_de/0/com.android.shell platform:privapp 3003",
		"org.example.app 10231 1 /data/user/0/org.example.app default:targetSdkVersion=33 none",
		"broken",
		"bad.uid abc 0 /data",
		"",
	}, "\n")
	table, err := Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"com.android.shell": 2000, "org.example.app": 10231}, table)
}
